// Package mocks 提供统一的测试 Mock 实现
//
// # 核心 Mock
//
//   - MockDrive: 模拟 interfaces.Drive，可设置地址、可写性与元数据 Feed
//   - MockFeed: 模拟 interfaces.Feed，Update 可阻塞直到 Grow 或 ctx 取消
//   - MockSwarm: 模拟 interfaces.Swarm，记录 Add/Remove 调用
//
// gomock 生成的 Swarm Mock 位于 pkg/interfaces/mock。
//
// # 设计原则
//
// 1. 函数式注入: 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 关键 Mock 记录调用历史，便于验证测试行为
// 3. 并发安全: 句柄会在后台 goroutine 中调用 Feed，Mock 内部加锁
//
// # 使用示例
//
//	drive := mocks.NewMockDrive(addr, false)
//	swarm := mocks.NewMockSwarm()
//	h := dat.New(drive, swarm, dat.Options{})
//	drive.Meta.Grow(1) // 只读驱动器收到第一次元数据更新
package mocks
