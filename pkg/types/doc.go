// Package types 定义 go-dat 的公共数据结构
//
// 这是最底层的包，不依赖任何其他 go-dat 内部包。
//
// # 文件组织
//
//   - address.go - Address（驱动器公钥）、DiscoveryKey
//   - options.go - DatOptions、DriveOptions、SwarmOptions 及三层合并
//   - state.go   - HandleState、HandleEvent
//   - events.go  - Manager / Handle / Swarm 事件
//   - stat.go    - Stat、Block
//   - errors.go  - 公共错误
package types
