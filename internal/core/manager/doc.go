// Package manager 实现驱动器管理器
//
// Manager 是面向调用方的入口：按地址去重的句柄注册表、选项合并、
// 自动加入网络、生命周期事件与关闭。
//
// # 注册表
//
// 每个地址（小写十六进制）至多对应一个打开的句柄。句柄关闭时
// 从注册表移除，仅当注册表中仍是同一句柄时才移除。
//
// # 并发加载
//
// 同一地址的并发 GetDat 只触发一次加载，所有等待者得到同一句柄。
// 加载本身不受调用方 ctx 取消影响，等待者各自遵守自己的 ctx。
//
// # 选项
//
// 每次调用的有效选项为 库默认 ← 实例默认 ← 调用选项，按字段合并。
// 并发加载时以首个调用者的选项构造驱动器。
//
// # 事件
//
// 事件发布到事件总线：EvtDatLoaded、EvtDatUsed、EvtDatCreated、
// EvtDatClosed、EvtDatDeleted。
package manager
