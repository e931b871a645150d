// Package dat 实现 DriveHandle
//
// Handle 包装一个已就绪的驱动器及其在共享 Swarm 中的成员关系，
// 持有网络与锁状态机：
//
//	Created ──ready──▶ Idle ◀──JoinSwarm/LeaveSwarm──▶ Swarming
//	                     │                               │
//	                     └──────────Close────────────────┘──▶ Closed
//
// 持有任意命名锁时 LeaveSwarm 与 Close 不生效。Closed 为终态。
//
// 事件通过 On 注册的回调同步分发，同时发布到事件总线（如有）。
// 回调中不得同步调用 JoinSwarm、LeaveSwarm 或 Close。
package dat
