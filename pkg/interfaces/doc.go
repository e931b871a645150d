// Package interfaces 定义 go-dat 的能力接口
//
// 核心层（Handle、Loader、Manager）只依赖这里的接口，
// 驱动器后端与网络实现可以整体替换。
//
// # 文件组织
//
//   - drive.go    - Drive、Feed、FileSystem、Replicator、KeyHolder、DriveFactory
//   - swarm.go    - Swarm、SwarmFactory
//   - storage.go  - Storage、RandomAccess、Engine、StorageFactory、StorageDeleter
//   - eventbus.go - 事件总线
package interfaces
