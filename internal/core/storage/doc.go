// Package storage 提供驱动器存储
//
// 子包：
//   - engine, engine/badger: 键值引擎
//   - kv: 前缀隔离的键值视图
//   - ram: 内存存储，非持久 dat 的默认选择
//   - kvfile: 按 4 KiB 分页落在键值引擎上的随机访问文件
//
// 本包的 Persistent 把上述部件组合成 Loader 需要的
// StorageFactory 与 StorageDeleter：每个 dat 的文件位于 dat/<hex>/ 前缀下。
package storage
