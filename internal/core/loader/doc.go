// Package loader 负责构造驱动器句柄
//
// Loader 选择存储（持久或内存）、构造驱动器、等待就绪并包装为
// dat.Handle。所有句柄共享一个懒创建的 Swarm，Suspend 后回到
// 未初始化状态，下次加载时重新创建。
package loader
