// Package engine 定义存储引擎的内部接口
//
// 公共接口 interfaces.Engine 只有单键读写；持久化驱动器存储还需要
// 批量写、前缀迭代与事务，这些能力定义在本包，由 engine/badger 实现。
package engine
