package engine

import "github.com/dep2p/go-dat/pkg/interfaces"

// InternalEngine 内部存储引擎接口
type InternalEngine interface {
	interfaces.Engine

	// NewBatch 创建批量写
	NewBatch() Batch

	// NewPrefixIterator 创建前缀迭代器，只返回以 prefix 开头的键
	NewPrefixIterator(prefix []byte) Iterator

	// NewTransaction 创建事务
	NewTransaction(writable bool) Transaction

	// Start 启动后台任务（值日志 GC）
	Start() error

	// Sync 刷盘
	Sync() error
}

// Batch 批量写，Write 之前对其他读者不可见
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Write() error
	Size() int
	Cancel()
}

// Iterator 有序迭代器
//
//	for it.First(); it.Valid(); it.Next() { ... }
type Iterator interface {
	First() bool
	Next() bool
	Valid() bool
	Key() []byte
	Value() []byte
	Error() error
	Close()
}

// Transaction 读写事务
type Transaction interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Commit() error
	Discard()
}
