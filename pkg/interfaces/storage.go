package interfaces

import (
	"context"
	"io"
)

// ============================================================================
//                              驱动器存储
// ============================================================================

// Storage 驱动器的随机访问文件集合
type Storage interface {
	// Open 打开（不存在则创建）名为 name 的文件
	Open(name string) (RandomAccess, error)

	// Close 释放存储
	Close() error
}

// RandomAccess 随机访问文件
//
// 读取超出 Size 的位置返回 io.EOF。
type RandomAccess interface {
	io.ReaderAt
	io.WriterAt

	Size() (int64, error)
	Truncate(size int64) error
	Close() error
}

// StorageFactory 按十六进制地址打开持久存储
type StorageFactory func(ctx context.Context, hexAddr string) (Storage, error)

// StorageDeleter 按十六进制地址删除持久存储
type StorageDeleter func(ctx context.Context, hexAddr string) error

// ============================================================================
//                              键值引擎
// ============================================================================

// Engine 键值存储引擎基础接口
//
// 实现必须并发安全。Get 在键不存在时返回 ErrNotFound 类错误。
type Engine interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	Close() error
}
