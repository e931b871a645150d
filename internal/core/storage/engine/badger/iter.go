package badger

import (
	"bytes"

	"github.com/dgraph-io/badger/v4"

	"github.com/dep2p/go-dat/internal/core/storage/engine"
)

// Iterator 前缀迭代器
type Iterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	prefix  []byte
	ownsTxn bool
	closed  bool
	err     error
}

var _ engine.Iterator = (*Iterator)(nil)

// First 定位到第一个键
func (i *Iterator) First() bool {
	if i.closed {
		return false
	}
	i.it.Seek(i.prefix)
	return i.Valid()
}

// Next 前进一步
func (i *Iterator) Next() bool {
	if i.closed {
		return false
	}
	i.it.Next()
	return i.Valid()
}

// Valid 当前位置是否有效
func (i *Iterator) Valid() bool {
	if i.closed || !i.it.Valid() {
		return false
	}
	return bytes.HasPrefix(i.it.Item().Key(), i.prefix)
}

// Key 当前键的副本
func (i *Iterator) Key() []byte {
	if !i.Valid() {
		return nil
	}
	return i.it.Item().KeyCopy(nil)
}

// Value 当前值的副本
func (i *Iterator) Value() []byte {
	if !i.Valid() {
		return nil
	}
	v, err := i.it.Item().ValueCopy(nil)
	if err != nil {
		i.err = err
		return nil
	}
	return v
}

// Error 迭代过程中的错误
func (i *Iterator) Error() error {
	return i.err
}

// Close 释放迭代器
func (i *Iterator) Close() {
	if i.closed {
		return
	}
	i.closed = true
	i.it.Close()
	if i.ownsTxn {
		i.txn.Discard()
	}
}
