package badger

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/dep2p/go-dat/internal/core/storage/engine"
)

// Transaction 事务
type Transaction struct {
	txn      *badger.Txn
	writable bool
	done     bool
}

var _ engine.Transaction = (*Transaction)(nil)

// Get 读取键
func (t *Transaction) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, engine.ErrTransactionDiscarded
	}
	item, err := t.txn.Get(key)
	if err != nil {
		return nil, convertError(err)
	}
	return item.ValueCopy(nil)
}

// Set 写入键
func (t *Transaction) Set(key, value []byte) error {
	if err := t.checkWrite(key); err != nil {
		return err
	}
	return convertError(t.txn.Set(key, value))
}

// Delete 删除键
func (t *Transaction) Delete(key []byte) error {
	if err := t.checkWrite(key); err != nil {
		return err
	}
	return convertError(t.txn.Delete(key))
}

// Commit 提交
func (t *Transaction) Commit() error {
	if t.done {
		return engine.ErrTransactionDiscarded
	}
	t.done = true
	return convertError(t.txn.Commit())
}

// Discard 放弃，提交后调用无副作用
func (t *Transaction) Discard() {
	if t.done {
		return
	}
	t.done = true
	t.txn.Discard()
}

func (t *Transaction) checkWrite(key []byte) error {
	if t.done {
		return engine.ErrTransactionDiscarded
	}
	if !t.writable {
		return engine.ErrReadOnly
	}
	if len(key) == 0 {
		return engine.ErrEmptyKey
	}
	return nil
}
