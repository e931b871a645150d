package badger

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/dep2p/go-dat/internal/core/storage/engine"
)

// WriteBatch 批量写
type WriteBatch struct {
	eng   *Engine
	wb    *badger.WriteBatch
	count int
	err   error
}

var _ engine.Batch = (*WriteBatch)(nil)

// Put 添加写入
func (b *WriteBatch) Put(key, value []byte) {
	if len(key) == 0 || b.err != nil {
		return
	}
	b.err = b.wb.Set(key, value)
	b.count++
}

// Delete 添加删除
func (b *WriteBatch) Delete(key []byte) {
	if len(key) == 0 || b.err != nil {
		return
	}
	b.err = b.wb.Delete(key)
	b.count++
}

// Write 提交，之后批次可以继续使用
func (b *WriteBatch) Write() error {
	if b.eng.closed.Load() {
		return engine.ErrClosed
	}
	if b.eng.config.ReadOnly {
		return engine.ErrReadOnly
	}
	if b.err != nil {
		err := b.err
		b.reset()
		return convertError(err)
	}
	err := b.wb.Flush()
	b.reset()
	return convertError(err)
}

// Size 待提交的操作数
func (b *WriteBatch) Size() int {
	return b.count
}

// Cancel 丢弃未提交的操作
func (b *WriteBatch) Cancel() {
	b.wb.Cancel()
	b.count = 0
	b.err = nil
}

func (b *WriteBatch) reset() {
	b.wb = b.eng.db.NewWriteBatch()
	b.count = 0
	b.err = nil
}
