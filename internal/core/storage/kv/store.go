package kv

import (
	"encoding/binary"

	"github.com/dep2p/go-dat/internal/core/storage/engine"
)

// deleteBatchSize 前缀删除时单批的最大操作数
const deleteBatchSize = 1000

// Store 带前缀的键值存储
type Store struct {
	engine engine.InternalEngine
	prefix []byte
}

// New 创建前缀视图
func New(eng engine.InternalEngine, prefix []byte) *Store {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return &Store{engine: eng, prefix: p}
}

// Sub 在当前前缀下再嵌套一层前缀
func (s *Store) Sub(prefix []byte) *Store {
	return New(s.engine, s.key(prefix))
}

// Prefix 返回完整前缀
func (s *Store) Prefix() []byte {
	return append([]byte(nil), s.prefix...)
}

func (s *Store) key(k []byte) []byte {
	out := make([]byte, len(s.prefix)+len(k))
	copy(out, s.prefix)
	copy(out[len(s.prefix):], k)
	return out
}

func (s *Store) strip(k []byte) []byte {
	if len(k) < len(s.prefix) {
		return k
	}
	return k[len(s.prefix):]
}

// ============= 基础操作 =============

// Get 读取
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.engine.Get(s.key(key))
}

// Put 写入
func (s *Store) Put(key, value []byte) error {
	return s.engine.Put(s.key(key), value)
}

// Delete 删除
func (s *Store) Delete(key []byte) error {
	return s.engine.Delete(s.key(key))
}

// Has 是否存在
func (s *Store) Has(key []byte) (bool, error) {
	return s.engine.Has(s.key(key))
}

// GetUint64 读取大端 uint64
func (s *Store) GetUint64(key []byte) (uint64, error) {
	data, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, engine.ErrCorrupted
	}
	return binary.BigEndian.Uint64(data), nil
}

// PutUint64 写入大端 uint64
func (s *Store) PutUint64(key []byte, v uint64) error {
	return s.Put(key, EncodeUint64(v))
}

// EncodeUint64 大端编码，保证字典序与数值序一致
func EncodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// ============= 前缀操作 =============

// PrefixScan 遍历 subPrefix 下的键值，fn 返回 false 时停止
//
// 传给 fn 的 key 已去除 Store 自身的前缀，保留 subPrefix。
func (s *Store) PrefixScan(subPrefix []byte, fn func(key, value []byte) bool) error {
	it := s.engine.NewPrefixIterator(s.key(subPrefix))
	defer it.Close()

	for it.First(); it.Valid(); it.Next() {
		if !fn(s.strip(it.Key()), it.Value()) {
			break
		}
	}
	return it.Error()
}

// Keys 返回 subPrefix 下的全部键
func (s *Store) Keys(subPrefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := s.PrefixScan(subPrefix, func(k, _ []byte) bool {
		keys = append(keys, k)
		return true
	})
	return keys, err
}

// Count 统计 subPrefix 下的键数
func (s *Store) Count(subPrefix []byte) (int, error) {
	n := 0
	err := s.PrefixScan(subPrefix, func(_, _ []byte) bool {
		n++
		return true
	})
	return n, err
}

// DeletePrefix 删除 subPrefix 下的全部键，返回删除数量
func (s *Store) DeletePrefix(subPrefix []byte) (int, error) {
	keys, err := s.Keys(subPrefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	b := s.engine.NewBatch()
	for _, k := range keys {
		b.Delete(s.key(k))
		if b.Size() >= deleteBatchSize {
			n := b.Size()
			if err := b.Write(); err != nil {
				return deleted, err
			}
			deleted += n
		}
	}
	if n := b.Size(); n > 0 {
		if err := b.Write(); err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}

// ============= 事务 =============

// Txn 带前缀的事务视图
type Txn struct {
	store *Store
	txn   engine.Transaction
}

// Get 读取
func (t *Txn) Get(key []byte) ([]byte, error) {
	return t.txn.Get(t.store.key(key))
}

// Set 写入
func (t *Txn) Set(key, value []byte) error {
	return t.txn.Set(t.store.key(key), value)
}

// Delete 删除
func (t *Txn) Delete(key []byte) error {
	return t.txn.Delete(t.store.key(key))
}

// Update 在读写事务中执行 fn，fn 返回错误时回滚
func (s *Store) Update(fn func(txn *Txn) error) error {
	txn := s.engine.NewTransaction(true)
	defer txn.Discard()

	if err := fn(&Txn{store: s, txn: txn}); err != nil {
		return err
	}
	return txn.Commit()
}

// View 在只读事务中执行 fn
func (s *Store) View(fn func(txn *Txn) error) error {
	txn := s.engine.NewTransaction(false)
	defer txn.Discard()
	return fn(&Txn{store: s, txn: txn})
}
