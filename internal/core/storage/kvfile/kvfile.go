// Package kvfile 在键值存储上实现随机访问文件
//
// 每个文件位于 <name>/ 前缀下：
//
//	<name>/size          大端 uint64，文件长度
//	<name>/p/<index>     第 index 页，最长 PageSize 字节
//
// 缺失的页与页尾按零读取。一次写入涉及的页与长度在同一事务中提交。
package kvfile

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dep2p/go-dat/internal/core/storage/engine"
	"github.com/dep2p/go-dat/internal/core/storage/kv"
	"github.com/dep2p/go-dat/pkg/interfaces"
)

// PageSize 页大小
const PageSize = 4096

var (
	// ErrClosed 存储已关闭
	ErrClosed = errors.New("kvfile: closed")
	// ErrNegative 偏移或长度为负
	ErrNegative = errors.New("kvfile: negative offset or size")
)

var (
	sizeKey    = []byte("size")
	pagePrefix = []byte("p/")
)

// Storage 一组 kv 文件
type Storage struct {
	store *kv.Store

	mu     sync.Mutex
	files  map[string]*File
	closed bool
}

var _ interfaces.Storage = (*Storage)(nil)

// New 在 store 上创建存储
func New(store *kv.Store) *Storage {
	return &Storage{store: store, files: make(map[string]*File)}
}

// Open 打开文件，同名文件共享同一个 File 以串行化写入
func (s *Storage) Open(name string) (interfaces.RandomAccess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if f, ok := s.files[name]; ok {
		return f, nil
	}
	f := &File{store: s.store.Sub([]byte(name + "/"))}
	s.files[name] = f
	return f, nil
}

// Close 关闭存储，数据保留在引擎中
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, f := range s.files {
		f.markClosed()
	}
	return nil
}

// File 分页文件
type File struct {
	mu     sync.RWMutex
	store  *kv.Store
	closed bool
}

var _ interfaces.RandomAccess = (*File)(nil)

func pageKey(index int64) []byte {
	return append(append([]byte(nil), pagePrefix...), kv.EncodeUint64(uint64(index))...)
}

func (f *File) size() (int64, error) {
	n, err := f.store.GetUint64(sizeKey)
	if engine.IsNotFound(err) {
		return 0, nil
	}
	return int64(n), err
}

// Size 文件长度
func (f *File) Size() (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return 0, ErrClosed
	}
	return f.size()
}

// ReadAt 实现 io.ReaderAt
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrNegative
	}
	size, err := f.size()
	if err != nil {
		return 0, err
	}
	if off >= size {
		return 0, io.EOF
	}

	want := p
	if rem := size - off; int64(len(want)) > rem {
		want = want[:rem]
	}

	read := 0
	for read < len(want) {
		pos := off + int64(read)
		index, inPage := pos/PageSize, int(pos%PageSize)

		page, err := f.store.Get(pageKey(index))
		if err != nil && !engine.IsNotFound(err) {
			return read, err
		}

		chunk := want[read:]
		if len(chunk) > PageSize-inPage {
			chunk = chunk[:PageSize-inPage]
		}
		n := 0
		if inPage < len(page) {
			n = copy(chunk, page[inPage:])
		}
		clear(chunk[n:])
		read += len(chunk)
	}

	if read < len(p) {
		return read, io.EOF
	}
	return read, nil
}

// WriteAt 实现 io.WriterAt
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrNegative
	}
	if len(p) == 0 {
		return 0, nil
	}

	size, err := f.size()
	if err != nil {
		return 0, err
	}

	err = f.store.Update(func(txn *kv.Txn) error {
		written := 0
		for written < len(p) {
			pos := off + int64(written)
			index, inPage := pos/PageSize, int(pos%PageSize)
			key := pageKey(index)

			page, err := txn.Get(key)
			if err != nil && !engine.IsNotFound(err) {
				return err
			}

			n := len(p) - written
			if n > PageSize-inPage {
				n = PageSize - inPage
			}
			if need := inPage + n; len(page) < need {
				grown := make([]byte, need)
				copy(grown, page)
				page = grown
			}
			copy(page[inPage:], p[written:written+n])

			if err := txn.Set(key, page); err != nil {
				return err
			}
			written += n
		}

		if end := off + int64(len(p)); end > size {
			return txn.Set(sizeKey, kv.EncodeUint64(uint64(end)))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("kvfile write: %w", err)
	}
	return len(p), nil
}

// Truncate 调整文件长度
func (f *File) Truncate(size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if size < 0 {
		return ErrNegative
	}
	old, err := f.size()
	if err != nil {
		return err
	}

	return f.store.Update(func(txn *kv.Txn) error {
		if size < old {
			first := (size + PageSize - 1) / PageSize
			last := (old - 1) / PageSize
			for i := first; i <= last; i++ {
				if err := txn.Delete(pageKey(i)); err != nil {
					return err
				}
			}
			// 保留页的尾部清零，之后扩展时读到零
			if rem := int(size % PageSize); rem != 0 {
				key := pageKey(size / PageSize)
				page, err := txn.Get(key)
				if err != nil && !engine.IsNotFound(err) {
					return err
				}
				if len(page) > rem {
					if err := txn.Set(key, page[:rem]); err != nil {
						return err
					}
				}
			}
		}
		return txn.Set(sizeKey, kv.EncodeUint64(uint64(size)))
	})
}

// Close 关闭句柄
func (f *File) Close() error {
	return nil
}

func (f *File) markClosed() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}
