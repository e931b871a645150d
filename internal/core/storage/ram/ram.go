// Package ram 内存驱动器存储
//
// 非持久 dat 的默认存储。同名文件多次 Open 得到同一份数据。
package ram

import (
	"errors"
	"io"
	"sync"

	"github.com/dep2p/go-dat/pkg/interfaces"
)

// ErrClosed 存储或文件已关闭
var ErrClosed = errors.New("ram: closed")

// Storage 内存存储
type Storage struct {
	mu     sync.Mutex
	files  map[string]*File
	closed bool
}

var _ interfaces.Storage = (*Storage)(nil)

// New 创建内存存储
func New() *Storage {
	return &Storage{files: make(map[string]*File)}
}

// Factory 适配 loader 的临时存储工厂
func Factory() (interfaces.Storage, error) {
	return New(), nil
}

// Open 打开文件
func (s *Storage) Open(name string) (interfaces.RandomAccess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	f, ok := s.files[name]
	if !ok {
		f = &File{}
		s.files[name] = f
	}
	return f, nil
}

// Names 返回已打开过的文件名
func (s *Storage) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.files))
	for name := range s.files {
		out = append(out, name)
	}
	return out
}

// Close 释放全部数据
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, f := range s.files {
		f.release()
	}
	s.files = nil
	return nil
}

// File 内存文件
type File struct {
	mu     sync.RWMutex
	data   []byte
	closed bool
}

// ReadAt 实现 io.ReaderAt
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, errors.New("ram: negative offset")
	}
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt 实现 io.WriterAt，越过末尾时以零填充
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, errors.New("ram: negative offset")
	}
	end := off + int64(len(p))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	return copy(f.data[off:], p), nil
}

// Size 文件大小
func (f *File) Size() (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return 0, ErrClosed
	}
	return int64(len(f.data)), nil
}

// Truncate 调整文件大小
func (f *File) Truncate(size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if size < 0 {
		return errors.New("ram: negative size")
	}
	if size <= int64(len(f.data)) {
		f.data = f.data[:size:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, f.data)
	f.data = grown
	return nil
}

// Close 关闭句柄，数据保留到存储关闭
func (f *File) Close() error {
	return nil
}

func (f *File) release() {
	f.mu.Lock()
	f.closed = true
	f.data = nil
	f.mu.Unlock()
}
