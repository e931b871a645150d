package logdrive

import (
	"context"

	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/types"
)

// Snapshot 驱动器某一版本的只读视图
type Snapshot struct {
	drive   *Drive
	tree    *tree
	version uint64
}

var _ pkgif.FileSystem = (*Snapshot)(nil)

// Stat 实现 interfaces.FileSystem
func (s *Snapshot) Stat(ctx context.Context, name string) (types.Stat, error) {
	if err := ctx.Err(); err != nil {
		return types.Stat{}, err
	}
	return statTree(s.tree, name)
}

// ReadFile 实现 interfaces.FileSystem
func (s *Snapshot) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readTree(s.tree, name)
}

// Readdir 实现 interfaces.FileSystem
func (s *Snapshot) Readdir(ctx context.Context, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readdirTree(s.tree, name)
}

// WriteFile 快照只读
func (s *Snapshot) WriteFile(_ context.Context, name string, _ []byte) error {
	return pathError("write", name, types.ErrReadOnly)
}

// Mkdir 快照只读
func (s *Snapshot) Mkdir(_ context.Context, name string) error {
	return pathError("mkdir", name, types.ErrReadOnly)
}

// Unlink 快照只读
func (s *Snapshot) Unlink(_ context.Context, name string) error {
	return pathError("unlink", name, types.ErrReadOnly)
}

// Rmdir 快照只读
func (s *Snapshot) Rmdir(_ context.Context, name string) error {
	return pathError("rmdir", name, types.ErrReadOnly)
}

// Download 快照中的数据已在本地
func (s *Snapshot) Download(ctx context.Context, _ string) error {
	return ctx.Err()
}

// Version 快照版本
func (s *Snapshot) Version() uint64 { return s.version }

// Checkout 从驱动器取另一个版本
func (s *Snapshot) Checkout(version uint64) (pkgif.FileSystem, error) {
	return s.drive.Checkout(version)
}
