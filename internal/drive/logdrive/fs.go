package logdrive

import (
	"context"
	"io/fs"

	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/types"
)

// ============================================================================
//                              只读操作（树）
// ============================================================================

func statTree(t *tree, name string) (types.Stat, error) {
	st, ok := t.stat(clean(name))
	if !ok {
		return types.Stat{}, pathError("stat", name, fs.ErrNotExist)
	}
	return st, nil
}

func readTree(t *tree, name string) ([]byte, error) {
	e, ok := t.get(clean(name))
	if !ok {
		return nil, pathError("read", name, fs.ErrNotExist)
	}
	if e.dir {
		return nil, pathError("read", name, types.ErrIsDir)
	}
	return append([]byte(nil), e.data...), nil
}

func readdirTree(t *tree, name string) ([]string, error) {
	p := clean(name)
	e, ok := t.get(p)
	if !ok {
		return nil, pathError("readdir", name, fs.ErrNotExist)
	}
	if !e.dir {
		return nil, pathError("readdir", name, types.ErrNotDir)
	}
	return t.children(p), nil
}

// view 在读锁下对当前树执行 fn
func (d *Drive) view(ctx context.Context, fn func(t *tree) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.usable(); err != nil {
		return err
	}
	return fn(d.tree)
}

// Stat 实现 interfaces.FileSystem
func (d *Drive) Stat(ctx context.Context, name string) (st types.Stat, err error) {
	err = d.view(ctx, func(t *tree) error {
		st, err = statTree(t, name)
		return err
	})
	return st, err
}

// ReadFile 实现 interfaces.FileSystem
func (d *Drive) ReadFile(ctx context.Context, name string) (data []byte, err error) {
	err = d.view(ctx, func(t *tree) error {
		data, err = readTree(t, name)
		return err
	})
	return data, err
}

// Readdir 实现 interfaces.FileSystem
func (d *Drive) Readdir(ctx context.Context, name string) (names []string, err error) {
	err = d.view(ctx, func(t *tree) error {
		names, err = readdirTree(t, name)
		return err
	})
	return names, err
}

// ============================================================================
//                              写操作
// ============================================================================

func (d *Drive) write(ctx context.Context, kind opKind, opName, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o := op{
		Kind:  kind,
		Name:  clean(name),
		Data:  data,
		Mtime: d.clock.Now().UnixNano(),
	}
	if err := d.commit(o); err != nil {
		switch err {
		case ErrClosed, ErrNotReady, ErrNotWritable:
			return err
		}
		return pathError(opName, name, err)
	}
	return nil
}

// WriteFile 实现 interfaces.FileSystem，上级目录自动创建
func (d *Drive) WriteFile(ctx context.Context, name string, data []byte) error {
	if clean(name) == root {
		return pathError("write", name, types.ErrIsDir)
	}
	return d.write(ctx, opPut, "write", name, append([]byte(nil), data...))
}

// Mkdir 实现 interfaces.FileSystem
func (d *Drive) Mkdir(ctx context.Context, name string) error {
	return d.write(ctx, opMkdir, "mkdir", name, nil)
}

// Unlink 实现 interfaces.FileSystem
func (d *Drive) Unlink(ctx context.Context, name string) error {
	return d.write(ctx, opDel, "unlink", name, nil)
}

// Rmdir 实现 interfaces.FileSystem
func (d *Drive) Rmdir(ctx context.Context, name string) error {
	return d.write(ctx, opRmdir, "rmdir", name, nil)
}

// ============================================================================
//                              下载与版本
// ============================================================================

// Download 请求下载并等待 name 出现在本地
//
// name 为空时只等待本地长度至少增长一次（已有数据时立即返回）。
func (d *Drive) Download(ctx context.Context, name string) error {
	if d.Writable() {
		if name == "" {
			return nil
		}
		_, err := d.Stat(ctx, name)
		return err
	}
	d.want()

	for {
		d.mu.RLock()
		err := d.usable()
		length := len(d.blocks)
		_, found := d.tree.get(clean(name))
		ch := d.updated
		d.mu.RUnlock()

		if err != nil {
			return err
		}
		if (name == "" && length > 0) || (name != "" && found) {
			return nil
		}
		select {
		case <-ch:
		case <-d.closedC:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Version 当前版本，即元数据长度
func (d *Drive) Version() uint64 {
	return d.Metadata().Length()
}

// Checkout 返回前 version 个块的只读快照
func (d *Drive) Checkout(version uint64) (pkgif.FileSystem, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.usable(); err != nil {
		return nil, err
	}
	if version > uint64(len(d.blocks)) {
		return nil, ErrVersionNotFound
	}
	t := newTree()
	for i, o := range d.ops[:version] {
		t.apply(o, uint64(i+1))
	}
	return &Snapshot{drive: d, tree: t, version: version}, nil
}
