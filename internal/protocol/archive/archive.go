package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/dep2p/go-dat/internal/core/dat"
	"github.com/dep2p/go-dat/internal/protocol/manifest"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/lib/log"
	"github.com/dep2p/go-dat/pkg/types"
)

var logger = log.Logger("protocol/archive")

// Archive dat 的文件 API
type Archive struct {
	handle *dat.Handle
	fs     pkgif.FileSystem

	// version 为 0 表示最新版本
	version uint64
}

// New 为句柄创建 Archive
func New(h *dat.Handle) (*Archive, error) {
	fsys, ok := h.Drive().(pkgif.FileSystem)
	if !ok {
		return nil, ErrNotFileSystem
	}
	return &Archive{handle: h, fs: fsys}, nil
}

// Handle 返回底层句柄
func (a *Archive) Handle() *dat.Handle { return a.handle }

// URL 返回 dat URL，历史版本带 +version 后缀
func (a *Archive) URL() string {
	u := a.handle.Address().URL()
	if a.version > 0 {
		u += "+" + strconv.FormatUint(a.version, 10)
	}
	return u
}

// Writable 是否可写
func (a *Archive) Writable() bool {
	return a.version == 0 && a.handle.IsOwner()
}

// Version 当前视图的版本
func (a *Archive) Version() uint64 {
	return a.fs.Version()
}

// ============================================================================
//                              元信息
// ============================================================================

// Info GetInfo 的结果
type Info struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Version     uint64 `json:"version"`
	Writable    bool   `json:"writable"`
	Persisted   bool   `json:"persisted"`
	Swarming    bool   `json:"swarming"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GetInfo 返回 dat 的元信息
func (a *Archive) GetInfo(ctx context.Context) (Info, error) {
	m, err := manifest.Read(ctx, a.fs)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Key:         a.handle.Address().String(),
		URL:         a.URL(),
		Version:     a.fs.Version(),
		Writable:    a.Writable(),
		Persisted:   a.handle.IsPersisted(),
		Swarming:    a.handle.IsSwarming(),
		Title:       m.Title,
		Description: m.Description,
	}, nil
}

// ConfigureOptions 可配置的清单字段，nil 表示不修改
type ConfigureOptions struct {
	Title        *string
	Description  *string
	WebRoot      *string
	FallbackPage *string
}

// Configure 修改 dat.json
func (a *Archive) Configure(ctx context.Context, opts ConfigureOptions) error {
	if !a.Writable() {
		return ErrNotWritable
	}
	return manifest.Update(ctx, a.fs, func(m *manifest.Manifest) {
		m.URL = a.handle.Address().URL()
		set := func(dst, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		set(&m.Title, opts.Title)
		set(&m.Description, opts.Description)
		set(&m.WebRoot, opts.WebRoot)
		set(&m.FallbackPage, opts.FallbackPage)
	})
}

// ============================================================================
//                              读取
// ============================================================================

// Stat 返回文件或目录信息
func (a *Archive) Stat(ctx context.Context, name string) (types.Stat, error) {
	return a.fs.Stat(ctx, name)
}

// ReadFile 读取文件内容
func (a *Archive) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := a.fs.Download(ctx, name); err != nil {
		return nil, err
	}
	return a.fs.ReadFile(ctx, name)
}

// ReadFileString 读取文件并按 enc 编码
func (a *Archive) ReadFileString(ctx context.Context, name string, enc Encoding) (string, error) {
	data, err := a.ReadFile(ctx, name)
	if err != nil {
		return "", err
	}
	return enc.Encode(data)
}

// ReaddirOptions Readdir 选项
type ReaddirOptions struct {
	// Recursive 递归列出，结果为相对 name 的路径
	Recursive bool
}

// Readdir 列出目录，结果有序
func (a *Archive) Readdir(ctx context.Context, name string, opts ReaddirOptions) ([]string, error) {
	if !opts.Recursive {
		return a.fs.Readdir(ctx, name)
	}

	var out []string
	err := a.walk(ctx, name, func(rel string, _ types.Stat) error {
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// walk 先序遍历 name 下的所有条目，rel 为相对路径
func (a *Archive) walk(ctx context.Context, name string, fn func(rel string, st types.Stat) error) error {
	var visit func(dir, rel string) error
	visit = func(dir, rel string) error {
		names, err := a.fs.Readdir(ctx, dir)
		if err != nil {
			return err
		}
		for _, n := range names {
			full, r := path.Join(dir, n), path.Join(rel, n)
			st, err := a.fs.Stat(ctx, full)
			if err != nil {
				return err
			}
			if err := fn(r, st); err != nil {
				return err
			}
			if st.IsDir() {
				if err := visit(full, r); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return visit(path.Join("/", name), "")
}

// Download 等待 name（为空时整个 dat）的数据到达本地
func (a *Archive) Download(ctx context.Context, name string) error {
	return a.fs.Download(ctx, name)
}

// Checkout 返回指定版本的只读 Archive
func (a *Archive) Checkout(version uint64) (*Archive, error) {
	snap, err := a.fs.Checkout(version)
	if err != nil {
		return nil, err
	}
	return &Archive{handle: a.handle, fs: snap, version: version}, nil
}

// ============================================================================
//                              写入
// ============================================================================

// WriteFile 写入文件
func (a *Archive) WriteFile(ctx context.Context, name string, data []byte) error {
	return a.fs.WriteFile(ctx, name, data)
}

// WriteFileString 按 enc 解码后写入
func (a *Archive) WriteFileString(ctx context.Context, name, data string, enc Encoding) error {
	b, err := enc.Decode(data)
	if err != nil {
		return err
	}
	return a.fs.WriteFile(ctx, name, b)
}

// Mkdir 创建目录
func (a *Archive) Mkdir(ctx context.Context, name string) error {
	return a.fs.Mkdir(ctx, name)
}

// Unlink 删除文件
func (a *Archive) Unlink(ctx context.Context, name string) error {
	return a.fs.Unlink(ctx, name)
}

// RmdirOptions Rmdir 选项
type RmdirOptions struct {
	// Recursive 先删除目录下的全部内容
	Recursive bool
}

// Rmdir 删除目录
func (a *Archive) Rmdir(ctx context.Context, name string, opts RmdirOptions) error {
	if !opts.Recursive {
		return a.fs.Rmdir(ctx, name)
	}

	var (
		files []string
		dirs  []string
	)
	err := a.walk(ctx, name, func(rel string, st types.Stat) error {
		full := path.Join("/", name, rel)
		if st.IsDir() {
			dirs = append(dirs, full)
		} else {
			files = append(files, full)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := a.fs.Unlink(ctx, f); err != nil {
			return err
		}
	}
	// 先序遍历的逆序保证子目录先于父目录
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := a.fs.Rmdir(ctx, dirs[i]); err != nil {
			return err
		}
	}
	return a.fs.Rmdir(ctx, name)
}

// Copy 复制文件或目录，目标必须不存在
func (a *Archive) Copy(ctx context.Context, src, dst string) error {
	src, dst = path.Join("/", src), path.Join("/", dst)
	if dst == src || strings.HasPrefix(dst, src+"/") {
		return ErrSamePath
	}

	st, err := a.fs.Stat(ctx, src)
	if err != nil {
		return err
	}
	if _, err := a.fs.Stat(ctx, dst); err == nil {
		return &fs.PathError{Op: "copy", Path: dst, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if !st.IsDir() {
		return a.copyFile(ctx, src, dst)
	}
	if err := a.fs.Mkdir(ctx, dst); err != nil {
		return err
	}
	return a.walk(ctx, src, func(rel string, st types.Stat) error {
		to := path.Join(dst, rel)
		if st.IsDir() {
			return a.fs.Mkdir(ctx, to)
		}
		return a.copyFile(ctx, path.Join(src, rel), to)
	})
}

func (a *Archive) copyFile(ctx context.Context, src, dst string) error {
	data, err := a.ReadFile(ctx, src)
	if err != nil {
		return err
	}
	return a.fs.WriteFile(ctx, dst, data)
}

// Rename 移动文件或目录
func (a *Archive) Rename(ctx context.Context, src, dst string) error {
	if err := a.Copy(ctx, src, dst); err != nil {
		return fmt.Errorf("rename %s: %w", src, err)
	}
	st, err := a.fs.Stat(ctx, src)
	if err != nil {
		return err
	}
	if st.IsDir() {
		err = a.Rmdir(ctx, src, RmdirOptions{Recursive: true})
	} else {
		err = a.fs.Unlink(ctx, src)
	}
	if err != nil {
		return err
	}
	logger.Debug("已移动", "address", a.handle.Address().ShortString(), "from", src, "to", dst)
	return nil
}
