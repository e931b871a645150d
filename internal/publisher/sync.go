// Package publisher 把本地目录发布为 dat
//
// Sync 把目录内容同步到可写的 dat；Create 新建 dat 并复制目录；
// Update 用私钥更新一个正在被他人做种的 dat。
package publisher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-dat/internal/core/dat"
	"github.com/dep2p/go-dat/internal/protocol/archive"
	"github.com/dep2p/go-dat/internal/protocol/manifest"
	"github.com/dep2p/go-dat/pkg/lib/log"
)

var logger = log.Logger("publisher")

// DefaultConcurrency 同一目录内并行复制的文件数
const DefaultConcurrency = 8

// Options 同步选项
type Options struct {
	// Overwrite 覆盖内容不同的已有文件
	Overwrite bool

	// ErrorOnExist 不覆盖时遇到已有文件返回 ErrExists
	ErrorOnExist bool

	// Delete 删除 dat 中本地已不存在的条目
	Delete bool

	// Concurrency 并行度，默认 DefaultConcurrency
	Concurrency int
}

// DefaultOptions 默认同步选项：覆盖已变化的文件
func DefaultOptions() Options {
	return Options{Overwrite: true}
}

// Report 同步结果，路径为 dat 中的绝对路径
type Report struct {
	mu sync.Mutex

	Added     []string
	Updated   []string
	Unchanged []string
	Skipped   []string
	Deleted   []string
	Dirs      []string
}

func (r *Report) add(list *[]string, p string) {
	r.mu.Lock()
	*list = append(*list, p)
	r.mu.Unlock()
}

func (r *Report) sort() {
	for _, l := range [][]string{r.Added, r.Updated, r.Unchanged, r.Skipped, r.Deleted, r.Dirs} {
		sort.Strings(l)
	}
}

// Changed 是否有写入
func (r *Report) Changed() bool {
	return len(r.Added)+len(r.Updated)+len(r.Deleted)+len(r.Dirs) > 0
}

// Sync 把 src 目录同步到 dat 的 prefix 下
//
// 同步期间句柄持有锁，Manager 关闭时不会关闭它。
func Sync(ctx context.Context, src string, h *dat.Handle, prefix string, opts Options) (*Report, error) {
	st, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, ErrNotDir
	}
	a, err := archive.New(h)
	if err != nil {
		return nil, err
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	key := "sync-" + uuid.NewString()
	h.Lock(key)
	defer h.Unlock(key)

	s := &syncer{archive: a, opts: opts, report: &Report{}}
	if err := s.dir(ctx, src, path.Join("/", prefix)); err != nil {
		return nil, err
	}
	s.report.sort()

	logger.Info("同步完成",
		"address", h.Address().ShortString(),
		"added", len(s.report.Added),
		"updated", len(s.report.Updated),
		"unchanged", len(s.report.Unchanged),
		"deleted", len(s.report.Deleted),
		"version", a.Version())
	return s.report, nil
}

type syncer struct {
	archive *archive.Archive
	opts    Options
	report  *Report
}

// dir 同步一个目录：文件并行复制，子目录依次递归
func (s *syncer) dir(ctx context.Context, src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	local := make(map[string]struct{}, len(entries))
	var subdirs []os.DirEntry

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, e := range entries {
		local[e.Name()] = struct{}{}
		if e.IsDir() {
			subdirs = append(subdirs, e)
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		fsPath, datPath := filepath.Join(src, e.Name()), path.Join(dst, e.Name())
		g.Go(func() error { return s.file(gctx, fsPath, datPath) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, e := range subdirs {
		fsPath, datPath := filepath.Join(src, e.Name()), path.Join(dst, e.Name())
		if _, err := s.archive.Stat(ctx, datPath); errors.Is(err, fs.ErrNotExist) {
			if err := s.archive.Mkdir(ctx, datPath); err != nil {
				return err
			}
			s.report.add(&s.report.Dirs, datPath)
		} else if err != nil {
			return err
		}
		if err := s.dir(ctx, fsPath, datPath); err != nil {
			return err
		}
	}

	if s.opts.Delete {
		return s.prune(ctx, dst, local)
	}
	return nil
}

// file 同步单个文件
func (s *syncer) file(ctx context.Context, fsPath, datPath string) error {
	data, err := os.ReadFile(fsPath)
	if err != nil {
		return err
	}

	existing, err := s.archive.ReadFile(ctx, datPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("新增文件", "path", datPath)
		if err := s.archive.WriteFile(ctx, datPath, data); err != nil {
			return err
		}
		s.report.add(&s.report.Added, datPath)
		return nil
	case err != nil:
		return err
	}

	if !s.opts.Overwrite {
		if s.opts.ErrorOnExist {
			return fmt.Errorf("%w: %s", ErrExists, datPath)
		}
		logger.Debug("跳过已有文件", "path", datPath)
		s.report.add(&s.report.Skipped, datPath)
		return nil
	}

	if blake2b.Sum256(data) == blake2b.Sum256(existing) {
		s.report.add(&s.report.Unchanged, datPath)
		return nil
	}
	logger.Debug("文件已变化，更新", "path", datPath)
	if err := s.archive.WriteFile(ctx, datPath, data); err != nil {
		return err
	}
	s.report.add(&s.report.Updated, datPath)
	return nil
}

// prune 删除 dst 下本地不存在的条目，根目录的 dat.json 保留
func (s *syncer) prune(ctx context.Context, dst string, local map[string]struct{}) error {
	names, err := s.archive.Readdir(ctx, dst, archive.ReaddirOptions{})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, name := range names {
		p := path.Join(dst, name)
		if _, ok := local[name]; ok || p == manifest.Filename {
			continue
		}
		st, err := s.archive.Stat(ctx, p)
		if err != nil {
			return err
		}
		if st.IsDir() {
			err = s.archive.Rmdir(ctx, p, archive.RmdirOptions{Recursive: true})
		} else {
			err = s.archive.Unlink(ctx, p)
		}
		if err != nil {
			return err
		}
		logger.Debug("删除条目", "path", p)
		s.report.add(&s.report.Deleted, p)
	}
	return nil
}
