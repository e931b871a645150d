package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-dat/internal/core/dat"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/lib/log"
	"github.com/dep2p/go-dat/pkg/types"
)

var logger = log.Logger("protocol/handler")

// DefaultTimeout 默认加载超时
const DefaultTimeout = 30 * time.Second

// DatGetter 按地址获取 dat，*manager.Manager 满足该接口
type DatGetter interface {
	GetDat(ctx context.Context, address string, opts *types.DatOptions) (*dat.Handle, error)
}

// NameResolver 把名称解析为地址，*dns.Resolver 满足该接口
type NameResolver interface {
	Resolve(ctx context.Context, name string) (types.Address, error)
}

// DefaultLoadOptions 读取时使用的加载选项
func DefaultLoadOptions() types.DatOptions {
	return types.DatOptions{
		Persist:      types.Bool(true),
		AutoSwarm:    types.Bool(true),
		DriveOptions: types.DriveOptions{Sparse: types.Bool(true)},
	}
}

// Config 处理器配置
type Config struct {
	// Timeout 加载与等待内容的时间，默认 DefaultTimeout
	Timeout time.Duration

	// LoadOptions 加载选项，为 nil 时使用 DefaultLoadOptions
	LoadOptions *types.DatOptions

	// Clock 计时时钟，默认真实时钟
	Clock clock.Clock
}

// Handler dat:// 处理器
type Handler struct {
	dats     DatGetter
	resolver NameResolver
	timeout  time.Duration
	opts     types.DatOptions
	clock    clock.Clock
}

// New 创建处理器
//
// resolver 为 nil 时只接受十六进制地址。
func New(dats DatGetter, resolver NameResolver, cfg Config) *Handler {
	h := &Handler{
		dats:     dats,
		resolver: resolver,
		timeout:  cfg.Timeout,
		clock:    cfg.Clock,
	}
	if h.timeout <= 0 {
		h.timeout = DefaultTimeout
	}
	if h.clock == nil {
		h.clock = clock.New()
	}
	if cfg.LoadOptions != nil {
		h.opts = cfg.LoadOptions.Clone()
	} else {
		h.opts = DefaultLoadOptions()
	}
	return h
}

// Timeout 返回加载超时
func (h *Handler) Timeout() time.Duration { return h.timeout }

// Open 打开 URL 指向的文件
func (h *Handler) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	data, _, err := h.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Fetch 读取 URL 指向的文件，同时返回命中的路径
func (h *Handler) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, "", err
	}
	addr, err := h.resolve(ctx, u.Host)
	if err != nil {
		return nil, "", &NotFoundError{URL: rawURL, Err: err}
	}

	tctx, cancel := h.clock.WithTimeout(ctx, h.timeout)
	defer cancel()

	data, name, err := h.fetch(tctx, addr, u, rawURL)
	if err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		logger.Debug("加载超时", "url", rawURL, "timeout", h.timeout)
		return nil, "", &NetworkTimeoutError{URL: rawURL, Timeout: h.timeout}
	}
	return data, name, err
}

func (h *Handler) resolve(ctx context.Context, host string) (types.Address, error) {
	if h.resolver == nil {
		return types.ParseAddress(host)
	}
	return h.resolver.Resolve(ctx, host)
}

func (h *Handler) fetch(ctx context.Context, addr types.Address, u URL, rawURL string) ([]byte, string, error) {
	opts := h.opts.Clone()
	handle, err := h.dats.GetDat(ctx, addr.String(), &opts)
	if err != nil {
		return nil, "", err
	}
	if err := handle.Ready(ctx); err != nil {
		return nil, "", err
	}

	fsys, ok := handle.Drive().(pkgif.FileSystem)
	if !ok {
		return nil, "", ErrNotFileSystem
	}
	if u.Version > 0 {
		// 等待历史版本到达
		for fsys.Version() < u.Version {
			if err := handle.Drive().Metadata().Update(ctx); err != nil {
				return nil, "", err
			}
		}
		if fsys, err = fsys.Checkout(u.Version); err != nil {
			return nil, "", fmt.Errorf("checkout %d: %w", u.Version, err)
		}
	}

	res, err := ResolvePath(ctx, fsys, u.Path, rawURL)
	if err != nil {
		return nil, "", err
	}
	if res.Directory {
		return nil, "", &IsADirectoryError{URL: rawURL}
	}
	if err := res.FS.Download(ctx, res.Path); err != nil {
		return nil, "", err
	}
	data, err := res.FS.ReadFile(ctx, res.Path)
	if err != nil {
		return nil, "", err
	}
	logger.Debug("已读取", "url", rawURL, "path", res.Path, "size", len(data))
	return data, res.Path, nil
}
