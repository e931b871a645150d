package dat

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/fx"

	core "github.com/dep2p/go-dat/internal/core/dat"
	"github.com/dep2p/go-dat/internal/core/manager"
	"github.com/dep2p/go-dat/internal/discovery/dns"
	"github.com/dep2p/go-dat/internal/protocol/handler"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/lib/log"
	"github.com/dep2p/go-dat/pkg/types"
)

var logger = log.Logger("dat")

// ════════════════════════════════════════════════════════════════════════════
//                              版本信息
// ════════════════════════════════════════════════════════════════════════════

// Version 当前版本
const Version = "v0.1.0"

// BuildInfo 构建信息（通过 ldflags 注入）
var (
	// GitCommit Git 提交哈希
	GitCommit string

	// BuildDate 构建日期
	BuildDate string
)

// VersionInfo 返回完整版本信息字符串
func VersionInfo() string {
	info := "go-dat " + Version
	if GitCommit != "" {
		info += " (" + GitCommit[:min(8, len(GitCommit))] + ")"
	}
	if BuildDate != "" {
		info += " built " + BuildDate
	}
	return info
}

// ════════════════════════════════════════════════════════════════════════════
//                              Node
// ════════════════════════════════════════════════════════════════════════════

// Node dat 节点
//
// New 之后组件已构造但存储引擎尚未打开，需调用 Start。
// Close 之后节点不可再启动。
type Node struct {
	config *nodeConfig
	app    *fx.App

	// 由 Fx 注入
	manager    *manager.Manager
	bus        pkgif.EventBus
	handler    *handler.Handler
	resolver   *dns.Resolver
	gateway    *handler.Server
	persistent bool

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建节点
func New(opts ...Option) (*Node, error) {
	cfg := newNodeConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if cfg.config.Log.Level != "" {
		log.Configure(cfg.config.Log.Level)
	}

	node := &Node{config: cfg}
	var err error
	node.app, err = buildFxApp(cfg, node)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return node, nil
}

// Start 快捷启动函数，等价于 New() + Start()
func Start(ctx context.Context, opts ...Option) (*Node, error) {
	node, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := node.Start(ctx); err != nil {
		return nil, fmt.Errorf("start node: %w", err)
	}
	return node, nil
}

// Start 启动节点：打开存储引擎，按配置启动网关
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrNodeClosed
	}
	if n.started {
		return ErrAlreadyStarted
	}

	logger.Info("正在启动节点", "persistent", n.persistent, "gateway", n.gateway != nil)
	if err := n.app.Start(ctx); err != nil {
		logger.Error("节点启动失败", "error", err)
		return fmt.Errorf("start failed: %w", err)
	}
	n.started = true
	return nil
}

// Close 关闭节点
//
// 关闭所有 dat（含持有锁的），离开网络并关闭存储。重复调用无效。
func (n *Node) Close(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true
	if !n.started {
		return nil
	}
	n.started = false

	logger.Info("正在关闭节点")
	if err := n.app.Stop(ctx); err != nil {
		logger.Warn("节点关闭出错", "error", err)
		return err
	}
	return nil
}

func (n *Node) check() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrNodeClosed
	}
	if !n.started {
		return ErrNotStarted
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              dat 操作
// ════════════════════════════════════════════════════════════════════════════

// GetDat 按地址或域名加载 dat
//
// address 可以是 64 位十六进制、dat:// URL 或带 datkey TXT 记录的域名。
func (n *Node) GetDat(ctx context.Context, address string, opts *types.DatOptions) (*core.Handle, error) {
	if err := n.check(); err != nil {
		return nil, err
	}
	addr, err := n.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}
	return n.manager.GetDat(ctx, addr.String(), opts)
}

// CreateDat 创建新的可写 dat
func (n *Node) CreateDat(ctx context.Context, opts *types.DatOptions) (*core.Handle, error) {
	if err := n.check(); err != nil {
		return nil, err
	}
	return n.manager.CreateDat(ctx, opts)
}

// DeleteDatData 关闭 dat 并删除其持久数据
func (n *Node) DeleteDatData(ctx context.Context, address string) error {
	if err := n.check(); err != nil {
		return err
	}
	addr, err := n.Resolve(ctx, address)
	if err != nil {
		return err
	}
	return n.manager.DeleteDatData(ctx, addr.String())
}

// Shutdown 关闭所有未加锁的 dat，节点仍可继续使用
func (n *Node) Shutdown(ctx context.Context) error {
	if err := n.check(); err != nil {
		return err
	}
	return n.manager.Shutdown(ctx)
}

// Resolve 把地址或域名解析为驱动器地址
func (n *Node) Resolve(ctx context.Context, name string) (types.Address, error) {
	if n.resolver == nil {
		return types.ParseAddress(dns.Hostname(name))
	}
	return n.resolver.Resolve(ctx, name)
}

// Subscribe 订阅管理器与网络事件
//
// 事件类型以指针形式传入，如 node.Subscribe(new(types.EvtDatLoaded))。
func (n *Node) Subscribe(eventType interface{}, opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	return n.bus.Subscribe(eventType, opts...)
}

// Manager 返回底层管理器
func (n *Node) Manager() *manager.Manager { return n.manager }

// Handler 返回 dat:// URL 处理器
func (n *Node) Handler() *handler.Handler { return n.handler }

// GatewayAddr 返回网关实际监听地址
func (n *Node) GatewayAddr() (string, error) {
	if n.gateway == nil {
		return "", ErrGatewayDisabled
	}
	return n.gateway.Addr(), nil
}

// IsPersistent 是否配置了数据目录
func (n *Node) IsPersistent() bool { return n.persistent }
