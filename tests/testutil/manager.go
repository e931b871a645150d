package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dat/internal/core/eventbus"
	"github.com/dep2p/go-dat/internal/core/loader"
	"github.com/dep2p/go-dat/internal/core/manager"
	"github.com/dep2p/go-dat/internal/core/storage"
	"github.com/dep2p/go-dat/internal/core/swarm"
	"github.com/dep2p/go-dat/internal/drive/logdrive"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/types"
)

// TestManagerBuilder 测试管理器构建器
//
// 构建的管理器使用 logdrive 驱动器与进程内网络，
// 同一 Network 上的多个管理器之间可以复制。
//
// 示例:
//
//	net := swarm.NewNetwork()
//	owner := testutil.NewTestManager(t).WithNetwork(net).WithPeer("owner").Build()
//	reader := testutil.NewTestManager(t).WithNetwork(net).Build()
type TestManagerBuilder struct {
	t        *testing.T
	net      *swarm.Network
	peer     string
	bus      pkgif.EventBus
	defaults types.DatOptions
	storage  *storage.Persistent
}

// NewTestManager 创建测试管理器构建器
//
// 默认配置:
//   - network: 私有网络（无对端）
//   - peer: 随机
//   - bus: 新建事件总线
func NewTestManager(t *testing.T) *TestManagerBuilder {
	t.Helper()
	return &TestManagerBuilder{t: t}
}

// WithNetwork 设置共享网络
func (b *TestManagerBuilder) WithNetwork(net *swarm.Network) *TestManagerBuilder {
	b.net = net
	return b
}

// WithPeer 设置本地对端名称
func (b *TestManagerBuilder) WithPeer(peer string) *TestManagerBuilder {
	b.peer = peer
	return b
}

// WithBus 设置事件总线
func (b *TestManagerBuilder) WithBus(bus pkgif.EventBus) *TestManagerBuilder {
	b.bus = bus
	return b
}

// WithDefaults 设置实例默认选项
func (b *TestManagerBuilder) WithDefaults(d types.DatOptions) *TestManagerBuilder {
	b.defaults = d
	return b
}

// WithStorage 设置持久存储，persist 选项由此生效
func (b *TestManagerBuilder) WithStorage(p *storage.Persistent) *TestManagerBuilder {
	b.storage = p
	return b
}

// Build 构建管理器，测试结束时自动关闭
func (b *TestManagerBuilder) Build() *manager.Manager {
	b.t.Helper()

	if b.net == nil {
		b.net = swarm.NewNetwork()
	}
	if b.bus == nil {
		b.bus = eventbus.NewBus()
	}

	cfg := loader.Config{
		DriveFactory: logdrive.Factory,
		SwarmFactory: swarm.Factory(b.peer, swarm.WithNetwork(b.net), swarm.WithEventBus(b.bus)),
		Bus:          b.bus,
	}
	if b.storage != nil {
		cfg.StorageFactory = b.storage.Factory
		cfg.StorageDeleter = b.storage.Delete
	}
	l, err := loader.New(cfg)
	require.NoError(b.t, err)

	m := manager.New(l, manager.Config{Defaults: b.defaults, Bus: b.bus})
	b.t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
		_ = m.Close()
	})
	return m
}
