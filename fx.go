package dat

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-dat/internal/core/eventbus"
	"github.com/dep2p/go-dat/internal/core/loader"
	"github.com/dep2p/go-dat/internal/core/manager"
	"github.com/dep2p/go-dat/internal/core/metrics"
	"github.com/dep2p/go-dat/internal/core/storage"
	"github.com/dep2p/go-dat/internal/core/swarm"
	"github.com/dep2p/go-dat/internal/discovery/dns"
	"github.com/dep2p/go-dat/internal/drive/logdrive"
	"github.com/dep2p/go-dat/internal/protocol/handler"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. EventBus → Storage → Metrics
//  2. Loader → Manager
//  3. DNS → Handler（网关按配置启动）
//
// 停止时逆序执行：先关闭网关，再由 Manager 关闭所有 dat，
// 随后 Loader 关闭网络，最后关闭存储引擎。
func buildFxApp(cfg *nodeConfig, node *Node) (*fx.App, error) {
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		// 配置注入
		fx.Supply(cfg.config),

		// 能力
		fx.Provide(provideDriveFactory(cfg)),
		fx.Provide(provideSwarmFactory(cfg)),

		// 基础组件
		eventbus.Module(),
		storage.Module(),
		metrics.Module,

		// 加载器必须先于管理器注册，其 OnStop 在管理器之后执行
		loader.Module(),
		manager.Module(),

		// 名称解析与协议处理
		dns.Module,
		handler.Module(),
	}
	if cfg.registry != nil {
		modules = append(modules, fx.Supply(cfg.registry))
	}

	// 用户扩展
	if len(cfg.userFxOptions) > 0 {
		modules = append(modules, cfg.userFxOptions...)
	}

	modules = append(modules,
		fx.Invoke(injectNodeComponents(node)),

		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}

func provideDriveFactory(cfg *nodeConfig) func() pkgif.DriveFactory {
	return func() pkgif.DriveFactory {
		if cfg.driveFactory != nil {
			return cfg.driveFactory
		}
		return logdrive.Factory
	}
}

// provideSwarmFactory 默认每个 Loader 在进程内网络上创建一个 Swarm
//
// 配置禁用网络时使用私有网络，dat 不会与其他节点复制。
func provideSwarmFactory(cfg *nodeConfig) func(bus pkgif.EventBus) pkgif.SwarmFactory {
	return func(bus pkgif.EventBus) pkgif.SwarmFactory {
		if cfg.swarmFactory != nil {
			return cfg.swarmFactory
		}
		opts := []swarm.Option{swarm.WithEventBus(bus)}
		if cfg.network != nil && !cfg.config.Swarm.Disabled {
			opts = append(opts, swarm.WithNetwork(cfg.network))
		}
		return swarm.Factory(cfg.config.Swarm.PeerID, opts...)
	}
}

// nodeInjectParams Node 组件注入参数
type nodeInjectParams struct {
	fx.In

	Manager  *manager.Manager
	Bus      pkgif.EventBus
	Handler  *handler.Handler
	Resolver *dns.Resolver   `optional:"true"`
	Gateway  *handler.Server `optional:"true"`
	Storage  storage.Config
}

// injectNodeComponents 把 Fx 构造的组件注入 Node
func injectNodeComponents(node *Node) func(nodeInjectParams) {
	return func(p nodeInjectParams) {
		node.manager = p.Manager
		node.bus = p.Bus
		node.handler = p.Handler
		node.resolver = p.Resolver
		node.gateway = p.Gateway
		node.persistent = p.Storage.Enabled()
	}
}
