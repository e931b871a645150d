package manager

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-dat/config"
	"github.com/dep2p/go-dat/internal/core/loader"
	"github.com/dep2p/go-dat/internal/core/metrics"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
)

// Params 管理器依赖
type Params struct {
	fx.In

	Loader     *loader.Loader
	UnifiedCfg *config.Config   `optional:"true"`
	Bus        pkgif.EventBus   `optional:"true"`
	Reporter   metrics.Reporter `optional:"true"`
}

// Module 返回管理器 fx 模块
func Module() fx.Option {
	return fx.Module("manager",
		fx.Provide(ProvideManager),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideManager 构造管理器
func ProvideManager(p Params) *Manager {
	cfg := Config{
		Bus:      p.Bus,
		Reporter: p.Reporter,
	}
	if p.UnifiedCfg != nil {
		cfg.Defaults = p.UnifiedCfg.Defaults
	}
	return New(p.Loader, cfg)
}

func registerLifecycle(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return multierr.Append(m.Stop(ctx), m.Close())
		},
	})
}
