package loader

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-dat/internal/core/storage"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
)

// Params 加载器依赖
type Params struct {
	fx.In

	DriveFactory pkgif.DriveFactory
	SwarmFactory pkgif.SwarmFactory
	Persistent   *storage.Persistent `optional:"true"`
	Bus          pkgif.EventBus      `optional:"true"`
}

// Module 返回加载器 fx 模块
func Module() fx.Option {
	return fx.Module("loader",
		fx.Provide(ProvideLoader),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideLoader 从注入的工厂构造加载器
func ProvideLoader(p Params) (*Loader, error) {
	cfg := Config{
		DriveFactory: p.DriveFactory,
		SwarmFactory: p.SwarmFactory,
		Bus:          p.Bus,
	}
	if p.Persistent != nil {
		cfg.StorageFactory = p.Persistent.Factory
		cfg.StorageDeleter = p.Persistent.Delete
	}
	return New(cfg)
}

func registerLifecycle(lc fx.Lifecycle, l *Loader) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return l.Suspend()
		},
	})
}
