package storage

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-dat/config"
	"github.com/dep2p/go-dat/internal/core/storage/engine"
	"github.com/dep2p/go-dat/internal/core/storage/engine/badger"
)

// Params 存储模块依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result 存储模块输出
//
// 未配置数据目录时 Engine 与 Persistent 均为 nil，所有 dat 使用内存存储。
type Result struct {
	fx.Out

	Engine     engine.InternalEngine
	Persistent *Persistent
	Config     Config
}

// Module 返回存储 fx 模块
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideStorage),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStorage 按配置打开引擎
func ProvideStorage(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled() {
		logger.Info("未配置数据目录，使用内存存储")
		return Result{Config: cfg}, nil
	}

	eng, err := badger.New(cfg.EngineConfig())
	if err != nil {
		logger.Error("创建存储引擎失败", "path", cfg.Path, "error", err)
		return Result{}, err
	}
	return Result{
		Engine:     eng,
		Persistent: NewPersistent(eng),
		Config:     cfg,
	}, nil
}

func registerLifecycle(lc fx.Lifecycle, eng engine.InternalEngine) {
	if eng == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("正在启动存储引擎")
			return eng.Start()
		},
		OnStop: func(_ context.Context) error {
			logger.Info("正在关闭存储引擎")
			if err := eng.Close(); err != nil {
				logger.Warn("存储引擎关闭失败", "error", err)
				return err
			}
			return nil
		},
	})
}
