package dns

import (
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-dat/config"
)

// Module DNS 名称解析模块
var Module = fx.Module("discovery_dns",
	fx.Provide(
		NewFromParams,
	),
)

// Params DNS 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result DNS 导出结果
type Result struct {
	fx.Out

	Resolver *Resolver
}

// ConfigFromUnified 从统一配置创建解析器配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Server:    cfg.DNS.Server,
		Timeout:   time.Duration(cfg.DNS.Timeout),
		CacheSize: cfg.DNS.CacheSize,
		MinTTL:    time.Duration(cfg.DNS.MinTTL),
		MaxTTL:    time.Duration(cfg.DNS.MaxTTL),
	}
}

// NewFromParams 从 Fx 参数创建 Resolver
func NewFromParams(p Params) (Result, error) {
	r, err := NewResolver(ConfigFromUnified(p.UnifiedCfg))
	if err != nil {
		return Result{}, err
	}
	return Result{Resolver: r}, nil
}
