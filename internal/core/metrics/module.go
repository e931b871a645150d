package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-dat/config"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启用指标收集
	Enabled bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled: true,
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled: cfg.Gateway.Metrics,
	}
}

// Params 指标模块依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config       `optional:"true"`
	Registry   *prometheus.Registry `optional:"true"`
}

// Result 指标模块输出
type Result struct {
	fx.Out

	Reporter Reporter
	Gatherer prometheus.Gatherer
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(ProvideReporter),
)

// ProvideReporter 从参数创建 Reporter
func ProvideReporter(p Params) (Result, error) {
	reg := p.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if !ConfigFromUnified(p.UnifiedCfg).Enabled {
		return Result{Reporter: Nop(), Gatherer: reg}, nil
	}
	c, err := NewCollectors(reg)
	if err != nil {
		return Result{}, err
	}
	return Result{Reporter: c, Gatherer: reg}, nil
}
