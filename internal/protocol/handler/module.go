package handler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-dat/config"
	"github.com/dep2p/go-dat/internal/core/manager"
	"github.com/dep2p/go-dat/internal/discovery/dns"
)

// Module 返回处理器与网关 Fx 模块
func Module() fx.Option {
	return fx.Module("protocol_handler",
		fx.Provide(NewFromParams),
		fx.Invoke(registerLifecycle),
	)
}

// Params 处理器依赖参数
type Params struct {
	fx.In

	Manager    *manager.Manager
	Resolver   *dns.Resolver       `optional:"true"`
	UnifiedCfg *config.Config      `optional:"true"`
	Gatherer   prometheus.Gatherer `optional:"true"`
}

// Output 处理器输出
type Output struct {
	fx.Out

	Handler *Handler
	Server  *Server `optional:"true"`
}

// NewFromParams 从参数创建处理器，网关启用时同时创建服务
func NewFromParams(p Params) Output {
	cfg := Config{}
	if p.UnifiedCfg != nil {
		cfg.Timeout = time.Duration(p.UnifiedCfg.Gateway.Timeout)
	}

	// 未配置解析器时只接受十六进制地址
	var resolver NameResolver
	if p.Resolver != nil {
		resolver = p.Resolver
	}
	h := New(p.Manager, resolver, cfg)

	if p.UnifiedCfg == nil || !p.UnifiedCfg.Gateway.Enabled {
		return Output{Handler: h}
	}
	scfg := ServerConfig{Addr: p.UnifiedCfg.Gateway.Listen}
	if p.UnifiedCfg.Gateway.Metrics {
		scfg.Gatherer = p.Gatherer
	}
	return Output{Handler: h, Server: NewServer(h, scfg)}
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, server *Server) {
	if server == nil {
		return // 禁用时跳过
	}
	lc.Append(fx.Hook{
		OnStart: server.Start,
		OnStop:  server.Stop,
	})
}
