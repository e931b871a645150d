package config

import (
	"fmt"
	"time"
)

// GatewayConfig HTTP 网关配置
type GatewayConfig struct {
	// Enabled 随节点启动网关
	Enabled bool `json:"enabled"`

	// Listen 监听地址
	Listen string `json:"listen"`

	// Timeout 单个请求等待 dat 就绪与文件到达的时间
	Timeout Duration `json:"timeout"`

	// Metrics 在 /metrics 暴露 Prometheus 指标
	Metrics bool `json:"metrics"`
}

// DefaultGatewayConfig 默认网关配置
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Listen:  "127.0.0.1:3282",
		Timeout: Duration(30 * time.Second),
		Metrics: true,
	}
}

// Validate 校验
func (c *GatewayConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("gateway: timeout must be positive")
	}
	return nil
}
