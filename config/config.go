// Package config 提供 go-dat 的统一配置
//
// 每个子配置在独立文件中定义，支持 JSON 读写，
// 命令行通过 Load 从配置文件、.env 文件与 DAT_ 前缀的环境变量加载。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Storage.DataDir = "./data"
//	cfg.Defaults.Persist = types.Bool(true)
//
//	cfg, err := config.FromJSON(data)
package config

import (
	"encoding/json"
	"fmt"

	"github.com/dep2p/go-dat/pkg/types"
)

// Config go-dat 完整配置
type Config struct {
	// Storage 持久化存储，DataDir 为空时所有 dat 保存在内存中
	Storage StorageConfig `json:"storage"`

	// Defaults Manager 的实例级默认选项，位于库默认值之上
	Defaults types.DatOptions `json:"defaults"`

	// Swarm 网络
	Swarm SwarmConfig `json:"swarm"`

	// Gateway HTTP 网关
	Gateway GatewayConfig `json:"gateway"`

	// DNS 名称解析
	DNS DNSConfig `json:"dns"`

	// Log 日志
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Storage: DefaultStorageConfig(),
		Swarm:   DefaultSwarmConfig(),
		Gateway: DefaultGatewayConfig(),
		DNS:     DefaultDNSConfig(),
		Log:     DefaultLogConfig(),
	}
}

// Validate 校验全部子配置
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	validators := []interface{ Validate() error }{
		&c.Storage, &c.Swarm, &c.Gateway, &c.DNS, &c.Log,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FromJSON 从 JSON 解析，缺失字段取默认值
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToJSON 序列化为缩进 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
