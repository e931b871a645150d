package config

import (
	"fmt"
	"time"
)

// DNSConfig dat 名称解析配置
type DNSConfig struct {
	// Server DNS 服务器，host:port；为空时读取 /etc/resolv.conf
	Server string `json:"server"`

	// CacheSize 名称缓存条目数
	CacheSize int `json:"cache_size"`

	// MinTTL 与 MaxTTL 限定缓存时间
	MinTTL Duration `json:"min_ttl"`
	MaxTTL Duration `json:"max_ttl"`

	// Timeout 单次查询超时
	Timeout Duration `json:"timeout"`
}

// DefaultDNSConfig 默认 DNS 配置
func DefaultDNSConfig() DNSConfig {
	return DNSConfig{
		CacheSize: 256,
		MinTTL:    Duration(30 * time.Second),
		MaxTTL:    Duration(time.Hour),
		Timeout:   Duration(5 * time.Second),
	}
}

// Validate 校验
func (c *DNSConfig) Validate() error {
	if c.CacheSize <= 0 {
		return fmt.Errorf("dns: cache_size must be positive")
	}
	if c.MinTTL > c.MaxTTL {
		return fmt.Errorf("dns: min_ttl greater than max_ttl")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("dns: timeout must be positive")
	}
	return nil
}
