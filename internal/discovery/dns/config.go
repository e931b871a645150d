package dns

import (
	"errors"
	"time"
)

// ============================================================================
//                              配置定义
// ============================================================================

// Config 解析器配置
type Config struct {
	// Server DNS 服务器（格式: "ip:port"），为空时读取 /etc/resolv.conf
	Server string

	// Timeout 单次查询超时
	Timeout time.Duration

	// CacheSize 名称缓存条目数
	CacheSize int

	// MinTTL 与 MaxTTL 限定记录的缓存时间
	MinTTL time.Duration
	MaxTTL time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Server:    "",
		Timeout:   5 * time.Second,
		CacheSize: 256,
		MinTTL:    30 * time.Second,
		MaxTTL:    time.Hour,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.CacheSize <= 0 {
		return errors.New("cache size must be positive")
	}
	if c.MinTTL < 0 {
		return errors.New("min TTL must be non-negative")
	}
	if c.MaxTTL < c.MinTTL {
		return errors.New("max TTL must not be less than min TTL")
	}
	return nil
}
