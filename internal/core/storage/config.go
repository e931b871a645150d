package storage

import (
	"time"

	"github.com/dep2p/go-dat/config"
	"github.com/dep2p/go-dat/internal/core/storage/engine"
)

// Config 存储模块配置
type Config struct {
	// Path 数据库目录，为空表示不启用持久化
	Path string

	SyncWrites bool
	GCInterval time.Duration
}

// Enabled 是否启用持久化
func (c Config) Enabled() bool {
	return c.Path != ""
}

// ConfigFromUnified 从统一配置读取
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil || cfg.Storage.DataDir == "" {
		return Config{}
	}
	return Config{
		Path:       cfg.Storage.DBPath(),
		SyncWrites: cfg.Storage.SyncWrites,
		GCInterval: cfg.Storage.GCInterval.Duration(),
	}
}

// EngineConfig 转为引擎配置
func (c Config) EngineConfig() *engine.Config {
	ec := engine.DefaultConfig(c.Path)
	ec.SyncWrites = c.SyncWrites
	if c.GCInterval > 0 {
		ec.GCInterval = c.GCInterval
	}
	return ec
}
