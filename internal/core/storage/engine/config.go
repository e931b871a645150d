package engine

import (
	"os"
	"path/filepath"
	"time"
)

// Config 引擎配置
type Config struct {
	// Path 数据库目录
	Path string

	SyncWrites bool
	ReadOnly   bool

	// InMemory 不落盘，Path 被忽略，用于测试
	InMemory bool

	MemTableSize     int64
	ValueLogFileSize int64
	BlockCacheSize   int64
	NumCompactors    int

	// GCInterval 值日志 GC 周期，0 表示不启动 GC
	GCInterval     time.Duration
	GCDiscardRatio float64
}

// DefaultConfig 返回默认配置
func DefaultConfig(path string) *Config {
	return &Config{
		Path:             path,
		MemTableSize:     16 << 20,
		ValueLogFileSize: 64 << 20,
		BlockCacheSize:   64 << 20,
		NumCompactors:    2,
		GCInterval:       10 * time.Minute,
		GCDiscardRatio:   0.5,
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Path == "" && !c.InMemory {
		return ErrInvalidConfig
	}
	if c.MemTableSize < 1<<20 || c.ValueLogFileSize < 1<<20 {
		return ErrInvalidConfig
	}
	if c.NumCompactors < 2 {
		// badger 要求至少两个压缩线程
		return ErrInvalidConfig
	}
	if c.GCDiscardRatio <= 0 || c.GCDiscardRatio >= 1 {
		c.GCDiscardRatio = 0.5
	}
	return nil
}

// EnsureDir 转为绝对路径并创建目录
func (c *Config) EnsureDir() error {
	if c.InMemory {
		return nil
	}
	abs, err := filepath.Abs(c.Path)
	if err != nil {
		return err
	}
	c.Path = abs
	return os.MkdirAll(c.Path, 0o755)
}
