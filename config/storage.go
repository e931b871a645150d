package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// StorageConfig 存储配置
//
// 数据目录结构：
//
//	${DataDir}/
//	└── dat.db/     BadgerDB，每个 dat 位于 dat/<hex>/ 前缀下
type StorageConfig struct {
	// DataDir 数据目录，为空表示不持久化
	DataDir string `json:"data_dir"`

	// SyncWrites 每次写入都同步落盘
	SyncWrites bool `json:"sync_writes"`

	// GCInterval 值日志 GC 周期
	GCInterval Duration `json:"gc_interval"`
}

// DefaultStorageConfig 默认存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		GCInterval: Duration(10 * time.Minute),
	}
}

// Validate 校验
func (c *StorageConfig) Validate() error {
	if c.GCInterval < 0 {
		return fmt.Errorf("storage: gc_interval must not be negative")
	}
	return nil
}

// DBPath BadgerDB 目录
func (c *StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "dat.db")
}
