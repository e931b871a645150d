package config

import (
	"fmt"
	"strings"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 级别配置串，格式同 DAT_LOG_LEVEL，如 "manager=debug,info"
	Level string `json:"level"`

	// Format text 或 json
	Format string `json:"format"`
}

// DefaultLogConfig 默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{Format: "text"}
}

// Validate 校验
func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
		return nil
	}
	return fmt.Errorf("log: unknown format %q", c.Format)
}
