package log

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 环境变量名
const (
	EnvLevel     = "DAT_LOG_LEVEL"
	EnvFormat    = "DAT_LOG_FORMAT"
	EnvAddSource = "DAT_LOG_ADD_SOURCE"
)

// Format 日志输出格式
type Format int

const (
	// FormatText 文本格式（默认）
	FormatText Format = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Settings 日志设置
type Settings struct {
	// DefaultLevel 未单独配置的子系统使用的级别
	DefaultLevel slog.Level

	// Levels 按子系统覆盖的级别，键为子系统名或其最后一段
	Levels map[string]slog.Level

	Format    Format
	AddSource bool
}

// LevelFor 返回子系统的日志级别
//
// 先按完整名称查找（如 core/manager），再按最后一段查找（如 manager）。
func (s *Settings) LevelFor(subsystem string) slog.Level {
	if lvl, ok := s.Levels[subsystem]; ok {
		return lvl
	}
	if i := strings.LastIndex(subsystem, "/"); i >= 0 {
		if lvl, ok := s.Levels[subsystem[i+1:]]; ok {
			return lvl
		}
	}
	return s.DefaultLevel
}

var (
	settingsMu sync.RWMutex
	settings   *Settings
)

// current 返回当前设置，首次调用时从环境变量解析
func current() *Settings {
	settingsMu.RLock()
	s := settings
	settingsMu.RUnlock()
	if s != nil {
		return s
	}

	settingsMu.Lock()
	defer settingsMu.Unlock()
	if settings == nil {
		settings = fromEnv()
	}
	return settings
}

func fromEnv() *Settings {
	s := &Settings{
		DefaultLevel: slog.LevelInfo,
		Levels:       make(map[string]slog.Level),
		Format:       FormatText,
	}
	if v := os.Getenv(EnvLevel); v != "" {
		ParseLevels(s, v)
	}
	if v := os.Getenv(EnvFormat); v != "" {
		s.Format = ParseFormat(v)
	}
	if v := os.Getenv(EnvAddSource); v != "" {
		s.AddSource = v != "false" && v != "0"
	}
	return s
}

// ParseLevels 解析级别配置串
//
// 格式: 子系统=级别,子系统=级别,默认级别
// 示例: manager=debug,loader=warn,info
func ParseLevels(s *Settings, spec string) {
	if s.Levels == nil {
		s.Levels = make(map[string]slog.Level)
	}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, lvlName, hasName := strings.Cut(part, "=")
		if !hasName {
			if lvl, ok := ParseLevel(part); ok {
				s.DefaultLevel = lvl
			}
			continue
		}
		if lvl, ok := ParseLevel(strings.TrimSpace(lvlName)); ok {
			s.Levels[strings.TrimSpace(name)] = lvl
		}
	}
}

// ParseLevel 解析单个级别名称
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// ParseFormat 解析输出格式，未知值按文本处理
func ParseFormat(name string) Format {
	if strings.EqualFold(name, "json") {
		return FormatJSON
	}
	return FormatText
}
