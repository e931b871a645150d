// Package log 提供按子系统划分的结构化日志
//
// 基于标准库 log/slog，每个子系统一个 Logger，日志中带 subsystem 属性。
//
// 使用示例:
//
//	var logger = log.Logger("core/manager")
//
//	logger.Info("已加载 dat", "address", addr)
//	logger.Debug("加入网络", "address", addr, "announce", true)
//
// 环境变量:
//
//	DAT_LOG_LEVEL=manager=debug,warn   # manager 为 debug，其余 warn
//	DAT_LOG_FORMAT=json                # JSON 输出
//	DAT_LOG_ADD_SOURCE=true            # 附带源码位置
package log

import (
	"io"
	"log/slog"
	"sync"
)

var (
	mu       sync.Mutex
	loggers  = make(map[string]*slog.Logger)
	handlers = make(map[string]*levelHandler)
)

// Logger 返回子系统的 Logger
//
// 同一子系统多次调用返回同一实例。
func Logger(subsystem string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[subsystem]; ok {
		return l
	}
	h := newLevelHandler(subsystem, current())
	l := slog.New(h)
	loggers[subsystem] = l
	handlers[subsystem] = h
	return l
}

// SetLevel 运行时调整子系统级别
func SetLevel(subsystem string, lvl slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	if h, ok := handlers[subsystem]; ok {
		h.level.Set(lvl)
	}
}

// Configure 应用级别配置串（格式同 DAT_LOG_LEVEL）
//
// 已创建的 Logger 会按新配置重新计算级别。
func Configure(levels string) {
	s := current()

	settingsMu.Lock()
	next := &Settings{
		DefaultLevel: s.DefaultLevel,
		Levels:       make(map[string]slog.Level, len(s.Levels)),
		Format:       s.Format,
		AddSource:    s.AddSource,
	}
	for k, v := range s.Levels {
		next.Levels[k] = v
	}
	ParseLevels(next, levels)
	settings = next
	settingsMu.Unlock()

	mu.Lock()
	defer mu.Unlock()
	for name, h := range handlers {
		h.level.Set(next.LevelFor(name))
	}
}

// SetOutput 重定向所有 Logger 的输出
func SetOutput(w io.Writer) {
	outputMu.Lock()
	output = w
	outputMu.Unlock()
}

// Discard 返回丢弃所有输出的 Logger，用于测试
func Discard() *slog.Logger {
	return slog.New(discard{})
}
