package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })
	return buf
}

func TestLogger_SubsystemAttr(t *testing.T) {
	buf := captureOutput(t)

	Logger("test/attr").Info("已启动", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "已启动")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "subsystem=test/attr")
}

func TestLogger_Cached(t *testing.T) {
	assert.Same(t, Logger("test/cached"), Logger("test/cached"))
}

func TestSetOutput_ExistingLogger(t *testing.T) {
	l := Logger("test/existing")
	buf := captureOutput(t)

	l.Warn("切换之后")
	assert.Contains(t, buf.String(), "切换之后")
}

func TestSetLevel(t *testing.T) {
	buf := captureOutput(t)
	l := Logger("test/level")

	SetLevel("test/level", slog.LevelError)
	l.Warn("不应出现")
	assert.NotContains(t, buf.String(), "不应出现")

	SetLevel("test/level", slog.LevelDebug)
	l.Debug("应出现")
	assert.Contains(t, buf.String(), "应出现")
}

func TestParseLevels(t *testing.T) {
	s := &Settings{DefaultLevel: slog.LevelInfo}
	ParseLevels(s, "manager=debug, core/loader=error ,warn,bogus=nope")

	assert.Equal(t, slog.LevelWarn, s.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, s.LevelFor("core/manager"))
	assert.Equal(t, slog.LevelError, s.LevelFor("core/loader"))
	assert.Equal(t, slog.LevelWarn, s.LevelFor("core/storage"))
	_, ok := s.Levels["bogus"]
	assert.False(t, ok)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat("xml"))
}

func TestConfigure_UpdatesExisting(t *testing.T) {
	buf := captureOutput(t)
	l := Logger("test/configure")

	Configure("configure=error")
	l.Info("被过滤")
	assert.NotContains(t, buf.String(), "被过滤")

	Configure("configure=debug")
	l.Debug("已放行")
	require.Contains(t, buf.String(), "已放行")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
