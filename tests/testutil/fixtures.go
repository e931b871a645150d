// Package testutil 提供测试辅助工具
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dat/internal/core/storage"
	"github.com/dep2p/go-dat/internal/core/storage/engine"
	"github.com/dep2p/go-dat/internal/core/storage/engine/badger"
)

// 测试数据固件
//
// 提供测试中常用的常量值，确保测试一致性。

const (
	// DefaultTimeout 等待复制与事件的默认时间
	DefaultTimeout = 3 * time.Second

	// DefaultInterval 轮询间隔
	DefaultInterval = 10 * time.Millisecond

	// IndexHTML 测试站点首页内容
	IndexHTML = "<h1>hello dat</h1>"
)

// NewMemStorage 创建内存 badger 引擎上的持久存储，测试结束时关闭
func NewMemStorage(t *testing.T) *storage.Persistent {
	t.Helper()
	cfg := engine.DefaultConfig("")
	cfg.InMemory = true
	eng, err := badger.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return storage.NewPersistent(eng)
}
