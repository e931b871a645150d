package testutil

import (
	"context"
	"testing"
	"time"
)

// WaitForCondition 等待条件满足或超时
//
// 参数：
//   - t: 测试对象
//   - timeout: 超时时间
//   - interval: 检查间隔
//   - condition: 条件函数，返回 true 表示条件满足
//
// 返回：条件是否满足（超时返回 false）
func WaitForCondition(t *testing.T, timeout time.Duration, interval time.Duration, condition func() bool) bool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// 立即检查一次
	if condition() {
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if condition() {
				return true
			}
		}
	}
}

// Eventually 在默认时间内重试条件检查，超时则 fail 测试
//
// 示例:
//
//	testutil.Eventually(t, func() bool {
//	    return reader.Len() == 1
//	}, "应该加载 dat")
func Eventually(t *testing.T, condition func() bool, msg string) {
	t.Helper()
	if !WaitForCondition(t, DefaultTimeout, DefaultInterval, condition) {
		t.Fatalf("等待超时: %s", msg)
	}
}

// WaitForEvent 等待通道上的下一个值
func WaitForEvent[T any](t *testing.T, ch <-chan T, msg string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(DefaultTimeout):
		t.Fatalf("等待事件超时: %s", msg)
		var zero T
		return zero
	}
}
