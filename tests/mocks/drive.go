package mocks

import (
	"context"
	"sync"

	"github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/types"
)

// MockDrive 模拟 Drive 接口实现
type MockDrive struct {
	mu sync.Mutex

	// 基本属性
	KeyValue      types.Address
	WritableValue bool
	Meta          *MockFeed

	// 可覆盖的方法
	ReadyFunc func(ctx context.Context) error
	CloseFunc func() error

	// 调用记录
	ReadyCalls int
	CloseCalls int
}

// NewMockDrive 创建带有默认值的 MockDrive
func NewMockDrive(addr types.Address, writable bool) *MockDrive {
	return &MockDrive{
		KeyValue:      addr,
		WritableValue: writable,
		Meta:          NewMockFeed(0),
	}
}

// Key 返回驱动器地址
func (m *MockDrive) Key() types.Address { return m.KeyValue }

// DiscoveryKey 返回发现键
func (m *MockDrive) DiscoveryKey() types.DiscoveryKey { return m.KeyValue.DiscoveryKey() }

// Ready 等待就绪
func (m *MockDrive) Ready(ctx context.Context) error {
	m.mu.Lock()
	m.ReadyCalls++
	m.mu.Unlock()

	if m.ReadyFunc != nil {
		return m.ReadyFunc(ctx)
	}
	return nil
}

// Writable 是否可写
func (m *MockDrive) Writable() bool { return m.WritableValue }

// Metadata 返回元数据 Feed
func (m *MockDrive) Metadata() interfaces.Feed { return m.Meta }

// Close 关闭驱动器
func (m *MockDrive) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Closed 返回 Close 调用次数
func (m *MockDrive) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseCalls
}

// DownloadCall Download 调用记录
type DownloadCall struct {
	Start, End int64
}

// MockFeed 模拟 Feed 接口实现
type MockFeed struct {
	mu      sync.Mutex
	length  uint64
	updated chan struct{}

	// 可覆盖的方法
	UpdateFunc   func(ctx context.Context) error
	DownloadFunc func(start, end int64) error

	// 调用记录
	DownloadCalls []DownloadCall
}

// NewMockFeed 创建指定长度的 MockFeed
func NewMockFeed(length uint64) *MockFeed {
	return &MockFeed{length: length, updated: make(chan struct{})}
}

// Length 当前长度
func (m *MockFeed) Length() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.length
}

// Grow 增加长度并唤醒等待中的 Update
func (m *MockFeed) Grow(n uint64) {
	m.mu.Lock()
	m.length += n
	close(m.updated)
	m.updated = make(chan struct{})
	m.mu.Unlock()
}

// Update 阻塞直到 Grow 被调用或 ctx 取消
func (m *MockFeed) Update(ctx context.Context) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx)
	}
	m.mu.Lock()
	ch := m.updated
	m.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Download 记录下载请求
func (m *MockFeed) Download(start, end int64) error {
	m.mu.Lock()
	m.DownloadCalls = append(m.DownloadCalls, DownloadCall{Start: start, End: end})
	m.mu.Unlock()

	if m.DownloadFunc != nil {
		return m.DownloadFunc(start, end)
	}
	return nil
}

// Downloads 返回下载请求的副本
func (m *MockFeed) Downloads() []DownloadCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DownloadCall(nil), m.DownloadCalls...)
}

var (
	_ interfaces.Drive = (*MockDrive)(nil)
	_ interfaces.Feed  = (*MockFeed)(nil)
)
