package mocks

import (
	"sync"

	"github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/types"
)

// SwarmAddCall Add 调用记录
type SwarmAddCall struct {
	Address types.Address
	Options types.SwarmOptions
}

// MockSwarm 模拟 Swarm 接口实现
//
// 用于测试需要 Swarm 依赖的组件。
type MockSwarm struct {
	mu sync.Mutex

	// 可覆盖的方法
	AddFunc    func(drive interfaces.Drive, opts types.SwarmOptions) error
	RemoveFunc func(drive interfaces.Drive) error
	CloseFunc  func() error

	// 内部状态
	members map[types.Address]struct{}

	// 调用记录
	AddCalls    []SwarmAddCall
	RemoveCalls []types.Address
	CloseCalls  int
}

// NewMockSwarm 创建 MockSwarm
func NewMockSwarm() *MockSwarm {
	return &MockSwarm{members: make(map[types.Address]struct{})}
}

// Add 加入网络
func (m *MockSwarm) Add(drive interfaces.Drive, opts types.SwarmOptions) error {
	if m.AddFunc != nil {
		if err := m.AddFunc(drive, opts); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddCalls = append(m.AddCalls, SwarmAddCall{Address: drive.Key(), Options: opts})
	m.members[drive.Key()] = struct{}{}
	return nil
}

// Remove 离开网络
func (m *MockSwarm) Remove(drive interfaces.Drive) error {
	m.mu.Lock()
	m.RemoveCalls = append(m.RemoveCalls, drive.Key())
	delete(m.members, drive.Key())
	m.mu.Unlock()

	if m.RemoveFunc != nil {
		return m.RemoveFunc(drive)
	}
	return nil
}

// Close 关闭网络
func (m *MockSwarm) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	m.members = make(map[types.Address]struct{})
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Has 是否包含指定驱动器
func (m *MockSwarm) Has(addr types.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.members[addr]
	return ok
}

// Adds 返回 Add 调用次数
func (m *MockSwarm) Adds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.AddCalls)
}

// Removes 返回 Remove 调用次数
func (m *MockSwarm) Removes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RemoveCalls)
}

// Closes 返回 Close 调用次数
func (m *MockSwarm) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseCalls
}

var _ interfaces.Swarm = (*MockSwarm)(nil)
