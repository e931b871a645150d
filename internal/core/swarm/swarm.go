package swarm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/lib/log"
	"github.com/dep2p/go-dat/pkg/types"
)

var logger = log.Logger("core/swarm")

// Option Swarm 选项
type Option func(*Swarm) error

// WithNetwork 加入指定集线器，默认使用私有集线器（无对端）
func WithNetwork(n *Network) Option {
	return func(s *Swarm) error {
		if n == nil {
			return fmt.Errorf("network cannot be nil")
		}
		s.net = n
		return nil
	}
}

// WithEventBus 在总线上发布对端事件
func WithEventBus(bus pkgif.EventBus) Option {
	return func(s *Swarm) error {
		s.eventbus = bus
		return nil
	}
}

// Swarm 一个节点在集线器中的存在
type Swarm struct {
	mu sync.Mutex

	// 本地节点 ID
	localPeer string

	net     *Network
	members map[types.Address]*member

	// 依赖（可选）
	eventbus     pkgif.EventBus
	connected    pkgif.Emitter
	disconnected pkgif.Emitter

	// 状态
	closed atomic.Bool
}

var _ pkgif.Swarm = (*Swarm)(nil)

// NewSwarm 创建 Swarm，localPeer 为空时生成随机 ID
func NewSwarm(localPeer string, opts ...Option) (*Swarm, error) {
	if localPeer == "" {
		localPeer = uuid.NewString()
	}
	s := &Swarm{
		localPeer: localPeer,
		members:   make(map[types.Address]*member),
	}

	// 应用选项
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.net == nil {
		s.net = NewNetwork()
	}
	if s.eventbus != nil {
		var err error
		if s.connected, err = s.eventbus.Emitter(new(types.EvtPeerConnected)); err != nil {
			return nil, err
		}
		if s.disconnected, err = s.eventbus.Emitter(new(types.EvtPeerDisconnected)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Factory 返回 interfaces.SwarmFactory，每次调用创建新 Swarm
func Factory(localPeer string, opts ...Option) pkgif.SwarmFactory {
	return func() (pkgif.Swarm, error) {
		return NewSwarm(localPeer, opts...)
	}
}

// LocalPeer 返回本地节点 ID
func (s *Swarm) LocalPeer() string {
	return s.localPeer
}

// Drives 返回当前加入的驱动器地址
func (s *Swarm) Drives() []types.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Address, 0, len(s.members))
	for addr := range s.members {
		out = append(out, addr)
	}
	return out
}

// Peers 返回驱动器当前连接的对端 ID
func (s *Swarm) Peers(addr types.Address) []string {
	s.mu.Lock()
	m, ok := s.members[addr]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.peers))
	for p := range m.peers {
		out = append(out, p.swarm.localPeer)
	}
	return out
}

// Add 实现 interfaces.Swarm
//
// 已加入的驱动器不会重复加入。
func (s *Swarm) Add(drive pkgif.Drive, opts types.SwarmOptions) error {
	if s.closed.Load() {
		return ErrSwarmClosed
	}
	r, ok := drive.(pkgif.Replicator)
	if !ok {
		return ErrNotReplicator
	}

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return ErrSwarmClosed
	}
	if _, exists := s.members[drive.Key()]; exists {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &member{
		swarm:  s,
		drive:  r,
		dk:     drive.DiscoveryKey(),
		opts:   opts.Resolve(),
		ctx:    ctx,
		cancel: cancel,
		peers:  make(map[*member]struct{}),
	}
	s.members[drive.Key()] = m
	s.mu.Unlock()

	peers := s.net.join(m)
	for _, p := range peers {
		connect(m, p)
	}

	logger.Debug("驱动器已加入网络",
		"peer", s.localPeer,
		"address", drive.Key().ShortString(),
		"candidates", len(peers))
	return nil
}

// Remove 实现 interfaces.Swarm
func (s *Swarm) Remove(drive pkgif.Drive) error {
	s.mu.Lock()
	m, ok := s.members[drive.Key()]
	delete(s.members, drive.Key())
	s.mu.Unlock()

	if !ok {
		return nil
	}
	s.drop(m)
	logger.Debug("驱动器已离开网络", "peer", s.localPeer, "address", drive.Key().ShortString())
	return nil
}

func (s *Swarm) drop(m *member) {
	s.net.leave(m)
	m.disconnect()
}

// Close 移除所有驱动器，之后 Add 返回 ErrSwarmClosed
func (s *Swarm) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.mu.Lock()
	members := s.members
	s.members = make(map[types.Address]*member)
	s.mu.Unlock()

	for _, m := range members {
		s.drop(m)
	}
	if s.connected != nil {
		_ = s.connected.Close()
		_ = s.disconnected.Close()
	}
	logger.Debug("网络已关闭", "peer", s.localPeer, "drives", len(members))
	return nil
}

func (s *Swarm) peerConnected(dk types.DiscoveryKey, remote string) {
	logger.Debug("对端已连接", "peer", s.localPeer, "remote", remote, "topic", dk.String()[:8])
	if s.connected != nil {
		_ = s.connected.Emit(types.EvtPeerConnected{Topic: dk, Local: s.localPeer, Remote: remote})
	}
}

func (s *Swarm) peerDisconnected(dk types.DiscoveryKey, remote string) {
	logger.Debug("对端已断开", "peer", s.localPeer, "remote", remote, "topic", dk.String()[:8])
	if s.disconnected != nil {
		_ = s.disconnected.Emit(types.EvtPeerDisconnected{Topic: dk, Local: s.localPeer, Remote: remote})
	}
}
