package swarm

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/types"
)

// Network 进程内集线器，按发现密钥组织成员
type Network struct {
	topics *xsync.MapOf[types.DiscoveryKey, *topic]
}

// NewNetwork 创建集线器
func NewNetwork() *Network {
	return &Network{topics: xsync.NewMapOf[types.DiscoveryKey, *topic]()}
}

// Topics 当前活跃的发现密钥数
func (n *Network) Topics() int { return n.topics.Size() }

type topic struct {
	members map[*member]struct{}
}

// member 一个驱动器在某个 Swarm 中的成员关系
type member struct {
	swarm *Swarm
	drive pkgif.Replicator
	dk    types.DiscoveryKey
	opts  types.ResolvedSwarmOptions

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	left  bool
	peers map[*member]struct{}
}

// join 加入主题并返回已有成员
func (n *Network) join(m *member) []*member {
	var peers []*member
	n.topics.Compute(m.dk, func(t *topic, loaded bool) (*topic, bool) {
		if !loaded {
			t = &topic{members: make(map[*member]struct{})}
		}
		for p := range t.members {
			peers = append(peers, p)
		}
		t.members[m] = struct{}{}
		return t, false
	})
	return peers
}

// leave 离开主题，主题为空时移除
func (n *Network) leave(m *member) {
	n.topics.Compute(m.dk, func(t *topic, loaded bool) (*topic, bool) {
		if !loaded {
			return t, true
		}
		delete(t.members, m)
		return t, len(t.members) == 0
	})
}

// connect 按选项在两个成员之间建立连接
func connect(a, b *member) {
	if a.swarm == b.swarm {
		return
	}
	if !(a.opts.Announce && b.opts.Lookup) && !(b.opts.Announce && a.opts.Lookup) {
		return
	}
	if !a.attach(b) {
		return
	}
	if !b.attach(a) {
		a.detach(b)
		return
	}

	ctx, cancel := context.WithCancel(a.ctx)
	stop := context.AfterFunc(b.ctx, cancel)
	var wg sync.WaitGroup
	if a.opts.Upload && b.opts.Download {
		wg.Add(1)
		go func() { defer wg.Done(); pump(ctx, a.drive, b.drive) }()
	}
	if b.opts.Upload && a.opts.Download {
		wg.Add(1)
		go func() { defer wg.Done(); pump(ctx, b.drive, a.drive) }()
	}
	go func() {
		wg.Wait()
		stop()
		cancel()
	}()

	a.swarm.peerConnected(a.dk, b.swarm.localPeer)
	b.swarm.peerConnected(b.dk, a.swarm.localPeer)
}

// attach 记录对端，成员已离开时返回 false
func (m *member) attach(p *member) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.left {
		return false
	}
	m.peers[p] = struct{}{}
	return true
}

func (m *member) detach(p *member) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.peers[p]
	delete(m.peers, p)
	return ok
}

// disconnect 停止复制并通知所有对端
func (m *member) disconnect() {
	m.mu.Lock()
	m.left = true
	peers := m.peers
	m.peers = make(map[*member]struct{})
	m.mu.Unlock()

	m.cancel()
	for p := range peers {
		if p.detach(m) {
			p.swarm.peerDisconnected(p.dk, m.swarm.localPeer)
		}
		m.swarm.peerDisconnected(m.dk, p.swarm.localPeer)
	}
}

// pump 把 src 的新块复制到 dst
func pump(ctx context.Context, src, dst pkgif.Replicator) {
	select {
	case <-dst.Wanted():
	case <-ctx.Done():
		return
	}

	for ctx.Err() == nil {
		updated := src.Updated()
		have, avail := dst.Metadata().Length(), src.Metadata().Length()
		if avail > have {
			blocks, err := src.Blocks(have, avail)
			if err != nil {
				logger.Debug("读取块失败", "address", src.Key().ShortString(), "error", err)
				return
			}
			if err := dst.Append(blocks...); err != nil {
				logger.Debug("追加块失败", "address", dst.Key().ShortString(), "error", err)
				return
			}
			continue
		}
		select {
		case <-updated:
		case <-ctx.Done():
			return
		}
	}
}
