package dat

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"

	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/lib/log"
	"github.com/dep2p/go-dat/pkg/types"
)

var logger = log.Logger("core/dat")

// Options 句柄选项
type Options struct {
	// Persisted 驱动器是否使用持久存储
	Persisted bool

	// Bus 事件总线，为 nil 时只分发回调
	Bus pkgif.EventBus
}

// Handle 驱动器句柄
type Handle struct {
	drive     pkgif.Drive
	swarm     pkgif.Swarm
	addr      types.Address
	persisted bool

	// opMu 串行化状态转换，事件在释放后分发
	opMu sync.Mutex

	mu        sync.Mutex
	open      bool
	swarming  bool
	locks     map[string]struct{}
	listeners map[types.HandleEvent][]listener
	nextID    uint64

	readyC      chan struct{}
	readyErr    error
	stopReady   context.CancelFunc
	readyCtx    context.Context
	closedC     chan struct{}
	busEmitters map[types.HandleEvent]pkgif.Emitter
}

type listener struct {
	id uint64
	fn func()
}

var _ types.DatRef = (*Handle)(nil)

// New 包装一个已就绪的驱动器
//
// 只读且元数据为空的驱动器在第一次元数据更新后才算就绪，
// 其余情况立即就绪。swarm 为借用，Handle 不会关闭它。
func New(drive pkgif.Drive, swarm pkgif.Swarm, opts Options) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		drive:     drive,
		swarm:     swarm,
		addr:      drive.Key(),
		persisted: opts.Persisted,
		open:      true,
		locks:     make(map[string]struct{}),
		listeners: make(map[types.HandleEvent][]listener),
		readyC:    make(chan struct{}),
		readyCtx:  ctx,
		stopReady: cancel,
		closedC:   make(chan struct{}),
	}
	h.busEmitters = newBusEmitters(opts.Bus)

	if !drive.Writable() && drive.Metadata().Length() == 0 {
		go h.awaitFirstUpdate()
	} else {
		close(h.readyC)
	}
	return h
}

func newBusEmitters(bus pkgif.EventBus) map[types.HandleEvent]pkgif.Emitter {
	if bus == nil {
		return nil
	}
	out := make(map[types.HandleEvent]pkgif.Emitter, 3)
	for evt, typ := range map[types.HandleEvent]interface{}{
		types.EventJoin:  new(types.EvtSwarmJoined),
		types.EventLeave: new(types.EvtSwarmLeft),
		types.EventClose: new(types.EvtHandleClosed),
	} {
		em, err := bus.Emitter(typ)
		if err != nil {
			logger.Warn("创建事件发射器失败", "event", evt.String(), "error", err)
			continue
		}
		out[evt] = em
	}
	return out
}

func (h *Handle) awaitFirstUpdate() {
	err := h.drive.Metadata().Update(h.readyCtx)
	if err != nil && h.readyCtx.Err() != nil {
		err = ErrClosed
	}
	h.readyErr = err
	close(h.readyC)

	if err != nil && err != ErrClosed {
		logger.Warn("等待元数据失败", "address", h.addr.ShortString(), "error", err)
	}
}

// ============================================================================
//                              查询
// ============================================================================

// Drive 返回底层驱动器
func (h *Handle) Drive() pkgif.Drive { return h.drive }

// Address 驱动器地址
func (h *Handle) Address() types.Address { return h.addr }

// IsPersisted 是否使用持久存储
func (h *Handle) IsPersisted() bool { return h.persisted }

// IsOwner 本地是否可写
func (h *Handle) IsOwner() bool { return h.drive.Writable() }

// IsOpen 是否未关闭
func (h *Handle) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open
}

// IsSwarming 是否在网络中
func (h *Handle) IsSwarming() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.swarming
}

// State 当前状态
func (h *Handle) State() types.HandleState {
	h.mu.Lock()
	open, swarming := h.open, h.swarming
	h.mu.Unlock()

	switch {
	case !open:
		return types.StateClosed
	case swarming:
		return types.StateSwarming
	}
	select {
	case <-h.readyC:
		if h.readyErr == nil {
			return types.StateIdle
		}
	default:
	}
	return types.StateCreated
}

// Ready 等待句柄就绪
//
// 句柄在就绪前关闭时返回 ErrClosed。
func (h *Handle) Ready(ctx context.Context) error {
	select {
	case <-h.readyC:
		return h.readyErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadyC 就绪后关闭的通道
func (h *Handle) ReadyC() <-chan struct{} { return h.readyC }

// Done 句柄关闭后关闭的通道
func (h *Handle) Done() <-chan struct{} { return h.closedC }

// ============================================================================
//                              网络
// ============================================================================

// JoinSwarm 加入网络并等待就绪
//
// 加入立即发生（早于就绪），随后发出 join 事件；只读驱动器在就绪后
// 请求下载全部元数据。已在网络中时不会重复加入，但仍等待就绪。
func (h *Handle) JoinSwarm(ctx context.Context, opts types.SwarmOptions) error {
	if err := h.join(opts); err != nil {
		return err
	}
	return h.afterJoin(ctx)
}

// JoinSwarmAsync 同步完成加入与 join 事件，就绪等待与下载请求在后台进行
//
// 返回的通道在后台部分结束时收到结果后关闭。
func (h *Handle) JoinSwarmAsync(opts types.SwarmOptions) (<-chan error, error) {
	if err := h.join(opts); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- h.afterJoin(context.Background())
		close(done)
	}()
	return done, nil
}

func (h *Handle) join(opts types.SwarmOptions) error {
	h.opMu.Lock()
	joined, err := h.addToSwarm(opts)
	h.opMu.Unlock()

	if joined {
		h.emit(types.EventJoin)
	}
	return err
}

// addToSwarm 需持有 opMu，返回是否新加入网络
func (h *Handle) addToSwarm(opts types.SwarmOptions) (bool, error) {
	h.mu.Lock()
	if !h.open {
		h.mu.Unlock()
		return false, ErrClosed
	}
	if h.swarming {
		h.mu.Unlock()
		return false, nil
	}
	h.mu.Unlock()

	if err := h.swarm.Add(h.drive, opts); err != nil {
		return false, fmt.Errorf("swarm add %s: %w", h.addr.ShortString(), err)
	}

	h.mu.Lock()
	h.swarming = true
	h.mu.Unlock()

	logger.Debug("已加入网络", "address", h.addr.ShortString())
	return true, nil
}

func (h *Handle) afterJoin(ctx context.Context) error {
	if err := h.Ready(ctx); err != nil {
		return err
	}
	if !h.drive.Writable() {
		if err := h.drive.Metadata().Download(0, -1); err != nil {
			return fmt.Errorf("request metadata download: %w", err)
		}
	}
	return nil
}

// LeaveSwarm 离开网络
//
// 不在网络中或持有锁时不做任何事。
func (h *Handle) LeaveSwarm() error {
	h.opMu.Lock()
	left, err := h.removeFromSwarm()
	h.opMu.Unlock()

	if left {
		h.emit(types.EventLeave)
	}
	return err
}

// removeFromSwarm 需持有 opMu，返回是否离开了网络
//
// 移除失败时仍视为已离开，错误一并返回。
func (h *Handle) removeFromSwarm() (bool, error) {
	h.mu.Lock()
	if !h.swarming || len(h.locks) > 0 {
		h.mu.Unlock()
		return false, nil
	}
	h.mu.Unlock()

	err := h.swarm.Remove(h.drive)
	if err != nil {
		logger.Warn("离开网络失败", "address", h.addr.ShortString(), "error", err)
		err = fmt.Errorf("swarm remove %s: %w", h.addr.ShortString(), err)
	}

	h.mu.Lock()
	h.swarming = false
	h.mu.Unlock()

	logger.Debug("已离开网络", "address", h.addr.ShortString())
	return true, err
}

// ============================================================================
//                              锁
// ============================================================================

// Lock 添加命名锁，同名锁只计一次
func (h *Handle) Lock(key string) {
	h.mu.Lock()
	h.locks[key] = struct{}{}
	h.mu.Unlock()
}

// Unlock 释放命名锁
func (h *Handle) Unlock(key string) {
	h.mu.Lock()
	delete(h.locks, key)
	h.mu.Unlock()
}

// Locked 是否持有任意锁
func (h *Handle) Locked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.locks) > 0
}

// Locks 当前持有的锁，已排序
func (h *Handle) Locks() []string {
	h.mu.Lock()
	out := make([]string, 0, len(h.locks))
	for k := range h.locks {
		out = append(out, k)
	}
	h.mu.Unlock()

	sort.Strings(out)
	return out
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭句柄
//
// 持有锁时不做任何事；重复关闭不做任何事。先离开网络，再关闭驱动器，
// 驱动器关闭完成后才发出 close 事件。
func (h *Handle) Close() error {
	return h.close(false)
}

// ForceClose 丢弃所有锁后关闭句柄
//
// 用于节点停止：存储引擎关闭前不能留下仍打开的句柄。
func (h *Handle) ForceClose() error {
	return h.close(true)
}

func (h *Handle) close(force bool) error {
	h.opMu.Lock()
	left, closed, err := h.closeDrive(force)
	h.opMu.Unlock()

	if left {
		h.emit(types.EventLeave)
	}
	if !closed {
		return err
	}
	h.emit(types.EventClose)
	for _, em := range h.busEmitters {
		_ = em.Close()
	}
	return err
}

// closeDrive 需持有 opMu
func (h *Handle) closeDrive(force bool) (left, closed bool, err error) {
	h.mu.Lock()
	if !h.open {
		h.mu.Unlock()
		return false, false, nil
	}
	if n := len(h.locks); n > 0 {
		if !force {
			h.mu.Unlock()
			logger.Debug("句柄持有锁，跳过关闭", "address", h.addr.ShortString(), "locks", n)
			return false, false, nil
		}
		logger.Warn("强制关闭持有锁的句柄", "address", h.addr.ShortString(), "locks", n)
		h.locks = make(map[string]struct{})
	}
	h.mu.Unlock()

	left, err = h.removeFromSwarm()
	h.stopReady()
	err = multierr.Append(err, h.drive.Close())

	h.mu.Lock()
	h.open = false
	h.mu.Unlock()
	close(h.closedC)

	logger.Debug("句柄已关闭", "address", h.addr.ShortString())
	return left, true, err
}

// ============================================================================
//                              事件
// ============================================================================

// On 注册事件回调，返回取消函数
//
// 回调在状态转换完成并释放内部锁后同步执行，可在回调中再次操作同一句柄。
func (h *Handle) On(evt types.HandleEvent, fn func()) (cancel func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners[evt] = append(h.listeners[evt], listener{id: id, fn: fn})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		ls := h.listeners[evt]
		for i, l := range ls {
			if l.id == id {
				h.listeners[evt] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

func (h *Handle) emit(evt types.HandleEvent) {
	h.mu.Lock()
	ls := append([]listener(nil), h.listeners[evt]...)
	h.mu.Unlock()

	for _, l := range ls {
		l.fn()
	}

	em, ok := h.busEmitters[evt]
	if !ok {
		return
	}
	var payload interface{}
	switch evt {
	case types.EventJoin:
		payload = types.EvtSwarmJoined{Address: h.addr}
	case types.EventLeave:
		payload = types.EvtSwarmLeft{Address: h.addr}
	case types.EventClose:
		payload = types.EvtHandleClosed{Address: h.addr}
	}
	if err := em.Emit(payload); err != nil {
		logger.Debug("发布事件失败", "event", evt.String(), "error", err)
	}
}

// String 便于日志输出
func (h *Handle) String() string {
	return fmt.Sprintf("dat(%s, %s)", h.addr.ShortString(), h.State())
}
