package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dep2p/go-dat/internal/core/dat"
	"github.com/dep2p/go-dat/internal/core/metrics"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/lib/log"
	"github.com/dep2p/go-dat/pkg/types"
)

var logger = log.Logger("core/manager")

// 事件名，用于指标标签
const (
	eventLoad   = "load"
	eventUse    = "use"
	eventCreate = "create"
	eventClose  = "close"
	eventDelete = "delete"
)

// Loader 管理器所需的加载能力
type Loader interface {
	Load(ctx context.Context, addr types.Address, opts types.DatOptions) (*dat.Handle, error)
	Create(ctx context.Context, opts types.DatOptions) (*dat.Handle, error)
	Delete(ctx context.Context, hexAddr string) error
	Suspend() error
}

// Config 管理器配置
type Config struct {
	// Defaults 实例默认选项
	Defaults types.DatOptions

	// Bus 事件总线，为 nil 时不发布事件
	Bus pkgif.EventBus

	// Reporter 指标上报，为 nil 时不上报
	Reporter metrics.Reporter
}

// Manager 驱动器管理器
type Manager struct {
	loader   Loader
	defaults types.DatOptions
	reporter metrics.Reporter

	dats  *xsync.MapOf[string, *dat.Handle]
	group singleflight.Group

	emitters map[string]pkgif.Emitter
	closeMu  sync.Mutex
	closed   bool
}

// New 创建管理器
func New(loader Loader, cfg Config) *Manager {
	m := &Manager{
		loader:   loader,
		defaults: types.MergeDatOptions(types.DefaultDatOptions(), &cfg.Defaults),
		reporter: cfg.Reporter,
		dats:     xsync.NewMapOf[string, *dat.Handle](),
	}
	if m.reporter == nil {
		m.reporter = metrics.Nop()
	}
	m.emitters = newEmitters(cfg.Bus)
	return m
}

func newEmitters(bus pkgif.EventBus) map[string]pkgif.Emitter {
	if bus == nil {
		return nil
	}
	out := make(map[string]pkgif.Emitter, 5)
	for name, typ := range map[string]interface{}{
		eventLoad:   new(types.EvtDatLoaded),
		eventUse:    new(types.EvtDatUsed),
		eventCreate: new(types.EvtDatCreated),
		eventClose:  new(types.EvtDatClosed),
		eventDelete: new(types.EvtDatDeleted),
	} {
		em, err := bus.Emitter(typ)
		if err != nil {
			logger.Warn("创建事件发射器失败", "event", name, "error", err)
			continue
		}
		out[name] = em
	}
	return out
}

// Defaults 返回实例的有效默认选项
func (m *Manager) Defaults() types.DatOptions { return m.defaults.Clone() }

// options 合并 库默认 ← 实例默认 ← 调用选项
func (m *Manager) options(opts *types.DatOptions) types.DatOptions {
	return types.MergeDatOptions(m.defaults, opts)
}

// ============================================================================
//                              GetDat
// ============================================================================

// GetDat 返回地址对应的句柄，必要时加载
//
// 已注册时直接返回，并按选项在后台加入网络。未注册时加载驱动器，
// 自动加入网络（加入本身同步完成，就绪等待在后台），然后注册。
func (m *Manager) GetDat(ctx context.Context, address string, opts *types.DatOptions) (*dat.Handle, error) {
	addr, err := types.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	key := addr.String()
	merged := m.options(opts)

	if h, ok := m.lookup(key); ok {
		m.use(h, merged)
		return h, nil
	}

	leader := false
	ch := m.group.DoChan(key, func() (interface{}, error) {
		leader = true
		return m.load(context.WithoutCancel(ctx), addr, merged)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		lr := res.Val.(loadResult)
		if !leader || lr.existing {
			m.use(lr.handle, merged)
		}
		return lr.handle, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type loadResult struct {
	handle *dat.Handle
	// existing 加载前另一次加载已完成注册
	existing bool
}

func (m *Manager) lookup(key string) (*dat.Handle, bool) {
	h, ok := m.dats.Load(key)
	if !ok || !h.IsOpen() {
		return nil, false
	}
	return h, true
}

// use 命中注册表
func (m *Manager) use(h *dat.Handle, opts types.DatOptions) {
	if opts.ShouldAutoSwarm() {
		m.autoJoin(h, opts.SwarmOptions)
	}
	m.emit(eventUse, types.EvtDatUsed{Address: h.Address(), Handle: h})
}

// autoJoin 后台加入网络，失败只记录日志
func (m *Manager) autoJoin(h *dat.Handle, opts types.SwarmOptions) {
	if h.IsSwarming() {
		return
	}
	done, err := h.JoinSwarmAsync(opts)
	if err != nil {
		logger.Warn("自动加入网络失败", "address", h.Address().ShortString(), "error", err)
		return
	}
	go watchJoin(h.Address(), done)
}

func watchJoin(addr types.Address, done <-chan error) {
	if err := <-done; err != nil && !errors.Is(err, dat.ErrClosed) {
		logger.Warn("加入网络后台步骤失败", "address", addr.ShortString(), "error", err)
	}
}

func (m *Manager) load(ctx context.Context, addr types.Address, opts types.DatOptions) (loadResult, error) {
	key := addr.String()
	if h, ok := m.lookup(key); ok {
		return loadResult{handle: h, existing: true}, nil
	}

	start := time.Now()
	h, err := m.loader.Load(ctx, addr, opts)
	m.reporter.ObserveLoad(time.Since(start), err)
	if err != nil {
		logger.Warn("加载驱动器失败", "address", addr.ShortString(), "error", err)
		return loadResult{}, err
	}

	m.track(key, h)
	if opts.ShouldAutoSwarm() {
		done, err := h.JoinSwarmAsync(opts.SwarmOptions)
		if err != nil {
			if cerr := h.Close(); cerr != nil {
				logger.Debug("关闭句柄失败", "address", addr.ShortString(), "error", cerr)
			}
			return loadResult{}, err
		}
		go watchJoin(addr, done)
	}

	m.register(key, h)
	logger.Debug("驱动器已加载", "address", addr.ShortString(), "autoSwarm", opts.ShouldAutoSwarm())
	m.emit(eventLoad, types.EvtDatLoaded{Address: addr, Handle: h})
	return loadResult{handle: h}, nil
}

// ============================================================================
//                              CreateDat
// ============================================================================

// CreateDat 创建新的可写驱动器并注册
func (m *Manager) CreateDat(ctx context.Context, opts *types.DatOptions) (*dat.Handle, error) {
	merged := m.options(opts)

	h, err := m.loader.Create(ctx, merged)
	if err != nil {
		return nil, err
	}
	key := h.Address().String()

	m.track(key, h)
	if merged.ShouldAutoSwarm() {
		if err := h.JoinSwarm(ctx, merged.SwarmOptions); err != nil {
			if cerr := h.Close(); cerr != nil {
				logger.Debug("关闭句柄失败", "address", h.Address().ShortString(), "error", cerr)
			}
			return nil, err
		}
	}

	m.register(key, h)
	logger.Info("驱动器已创建", "address", h.Address().ShortString())
	m.emit(eventCreate, types.EvtDatCreated{Address: h.Address(), Handle: h})
	return h, nil
}

// ============================================================================
//                              注册表
// ============================================================================

// track 在注册前挂接句柄回调
func (m *Manager) track(key string, h *dat.Handle) {
	h.On(types.EventJoin, m.reporter.SwarmJoined)
	h.On(types.EventLeave, m.reporter.SwarmLeft)
	h.On(types.EventClose, func() { m.evict(key, h) })
}

func (m *Manager) register(key string, h *dat.Handle) {
	m.dats.Store(key, h)
	m.reporter.DriveOpened()
}

// evict 仅当注册表中仍是同一句柄时移除
func (m *Manager) evict(key string, h *dat.Handle) {
	removed := false
	m.dats.Compute(key, func(old *dat.Handle, loaded bool) (*dat.Handle, bool) {
		if loaded && old == h {
			removed = true
			return nil, true
		}
		return old, !loaded
	})
	if !removed {
		return
	}
	m.reporter.DriveClosed()
	logger.Debug("驱动器已关闭", "address", h.Address().ShortString())
	m.emit(eventClose, types.EvtDatClosed{Address: h.Address()})
}

// Get 返回已注册的句柄
func (m *Manager) Get(address string) (*dat.Handle, bool) {
	addr, err := types.ParseAddress(address)
	if err != nil {
		return nil, false
	}
	return m.lookup(addr.String())
}

// Dats 返回所有已注册的句柄
func (m *Manager) Dats() []*dat.Handle {
	out := make([]*dat.Handle, 0, m.dats.Size())
	m.dats.Range(func(_ string, h *dat.Handle) bool {
		out = append(out, h)
		return true
	})
	return out
}

// Len 已注册的句柄数
func (m *Manager) Len() int { return m.dats.Size() }

// ============================================================================
//                              删除与关闭
// ============================================================================

// DeleteDatData 关闭已注册的句柄并删除持久数据
//
// 无论删除成败都会发布 EvtDatDeleted，其中携带删除错误；地址无效时事件地址为零值。
func (m *Manager) DeleteDatData(ctx context.Context, address string) error {
	addr, err := types.ParseAddress(address)
	if err != nil {
		m.emit(eventDelete, types.EvtDatDeleted{Err: err})
		return err
	}
	key := addr.String()

	if h, ok := m.dats.Load(key); ok {
		if err := h.Close(); err != nil {
			logger.Warn("删除前关闭句柄失败", "address", addr.ShortString(), "error", err)
		}
		if h.IsOpen() {
			logger.Warn("句柄持有锁，删除时保持打开", "address", addr.ShortString(), "locks", h.Locks())
		}
	}

	err = m.loader.Delete(ctx, key)
	if err != nil {
		logger.Warn("删除驱动器数据失败", "address", addr.ShortString(), "error", err)
	} else {
		logger.Info("驱动器数据已删除", "address", addr.ShortString())
	}
	m.emit(eventDelete, types.EvtDatDeleted{Address: addr, Err: err})
	return err
}

// Shutdown 关闭所有句柄并挂起加载器
//
// 持有锁的句柄保持打开。ctx 到期时返回 ctx 错误，关闭在后台继续。
func (m *Manager) Shutdown(ctx context.Context) error {
	return m.closeAll(ctx, false)
}

// Stop 强制关闭所有句柄（含持有锁的）并挂起加载器
//
// 节点停止时在存储引擎关闭前调用。
func (m *Manager) Stop(ctx context.Context) error {
	return m.closeAll(ctx, true)
}

func (m *Manager) closeAll(ctx context.Context, force bool) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	m.dats.Range(func(key string, h *dat.Handle) bool {
		g.Go(func() error {
			closeFn := h.Close
			if force {
				closeFn = h.ForceClose
			}
			if err := closeFn(); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("close %s: %w", key, err))
				mu.Unlock()
			}
			return nil
		})
		return true
	})

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	errs = multierr.Append(errs, m.loader.Suspend())

	logger.Info("管理器已关闭", "remaining", m.dats.Size(), "force", force)
	return errs
}

// Close 关闭事件发射器
func (m *Manager) Close() error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var err error
	for _, em := range m.emitters {
		err = multierr.Append(err, em.Close())
	}
	return err
}

func (m *Manager) emit(name string, evt interface{}) {
	m.reporter.Event(name)
	em, ok := m.emitters[name]
	if !ok {
		return
	}
	if err := em.Emit(evt); err != nil {
		logger.Debug("发布事件失败", "event", name, "error", err)
	}
}
