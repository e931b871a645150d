package loader

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/multierr"

	"github.com/dep2p/go-dat/internal/core/dat"
	"github.com/dep2p/go-dat/internal/core/storage/ram"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/lib/crypto"
	"github.com/dep2p/go-dat/pkg/lib/log"
	"github.com/dep2p/go-dat/pkg/types"
)

var logger = log.Logger("core/loader")

// SwarmState 共享网络的生命周期状态
type SwarmState int

const (
	// SwarmUninitialized 尚未创建（或已挂起）
	SwarmUninitialized SwarmState = iota
	// SwarmActive 已创建
	SwarmActive
)

// String 返回状态名
func (s SwarmState) String() string {
	switch s {
	case SwarmUninitialized:
		return "uninitialized"
	case SwarmActive:
		return "active"
	default:
		return fmt.Sprintf("SwarmState(%d)", int(s))
	}
}

// Config 加载器配置
type Config struct {
	// DriveFactory 驱动器工厂（必需）
	DriveFactory pkgif.DriveFactory

	// SwarmFactory 网络工厂（必需）
	SwarmFactory pkgif.SwarmFactory

	// StorageFactory 持久存储工厂，为 nil 时 persist 选项无效
	StorageFactory pkgif.StorageFactory

	// StorageDeleter 删除持久数据
	StorageDeleter pkgif.StorageDeleter

	// EphemeralStorage 内存存储工厂，默认 ram.Factory
	EphemeralStorage func() (pkgif.Storage, error)

	// Bus 事件总线，传递给句柄
	Bus pkgif.EventBus

	// Rand 生成密钥对的随机源，默认 crypto/rand
	Rand io.Reader
}

// Loader 驱动器加载器
type Loader struct {
	cfg Config

	mu    sync.Mutex
	swarm pkgif.Swarm
	state SwarmState
}

// New 创建加载器
func New(cfg Config) (*Loader, error) {
	if cfg.DriveFactory == nil {
		return nil, ErrNoDriveFactory
	}
	if cfg.SwarmFactory == nil {
		return nil, ErrNoSwarmFactory
	}
	if cfg.EphemeralStorage == nil {
		cfg.EphemeralStorage = ram.Factory
	}
	return &Loader{cfg: cfg}, nil
}

// ============================================================================
//                              网络生命周期
// ============================================================================

// SwarmState 返回共享网络状态
func (l *Loader) SwarmState() SwarmState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Swarm 返回共享网络，首次调用时创建
func (l *Loader) Swarm() (pkgif.Swarm, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == SwarmActive {
		return l.swarm, nil
	}
	sw, err := l.cfg.SwarmFactory()
	if err != nil {
		return nil, fmt.Errorf("create swarm: %w", err)
	}
	l.swarm = sw
	l.state = SwarmActive
	logger.Debug("共享网络已创建")
	return sw, nil
}

// Suspend 关闭共享网络并回到未初始化状态
func (l *Loader) Suspend() error {
	l.mu.Lock()
	sw := l.swarm
	l.swarm = nil
	l.state = SwarmUninitialized
	l.mu.Unlock()

	if sw == nil {
		return nil
	}
	logger.Debug("挂起共享网络")
	if err := sw.Close(); err != nil {
		return fmt.Errorf("close swarm: %w", err)
	}
	return nil
}

// ============================================================================
//                              加载
// ============================================================================

// Load 加载指定地址的驱动器
//
// 选项中 persist 为真且配置了持久存储时使用持久存储，否则使用内存存储。
// 驱动器就绪后才包装为句柄。
func (l *Loader) Load(ctx context.Context, addr types.Address, opts types.DatOptions) (*dat.Handle, error) {
	persisted := opts.ShouldPersist() && l.cfg.StorageFactory != nil

	var (
		storage pkgif.Storage
		err     error
	)
	if persisted {
		storage, err = l.cfg.StorageFactory(ctx, addr.String())
	} else {
		storage, err = l.cfg.EphemeralStorage()
	}
	if err != nil {
		return nil, fmt.Errorf("open storage for %s: %w", addr.ShortString(), err)
	}

	drive, err := l.cfg.DriveFactory(storage, addr.Bytes(), opts.DriveOptions)
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("construct drive %s: %w", addr.ShortString(), err)
	}

	if err := drive.Ready(ctx); err != nil {
		closeAll(drive, storage)
		return nil, fmt.Errorf("drive %s not ready: %w", addr.ShortString(), err)
	}

	sw, err := l.Swarm()
	if err != nil {
		closeAll(drive, storage)
		return nil, err
	}

	logger.Debug("驱动器已加载", "address", addr.ShortString(), "persisted", persisted, "writable", drive.Writable())
	return dat.New(drive, sw, dat.Options{Persisted: persisted, Bus: l.cfg.Bus}), nil
}

// Create 生成新密钥对并加载可写驱动器
func (l *Loader) Create(ctx context.Context, opts types.DatOptions) (*dat.Handle, error) {
	kp, err := crypto.GenerateKeyPair(l.cfg.Rand)
	if err != nil {
		return nil, err
	}
	addr, err := types.AddressFromBytes(kp.Public)
	if err != nil {
		return nil, err
	}

	o := opts.Clone()
	o.DriveOptions.SecretKey = kp.Secret

	h, err := l.Load(ctx, addr, o)
	if err != nil {
		return nil, err
	}
	logger.Info("已创建驱动器", "address", addr.ShortString())
	return h, nil
}

// Delete 删除地址对应的持久数据
func (l *Loader) Delete(ctx context.Context, hexAddr string) error {
	if l.cfg.StorageDeleter == nil {
		return ErrNoDeleter
	}
	if err := l.cfg.StorageDeleter(ctx, hexAddr); err != nil {
		return fmt.Errorf("delete %s: %w", hexAddr, err)
	}
	return nil
}

func closeAll(drive pkgif.Drive, storage pkgif.Storage) {
	if err := multierr.Append(drive.Close(), storage.Close()); err != nil {
		logger.Warn("清理驱动器失败", "address", drive.Key().ShortString(), "error", err)
	}
}
