package publisher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dep2p/go-dat/internal/core/dat"
	"github.com/dep2p/go-dat/internal/util/keys"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/lib/crypto"
	"github.com/dep2p/go-dat/pkg/types"
)

// DefaultLoadTimeout Update 等待 dat 从网络加载的默认时间
const DefaultLoadTimeout = 60 * time.Second

// Manager 发布所需的管理器能力，*manager.Manager 满足该接口
type Manager interface {
	GetDat(ctx context.Context, address string, opts *types.DatOptions) (*dat.Handle, error)
	CreateDat(ctx context.Context, opts *types.DatOptions) (*dat.Handle, error)
}

// Result Create 的结果
type Result struct {
	Handle    *dat.Handle
	Address   types.Address
	SecretKey []byte
	Report    *Report
}

// Create 新建持久化的 dat 并复制 pubdir
//
// 新 dat 中不应有任何文件，复制遇到已有文件即失败。
func Create(ctx context.Context, mgr Manager, pubdir string) (*Result, error) {
	if err := checkDir(pubdir); err != nil {
		return nil, err
	}

	h, err := mgr.CreateDat(ctx, &types.DatOptions{Persist: types.Bool(true)})
	if err != nil {
		return nil, fmt.Errorf("create dat: %w", err)
	}
	logger.Info("已创建 dat，开始复制", "address", h.Address().ShortString(), "pubdir", pubdir)

	report, err := Sync(ctx, pubdir, h, "/", Options{ErrorOnExist: true})
	if err != nil {
		return nil, err
	}
	sk, err := keys.Export(h.Drive())
	if err != nil {
		return nil, err
	}
	return &Result{Handle: h, Address: h.Address(), SecretKey: sk, Report: report}, nil
}

// UpdateOptions Update 选项
type UpdateOptions struct {
	// LoadTimeout 等待 dat 从网络加载的时间，默认 DefaultLoadTimeout
	LoadTimeout time.Duration
}

// Update 用私钥把 pubdir 同步到已有的 dat
//
// 本地没有私钥时，先从网络完整下载当前版本，离开网络后导入私钥，
// 同步完成后重新以公告方式加入网络。
func Update(ctx context.Context, mgr Manager, address string, secretKey []byte, pubdir string, opts UpdateOptions) (*Report, error) {
	addr, err := types.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	if err := crypto.MatchSecret(addr.Bytes(), secretKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecretKey, err)
	}
	if err := checkDir(pubdir); err != nil {
		return nil, err
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}

	loadOpts := &types.DatOptions{
		Persist:      types.Bool(true),
		AutoSwarm:    types.Bool(true),
		DriveOptions: types.DriveOptions{Sparse: types.Bool(false)},
		SwarmOptions: types.SwarmOptions{Announce: types.Bool(true)},
	}
	h, err := mgr.GetDat(ctx, addr.String(), loadOpts)
	if err != nil {
		return nil, fmt.Errorf("load dat: %w", err)
	}

	if !h.IsOwner() {
		if h, err = takeOwnership(ctx, mgr, h, secretKey, loadOpts, opts.LoadTimeout); err != nil {
			return nil, err
		}
	}

	report, err := Sync(ctx, pubdir, h, "/", DefaultOptions())
	if err != nil {
		return nil, err
	}

	// 重新开始做种
	if err := h.JoinSwarm(ctx, types.SwarmOptions{Announce: types.Bool(true)}); err != nil {
		return report, fmt.Errorf("rejoin swarm: %w", err)
	}
	return report, nil
}

// takeOwnership 下载完整的 dat 并导入私钥
func takeOwnership(ctx context.Context, mgr Manager, h *dat.Handle, sk []byte, loadOpts *types.DatOptions, timeout time.Duration) (*dat.Handle, error) {
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Info("正在获取最新版本", "address", h.Address().ShortString())
	if err := h.Ready(lctx); err != nil {
		if ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadTimeout, err)
		}
		return nil, err
	}
	if fsys, ok := h.Drive().(pkgif.FileSystem); ok {
		if err := fsys.Download(lctx, ""); err != nil {
			return nil, fmt.Errorf("download: %w", err)
		}
	}

	if err := h.LeaveSwarm(); err != nil {
		return nil, err
	}
	if err := keys.Import(ctx, h.Drive(), sk); err != nil {
		return nil, err
	}
	logger.Info("已导入私钥", "address", h.Address().ShortString(), "persisted", h.IsPersisted())

	// 持久化的 dat 重新加载，使驱动器从存储中以可写方式打开；
	// 内存中的 dat 关闭后数据即丢失，继续使用当前句柄
	if !h.IsPersisted() {
		return h, nil
	}
	if err := h.Close(); err != nil {
		return nil, err
	}
	reloaded, err := mgr.GetDat(ctx, h.Address().String(), loadOpts)
	if err != nil {
		return nil, fmt.Errorf("reload dat: %w", err)
	}
	if err := reloaded.Ready(ctx); err != nil {
		return nil, err
	}
	return reloaded, nil
}

func checkDir(pubdir string) error {
	st, err := os.Stat(pubdir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return ErrNotDir
	}
	return nil
}
