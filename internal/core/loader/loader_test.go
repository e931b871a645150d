package loader

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dep2p/go-dat/internal/core/storage/ram"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/interfaces/mock"
	"github.com/dep2p/go-dat/pkg/lib/crypto"
	"github.com/dep2p/go-dat/pkg/types"
	"github.com/dep2p/go-dat/tests/mocks"
)

var testAddr = types.MustParseAddress(strings.Repeat("cd", 32))

// factoryCall DriveFactory 调用记录
type factoryCall struct {
	storage pkgif.Storage
	key     []byte
	opts    types.DriveOptions
	drive   *mocks.MockDrive
}

type fixture struct {
	calls      []*factoryCall
	swarms     int
	persistent []string
	deleted    []string
	stores     map[string]*ram.Storage
}

// newFixture 返回记录调用的工厂集合
func newFixture(swarm pkgif.Swarm) (*fixture, Config) {
	f := &fixture{stores: make(map[string]*ram.Storage)}
	cfg := Config{
		DriveFactory: func(st pkgif.Storage, key []byte, opts types.DriveOptions) (pkgif.Drive, error) {
			addr, err := types.AddressFromBytes(key)
			if err != nil {
				return nil, err
			}
			d := mocks.NewMockDrive(addr, opts.SecretKey != nil)
			f.calls = append(f.calls, &factoryCall{storage: st, key: key, opts: opts, drive: d})
			return d, nil
		},
		SwarmFactory: func() (pkgif.Swarm, error) {
			f.swarms++
			return swarm, nil
		},
		StorageFactory: func(_ context.Context, hexAddr string) (pkgif.Storage, error) {
			f.persistent = append(f.persistent, hexAddr)
			st := ram.New()
			f.stores[hexAddr] = st
			return st, nil
		},
		StorageDeleter: func(_ context.Context, hexAddr string) error {
			f.deleted = append(f.deleted, hexAddr)
			return nil
		},
	}
	return f, cfg
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{SwarmFactory: func() (pkgif.Swarm, error) { return nil, nil }})
	assert.ErrorIs(t, err, ErrNoDriveFactory)

	_, err = New(Config{DriveFactory: func(pkgif.Storage, []byte, types.DriveOptions) (pkgif.Drive, error) { return nil, nil }})
	assert.ErrorIs(t, err, ErrNoSwarmFactory)
}

func TestLoad_Ephemeral(t *testing.T) {
	ctrl := gomock.NewController(t)
	f, cfg := newFixture(mock.NewMockSwarm(ctrl))
	l, err := New(cfg)
	require.NoError(t, err)

	opts := types.DatOptions{DriveOptions: types.DriveOptions{Sparse: types.Bool(true)}}
	h, err := l.Load(context.Background(), testAddr, opts)
	require.NoError(t, err)

	assert.Empty(t, f.persistent)
	assert.False(t, h.IsPersisted())
	assert.Equal(t, testAddr, h.Address())
	require.Len(t, f.calls, 1)
	assert.Equal(t, testAddr.Bytes(), f.calls[0].key)
	assert.True(t, f.calls[0].opts.IsSparse())
	assert.IsType(t, &ram.Storage{}, f.calls[0].storage)
	assert.Equal(t, 1, f.calls[0].drive.ReadyCalls)
}

func TestLoad_Persistent(t *testing.T) {
	ctrl := gomock.NewController(t)
	f, cfg := newFixture(mock.NewMockSwarm(ctrl))
	l, err := New(cfg)
	require.NoError(t, err)

	h, err := l.Load(context.Background(), testAddr, types.DatOptions{Persist: types.Bool(true)})
	require.NoError(t, err)

	assert.True(t, h.IsPersisted())
	assert.Equal(t, []string{testAddr.String()}, f.persistent)
	assert.Same(t, f.stores[testAddr.String()], f.calls[0].storage)
}

func TestLoad_PersistWithoutFactory(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, cfg := newFixture(mock.NewMockSwarm(ctrl))
	cfg.StorageFactory = nil
	l, err := New(cfg)
	require.NoError(t, err)

	h, err := l.Load(context.Background(), testAddr, types.DatOptions{Persist: types.Bool(true)})
	require.NoError(t, err)
	assert.False(t, h.IsPersisted())
}

func TestLoad_ReadyFailureClosesDrive(t *testing.T) {
	ctrl := gomock.NewController(t)
	f, cfg := newFixture(mock.NewMockSwarm(ctrl))
	boom := errors.New("corrupt log")
	inner := cfg.DriveFactory
	cfg.DriveFactory = func(st pkgif.Storage, key []byte, opts types.DriveOptions) (pkgif.Drive, error) {
		d, err := inner(st, key, opts)
		if err != nil {
			return nil, err
		}
		d.(*mocks.MockDrive).ReadyFunc = func(context.Context) error { return boom }
		return d, nil
	}
	l, err := New(cfg)
	require.NoError(t, err)

	_, err = l.Load(context.Background(), testAddr, types.DatOptions{})
	assert.ErrorIs(t, err, boom)

	require.Len(t, f.calls, 1)
	assert.Equal(t, 1, f.calls[0].drive.Closed())
	_, err = f.calls[0].storage.Open("x")
	assert.ErrorIs(t, err, ram.ErrClosed)
	assert.Zero(t, f.swarms, "就绪失败时不创建网络")
}

func TestLoad_FactoryFailureClosesStorage(t *testing.T) {
	ctrl := gomock.NewController(t)
	f, cfg := newFixture(mock.NewMockSwarm(ctrl))
	boom := errors.New("bad key")
	cfg.DriveFactory = func(pkgif.Storage, []byte, types.DriveOptions) (pkgif.Drive, error) {
		return nil, boom
	}
	l, err := New(cfg)
	require.NoError(t, err)

	_, err = l.Load(context.Background(), testAddr, types.DatOptions{Persist: types.Bool(true)})
	assert.ErrorIs(t, err, boom)

	_, err = f.stores[testAddr.String()].Open("x")
	assert.ErrorIs(t, err, ram.ErrClosed)
}

// ============================================================================
//                              网络生命周期
// ============================================================================

func TestSwarm_LazyAndSuspend(t *testing.T) {
	ctrl := gomock.NewController(t)
	swarm := mock.NewMockSwarm(ctrl)
	f, cfg := newFixture(swarm)
	l, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, SwarmUninitialized, l.SwarmState())
	require.NoError(t, l.Suspend(), "未初始化时挂起不做任何事")

	_, err = l.Load(context.Background(), testAddr, types.DatOptions{})
	require.NoError(t, err)
	_, err = l.Load(context.Background(), testAddr, types.DatOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.swarms)
	assert.Equal(t, SwarmActive, l.SwarmState())

	swarm.EXPECT().Close().Return(nil).Times(1)
	require.NoError(t, l.Suspend())
	assert.Equal(t, SwarmUninitialized, l.SwarmState())

	_, err = l.Load(context.Background(), testAddr, types.DatOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.swarms, "挂起后重新创建网络")
}

func TestSwarm_HandleUsesSharedSwarm(t *testing.T) {
	ctrl := gomock.NewController(t)
	swarm := mock.NewMockSwarm(ctrl)
	_, cfg := newFixture(swarm)
	l, err := New(cfg)
	require.NoError(t, err)

	h, err := l.Load(context.Background(), testAddr, types.DatOptions{})
	require.NoError(t, err)

	sopts := types.SwarmOptions{Lookup: types.Bool(true)}
	swarm.EXPECT().Add(h.Drive(), sopts).Return(nil)
	swarm.EXPECT().Remove(h.Drive()).Return(nil)

	require.NoError(t, h.JoinSwarm(context.Background(), sopts))
	require.NoError(t, h.Close())
}

func TestSwarm_FactoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	f, cfg := newFixture(mock.NewMockSwarm(ctrl))
	boom := errors.New("no network")
	cfg.SwarmFactory = func() (pkgif.Swarm, error) { return nil, boom }
	l, err := New(cfg)
	require.NoError(t, err)

	_, err = l.Load(context.Background(), testAddr, types.DatOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, f.calls[0].drive.Closed())
	assert.Equal(t, SwarmUninitialized, l.SwarmState())
}

// ============================================================================
//                              创建与删除
// ============================================================================

func TestCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	f, cfg := newFixture(mock.NewMockSwarm(ctrl))
	l, err := New(cfg)
	require.NoError(t, err)

	in := types.DatOptions{Persist: types.Bool(true)}
	h, err := l.Create(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, f.calls, 1)
	sk := f.calls[0].opts.SecretKey
	require.NotNil(t, sk)
	assert.NoError(t, crypto.MatchSecret(h.Address().Bytes(), sk))
	assert.True(t, h.IsOwner())
	assert.True(t, h.IsPersisted())
	assert.Nil(t, in.DriveOptions.SecretKey, "不修改调用方选项")
}

func TestDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	f, cfg := newFixture(mock.NewMockSwarm(ctrl))
	l, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, l.Delete(context.Background(), testAddr.String()))
	assert.Equal(t, []string{testAddr.String()}, f.deleted)

	cfg.StorageDeleter = nil
	l, err = New(cfg)
	require.NoError(t, err)
	assert.ErrorIs(t, l.Delete(context.Background(), testAddr.String()), ErrNoDeleter)
}
