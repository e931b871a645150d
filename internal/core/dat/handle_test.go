package dat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dat/internal/core/eventbus"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/types"
	"github.com/dep2p/go-dat/tests/mocks"
)

var testAddr = types.MustParseAddress(strings.Repeat("ab", 32))

// recorder 按顺序记录句柄事件
type recorder struct {
	mu     sync.Mutex
	events []types.HandleEvent
}

func record(h *Handle) *recorder {
	r := &recorder{}
	for _, evt := range []types.HandleEvent{types.EventJoin, types.EventLeave, types.EventClose} {
		evt := evt
		h.On(evt, func() {
			r.mu.Lock()
			r.events = append(r.events, evt)
			r.mu.Unlock()
		})
	}
	return r
}

func (r *recorder) list() []types.HandleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.HandleEvent(nil), r.events...)
}

func newWritable(t *testing.T) (*Handle, *mocks.MockDrive, *mocks.MockSwarm) {
	t.Helper()
	drive := mocks.NewMockDrive(testAddr, true)
	swarm := mocks.NewMockSwarm()
	return New(drive, swarm, Options{}), drive, swarm
}

// ============================================================================
//                              就绪
// ============================================================================

func TestHandle_WritableReadyImmediately(t *testing.T) {
	h, _, _ := newWritable(t)

	require.NoError(t, h.Ready(context.Background()))
	assert.Equal(t, types.StateIdle, h.State())
	assert.True(t, h.IsOwner())
	assert.Equal(t, testAddr, h.Address())
}

func TestHandle_ReadOnlyWithMetadataReadyImmediately(t *testing.T) {
	drive := mocks.NewMockDrive(testAddr, false)
	drive.Meta = mocks.NewMockFeed(3)
	h := New(drive, mocks.NewMockSwarm(), Options{})

	select {
	case <-h.ReadyC():
	default:
		t.Fatal("有元数据的只读驱动器应立即就绪")
	}
}

func TestHandle_ReadOnlyEmptyWaitsForUpdate(t *testing.T) {
	drive := mocks.NewMockDrive(testAddr, false)
	h := New(drive, mocks.NewMockSwarm(), Options{})

	assert.Equal(t, types.StateCreated, h.State())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Ready(ctx), context.DeadlineExceeded)

	drive.Meta.Grow(1)
	require.NoError(t, h.Ready(context.Background()))
	assert.Equal(t, types.StateIdle, h.State())
}

func TestHandle_ReadinessCancelledOnClose(t *testing.T) {
	drive := mocks.NewMockDrive(testAddr, false)
	h := New(drive, mocks.NewMockSwarm(), Options{})

	require.NoError(t, h.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, h.Ready(ctx), ErrClosed)
}

// ============================================================================
//                              网络
// ============================================================================

func TestHandle_JoinSwarm(t *testing.T) {
	h, drive, swarm := newWritable(t)
	rec := record(h)

	opts := types.SwarmOptions{Announce: types.Bool(true)}
	require.NoError(t, h.JoinSwarm(context.Background(), opts))

	assert.True(t, h.IsSwarming())
	assert.Equal(t, types.StateSwarming, h.State())
	assert.Equal(t, []types.HandleEvent{types.EventJoin}, rec.list())
	require.Len(t, swarm.AddCalls, 1)
	assert.Equal(t, opts, swarm.AddCalls[0].Options)
	assert.Empty(t, drive.Meta.Downloads(), "可写驱动器不请求下载")
}

func TestHandle_JoinSwarmTwice(t *testing.T) {
	h, _, swarm := newWritable(t)
	rec := record(h)

	require.NoError(t, h.JoinSwarm(context.Background(), types.SwarmOptions{}))
	require.NoError(t, h.JoinSwarm(context.Background(), types.SwarmOptions{}))

	assert.Equal(t, 1, swarm.Adds())
	assert.Len(t, rec.list(), 1)
}

func TestHandle_JoinAddFailure(t *testing.T) {
	h, _, swarm := newWritable(t)
	rec := record(h)
	boom := errors.New("boom")
	swarm.AddFunc = func(_ pkgif.Drive, _ types.SwarmOptions) error { return boom }

	err := h.JoinSwarm(context.Background(), types.SwarmOptions{})
	assert.ErrorIs(t, err, boom)
	assert.False(t, h.IsSwarming())
	assert.Empty(t, rec.list())
}

func TestHandle_JoinReadOnlyDownloadsAfterReady(t *testing.T) {
	drive := mocks.NewMockDrive(testAddr, false)
	swarm := mocks.NewMockSwarm()
	h := New(drive, swarm, Options{})
	rec := record(h)

	done, err := h.JoinSwarmAsync(types.SwarmOptions{})
	require.NoError(t, err)

	// 加入与事件先于就绪发生
	assert.True(t, swarm.Has(testAddr))
	assert.Equal(t, []types.HandleEvent{types.EventJoin}, rec.list())
	assert.Empty(t, drive.Meta.Downloads())

	drive.Meta.Grow(1)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("等待后台加入超时")
	}
	assert.Equal(t, []mocks.DownloadCall{{Start: 0, End: -1}}, drive.Meta.Downloads())
}

func TestHandle_JoinClosed(t *testing.T) {
	h, _, swarm := newWritable(t)
	require.NoError(t, h.Close())

	assert.ErrorIs(t, h.JoinSwarm(context.Background(), types.SwarmOptions{}), ErrClosed)
	_, err := h.JoinSwarmAsync(types.SwarmOptions{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, swarm.Adds())
}

func TestHandle_LeaveSwarm(t *testing.T) {
	h, _, swarm := newWritable(t)
	rec := record(h)

	// 未加入时离开不做任何事
	require.NoError(t, h.LeaveSwarm())
	assert.Zero(t, swarm.Removes())

	require.NoError(t, h.JoinSwarm(context.Background(), types.SwarmOptions{}))
	require.NoError(t, h.LeaveSwarm())

	assert.False(t, h.IsSwarming())
	assert.Equal(t, types.StateIdle, h.State())
	assert.Equal(t, 1, swarm.Removes())
	assert.Equal(t, []types.HandleEvent{types.EventJoin, types.EventLeave}, rec.list())
}

// ============================================================================
//                              锁
// ============================================================================

func TestHandle_LockSuppressesLeaveAndClose(t *testing.T) {
	h, drive, swarm := newWritable(t)
	rec := record(h)
	require.NoError(t, h.JoinSwarm(context.Background(), types.SwarmOptions{}))

	h.Lock("sync")
	h.Lock("sync")
	h.Lock("publish")
	assert.Equal(t, []string{"publish", "sync"}, h.Locks())

	require.NoError(t, h.LeaveSwarm())
	require.NoError(t, h.Close())
	assert.True(t, h.IsOpen())
	assert.True(t, h.IsSwarming())
	assert.Zero(t, swarm.Removes())
	assert.Zero(t, drive.Closed())

	h.Unlock("sync")
	require.NoError(t, h.Close())
	assert.True(t, h.IsOpen(), "仍持有 publish 锁")

	h.Unlock("publish")
	assert.False(t, h.Locked())
	require.NoError(t, h.Close())
	assert.False(t, h.IsOpen())
	assert.Equal(t, []types.HandleEvent{types.EventJoin, types.EventLeave, types.EventClose}, rec.list())
}

// ============================================================================
//                              关闭
// ============================================================================

func TestHandle_Close(t *testing.T) {
	h, drive, swarm := newWritable(t)
	rec := record(h)
	require.NoError(t, h.JoinSwarm(context.Background(), types.SwarmOptions{}))

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	assert.False(t, h.IsOpen())
	assert.False(t, h.IsSwarming(), "关闭后不应仍在网络中")
	assert.Equal(t, types.StateClosed, h.State())
	assert.Equal(t, 1, drive.Closed())
	assert.Equal(t, 1, swarm.Removes())
	assert.Equal(t, []types.HandleEvent{types.EventJoin, types.EventLeave, types.EventClose}, rec.list())

	select {
	case <-h.Done():
	default:
		t.Fatal("Done 通道应已关闭")
	}
}

func TestHandle_CloseEmittedAfterDriveClose(t *testing.T) {
	h, drive, _ := newWritable(t)

	var closedBefore int
	h.On(types.EventClose, func() { closedBefore = drive.Closed() })

	require.NoError(t, h.Close())
	assert.Equal(t, 1, closedBefore)
}

func TestHandle_CloseReturnsDriveError(t *testing.T) {
	h, drive, _ := newWritable(t)
	boom := errors.New("disk gone")
	drive.CloseFunc = func() error { return boom }

	assert.ErrorIs(t, h.Close(), boom)
	assert.False(t, h.IsOpen())
}

func TestHandle_ForceCloseDropsLocks(t *testing.T) {
	h, drive, swarm := newWritable(t)
	rec := record(h)
	require.NoError(t, h.JoinSwarm(context.Background(), types.SwarmOptions{}))
	h.Lock("sync")

	require.NoError(t, h.Close())
	assert.True(t, h.IsOpen())

	require.NoError(t, h.ForceClose())
	assert.False(t, h.IsOpen())
	assert.False(t, h.IsSwarming())
	assert.False(t, h.Locked())
	assert.Equal(t, 1, drive.Closed())
	assert.Equal(t, 1, swarm.Removes())
	assert.Equal(t, []types.HandleEvent{types.EventJoin, types.EventLeave, types.EventClose}, rec.list())

	require.NoError(t, h.ForceClose())
	assert.Equal(t, 1, drive.Closed())
}

func TestHandle_ListenerMayReenter(t *testing.T) {
	h, drive, swarm := newWritable(t)
	h.On(types.EventJoin, func() { _ = h.LeaveSwarm() })
	h.On(types.EventLeave, func() { _ = h.Close() })

	done := make(chan error, 1)
	go func() { done <- h.JoinSwarm(context.Background(), types.SwarmOptions{}) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("回调中操作同一句柄不应死锁")
	}
	assert.False(t, h.IsOpen())
	assert.Equal(t, 1, swarm.Removes())
	assert.Equal(t, 1, drive.Closed())
}

func TestHandle_OnCancel(t *testing.T) {
	h, _, _ := newWritable(t)

	calls := 0
	cancel := h.On(types.EventJoin, func() { calls++ })
	cancel()
	cancel()

	require.NoError(t, h.JoinSwarm(context.Background(), types.SwarmOptions{}))
	assert.Zero(t, calls)
}

func TestHandle_PublishesOnBus(t *testing.T) {
	bus := eventbus.NewBus()
	subJoin, err := bus.Subscribe(new(types.EvtSwarmJoined))
	require.NoError(t, err)
	defer subJoin.Close()
	subLeave, err := bus.Subscribe(new(types.EvtSwarmLeft))
	require.NoError(t, err)
	defer subLeave.Close()
	subClose, err := bus.Subscribe(new(types.EvtHandleClosed))
	require.NoError(t, err)
	defer subClose.Close()

	drive := mocks.NewMockDrive(testAddr, true)
	h := New(drive, mocks.NewMockSwarm(), Options{Bus: bus, Persisted: true})
	assert.True(t, h.IsPersisted())

	require.NoError(t, h.JoinSwarm(context.Background(), types.SwarmOptions{}))
	require.NoError(t, h.Close())

	expect := func(sub pkgif.Subscription, want interface{}) {
		t.Helper()
		select {
		case got := <-sub.Out():
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("未收到事件 %T", want)
		}
	}
	expect(subJoin, types.EvtSwarmJoined{Address: testAddr})
	expect(subLeave, types.EvtSwarmLeft{Address: testAddr})
	expect(subClose, types.EvtHandleClosed{Address: testAddr})
}
