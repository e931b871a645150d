package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/types"
)

type testEvent struct {
	N int
}

func TestBus_SubscribeEmit(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(testEvent))
	require.NoError(t, err)
	defer sub.Close()

	em, err := bus.Emitter(new(testEvent))
	require.NoError(t, err)
	defer em.Close()

	require.NoError(t, em.Emit(testEvent{N: 1}))

	select {
	case evt := <-sub.Out():
		assert.Equal(t, testEvent{N: 1}, evt)
	case <-time.After(time.Second):
		t.Fatal("未收到事件")
	}
}

func TestBus_InvalidTypes(t *testing.T) {
	bus := NewBus()

	_, err := bus.Subscribe(nil)
	assert.ErrorIs(t, err, ErrInvalidEventType)

	_, err = bus.Subscribe(testEvent{})
	assert.ErrorIs(t, err, ErrNonPointerType)

	_, err = bus.Emitter(testEvent{})
	assert.ErrorIs(t, err, ErrNonPointerType)
}

func TestBus_TypesAreIsolated(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(types.EvtDatClosed))
	require.NoError(t, err)
	defer sub.Close()

	em, err := bus.Emitter(new(testEvent))
	require.NoError(t, err)
	require.NoError(t, em.Emit(testEvent{}))

	select {
	case evt := <-sub.Out():
		t.Fatalf("收到了不相关的事件: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(testEvent), pkgif.BufSize(1))
	require.NoError(t, err)
	defer sub.Close()

	em, _ := bus.Emitter(new(testEvent))
	for i := 0; i < 5; i++ {
		require.NoError(t, em.Emit(testEvent{N: i}))
	}

	assert.Equal(t, testEvent{N: 0}, <-sub.Out())
	assert.Len(t, sub.Out(), 0)
}

func TestBus_Lossless(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(testEvent), pkgif.BufSize(1), pkgif.Lossless())
	require.NoError(t, err)
	defer sub.Close()

	em, _ := bus.Emitter(new(testEvent))

	const n = 50
	go func() {
		for i := 0; i < n; i++ {
			_ = em.Emit(testEvent{N: i})
		}
	}()

	for i := 0; i < n; i++ {
		select {
		case evt := <-sub.Out():
			assert.Equal(t, testEvent{N: i}, evt)
		case <-time.After(time.Second):
			t.Fatalf("第 %d 个事件超时", i)
		}
	}
}

func TestBus_LosslessCloseUnblocksEmitter(t *testing.T) {
	bus := NewBus()

	sub, _ := bus.Subscribe(new(testEvent), pkgif.BufSize(0), pkgif.Lossless())
	em, _ := bus.Emitter(new(testEvent))

	done := make(chan struct{})
	go func() {
		_ = em.Emit(testEvent{})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, sub.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("关闭订阅后发射方仍被阻塞")
	}
}

func TestBus_Stateful(t *testing.T) {
	bus := NewBus()

	em, _ := bus.Emitter(new(testEvent), pkgif.Stateful())
	require.NoError(t, em.Emit(testEvent{N: 7}))

	sub, _ := bus.Subscribe(new(testEvent))
	defer sub.Close()

	assert.Equal(t, testEvent{N: 7}, <-sub.Out())
}

func TestEmitter_Closed(t *testing.T) {
	bus := NewBus()
	em, _ := bus.Emitter(new(testEvent))

	require.NoError(t, em.Close())
	require.NoError(t, em.Close())
	assert.ErrorIs(t, em.Emit(testEvent{}), ErrEmitterClosed)
	assert.Empty(t, bus.GetAllEventTypes())
}

func TestSubscription_CloseTwice(t *testing.T) {
	bus := NewBus()
	sub, _ := bus.Subscribe(new(testEvent))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Out()
	assert.False(t, ok)
}

func TestBus_ConcurrentEmit(t *testing.T) {
	bus := NewBus()
	sub, _ := bus.Subscribe(new(testEvent), pkgif.BufSize(1000))
	defer sub.Close()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			em, _ := bus.Emitter(new(testEvent))
			defer em.Close()
			for i := 0; i < 50; i++ {
				_ = em.Emit(testEvent{N: i})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, sub.Out(), 500)
}

func TestModule(t *testing.T) {
	var bus pkgif.EventBus
	app := fxtest.New(t,
		Module(),
		fx.Populate(&bus),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, bus)

	_, err := bus.Subscribe(new(testEvent))
	assert.NoError(t, err)
}
