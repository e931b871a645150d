package dat

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dat/config"
	"github.com/dep2p/go-dat/internal/core/swarm"
	"github.com/dep2p/go-dat/internal/protocol/archive"
	"github.com/dep2p/go-dat/pkg/types"
	"github.com/dep2p/go-dat/tests/testutil"
)

func startNode(t *testing.T, opts ...Option) *Node {
	t.Helper()
	node, err := Start(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = node.Close(ctx)
	})
	return node
}

func TestNode_Lifecycle(t *testing.T) {
	ctx := context.Background()
	node, err := New()
	require.NoError(t, err)

	_, err = node.CreateDat(ctx, nil)
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, node.Start(ctx))
	assert.ErrorIs(t, node.Start(ctx), ErrAlreadyStarted)
	assert.False(t, node.IsPersistent())
	assert.NotNil(t, node.Manager())
	assert.NotNil(t, node.Handler())

	h, err := node.CreateDat(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, node.Close(ctx))
	assert.False(t, h.IsOpen(), "关闭节点应关闭所有 dat")
	require.NoError(t, node.Close(ctx))

	assert.ErrorIs(t, node.Start(ctx), ErrNodeClosed)
	_, err = node.GetDat(ctx, h.Address().String(), nil)
	assert.ErrorIs(t, err, ErrNodeClosed)
}

func TestNode_InvalidOptions(t *testing.T) {
	_, err := New(WithConfig(nil))
	assert.Error(t, err)

	_, err = New(WithNetwork(nil))
	assert.Error(t, err)

	cfg := config.NewConfig()
	cfg.Log.Format = "xml"
	_, err = New(WithConfig(cfg))
	assert.Error(t, err)
}

func TestNode_Replicate(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), testutil.DefaultTimeout)
	defer cancel()
	net := swarm.NewNetwork()
	owner := startNode(t, WithNetwork(net), WithPeerID("owner"))
	reader := startNode(t, WithNetwork(net), WithPeerID("reader"))

	h, err := owner.CreateDat(ctx, nil)
	require.NoError(t, err)
	a, err := archive.New(h)
	require.NoError(t, err)
	require.NoError(t, a.WriteFileString(ctx, "/hello.txt", "hi", archive.UTF8))

	rh, err := reader.GetDat(ctx, h.Address().URL(), nil)
	require.NoError(t, err)
	assert.Equal(t, h.Address(), rh.Address())

	replica, err := archive.New(rh)
	require.NoError(t, err)
	s, err := replica.ReadFileString(ctx, "/hello.txt", archive.UTF8)
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
}

func TestNode_SwarmDisabled(t *testing.T) {
	ctx := context.Background()
	net := swarm.NewNetwork()
	cfg := config.NewConfig()
	cfg.Swarm.Disabled = true

	node := startNode(t, WithConfig(cfg), WithNetwork(net))
	_, err := node.CreateDat(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, net.Topics(), "禁用网络时不应加入共享网络")
}

func TestNode_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	node, err := Start(ctx, WithDataDir(dir))
	require.NoError(t, err)
	assert.True(t, node.IsPersistent())

	h, err := node.CreateDat(ctx, &types.DatOptions{Persist: types.Bool(true)})
	require.NoError(t, err)
	assert.True(t, h.IsPersisted())
	a, err := archive.New(h)
	require.NoError(t, err)
	require.NoError(t, a.WriteFileString(ctx, "/kept.txt", "kept", archive.UTF8))
	addr := h.Address().String()
	require.NoError(t, node.Close(ctx))

	// 重新打开同一数据目录
	node = startNode(t, WithDataDir(dir))
	h, err = node.GetDat(ctx, addr, &types.DatOptions{Persist: types.Bool(true)})
	require.NoError(t, err)
	require.NoError(t, h.Ready(ctx))
	assert.True(t, h.IsOwner())
	a, err = archive.New(h)
	require.NoError(t, err)
	s, err := a.ReadFileString(ctx, "/kept.txt", archive.UTF8)
	require.NoError(t, err)
	assert.Equal(t, "kept", s)

	require.NoError(t, node.DeleteDatData(ctx, addr))
	_, ok := node.Manager().Get(addr)
	assert.False(t, ok)
}

func TestNode_CloseForcesLockedDat(t *testing.T) {
	ctx := context.Background()
	node, err := Start(ctx, WithDataDir(t.TempDir()))
	require.NoError(t, err)

	h, err := node.CreateDat(ctx, &types.DatOptions{Persist: types.Bool(true)})
	require.NoError(t, err)
	require.True(t, h.IsSwarming())
	h.Lock("sync")

	require.NoError(t, node.Close(ctx))
	assert.False(t, h.IsOpen(), "节点关闭应关闭持有锁的 dat")
	assert.False(t, h.IsSwarming())
	assert.Zero(t, node.Manager().Len())
	select {
	case <-h.Done():
	default:
		t.Fatal("Done 通道应已关闭")
	}
}

func TestNode_Subscribe(t *testing.T) {
	ctx := context.Background()
	node := startNode(t)

	sub, err := node.Subscribe(new(types.EvtDatCreated))
	require.NoError(t, err)
	defer sub.Close()

	h, err := node.CreateDat(ctx, nil)
	require.NoError(t, err)

	evt := testutil.WaitForEvent(t, sub.Out(), "dat 创建事件").(types.EvtDatCreated)
	assert.Equal(t, h.Address(), evt.Address)
}

func TestNode_Gateway(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	node := startNode(t, WithGateway("127.0.0.1:0"), WithRegistry(reg))

	h, err := node.CreateDat(ctx, nil)
	require.NoError(t, err)
	a, err := archive.New(h)
	require.NoError(t, err)
	require.NoError(t, a.WriteFileString(ctx, "/index.html", testutil.IndexHTML, archive.UTF8))

	addr, err := node.GatewayAddr()
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/" + h.Address().String() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, testutil.IndexHTML, string(body))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families, "指标应注册到传入的注册表")
}

func TestNode_GatewayDisabled(t *testing.T) {
	node := startNode(t)
	_, err := node.GatewayAddr()
	assert.ErrorIs(t, err, ErrGatewayDisabled)
}

func TestNode_ResolveHex(t *testing.T) {
	node := startNode(t)
	addr := types.MustParseAddress("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	got, err := node.Resolve(context.Background(), "dat://"+addr.String()+"/path")
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestVersionInfo(t *testing.T) {
	assert.Equal(t, "go-dat "+Version, VersionInfo())

	GitCommit = "0123456789abcdef"
	defer func() { GitCommit = "" }()
	assert.Equal(t, "go-dat "+Version+" (01234567)", VersionInfo())
}
