package logdrive

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dat/internal/core/storage/engine"
	"github.com/dep2p/go-dat/internal/core/storage/engine/badger"
	"github.com/dep2p/go-dat/internal/core/storage/kv"
	"github.com/dep2p/go-dat/internal/core/storage/kvfile"
	"github.com/dep2p/go-dat/internal/core/storage/ram"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/lib/crypto"
	"github.com/dep2p/go-dat/pkg/types"
)

// keepStorage 关闭时保留数据，用于模拟重新打开
type keepStorage struct {
	*ram.Storage
}

func (keepStorage) Close() error { return nil }

func newKeyPair(t *testing.T) (crypto.KeyPair, types.Address) {
	t.Helper()
	kp, err := crypto.GenerateKeyPair(nil)
	require.NoError(t, err)
	addr, err := types.AddressFromBytes(kp.Public)
	require.NoError(t, err)
	return kp, addr
}

func openDrive(t *testing.T, st pkgif.Storage, addr types.Address, opts types.DriveOptions, options ...Option) *Drive {
	t.Helper()
	d := New(st, addr, opts, options...)
	require.NoError(t, d.Ready(context.Background()))
	return d
}

func newOwner(t *testing.T) (*Drive, crypto.KeyPair) {
	t.Helper()
	kp, addr := newKeyPair(t)
	d := openDrive(t, ram.New(), addr, types.DriveOptions{SecretKey: kp.Secret})
	t.Cleanup(func() { _ = d.Close() })
	return d, kp
}

// ============================================================================
//                              文件系统
// ============================================================================

func TestDrive_WriteAndRead(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))

	kp, addr := newKeyPair(t)
	d := openDrive(t, ram.New(), addr, types.DriveOptions{SecretKey: kp.Secret}, WithClock(mock))
	defer d.Close()

	assert.True(t, d.Writable())
	require.NoError(t, d.WriteFile(ctx, "/site/index.html", []byte("<h1>hi</h1>")))
	require.NoError(t, d.WriteFile(ctx, "readme.md", []byte("# readme")))

	data, err := d.ReadFile(ctx, "site/index.html")
	require.NoError(t, err)
	assert.Equal(t, "<h1>hi</h1>", string(data))

	names, err := d.Readdir(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"readme.md", "site"}, names)

	st, err := d.Stat(ctx, "/site/index.html")
	require.NoError(t, err)
	assert.True(t, st.IsFile())
	assert.Equal(t, "index.html", st.Name)
	assert.Equal(t, int64(11), st.Size)
	assert.Equal(t, uint64(1), st.Version)
	assert.True(t, st.Mtime.Equal(mock.Now()))

	st, err = d.Stat(ctx, "/site")
	require.NoError(t, err)
	assert.True(t, st.IsDir())

	assert.Equal(t, uint64(2), d.Version())
	assert.Equal(t, uint64(2), d.Metadata().Length())
}

func TestDrive_PathErrors(t *testing.T) {
	ctx := context.Background()
	d, _ := newOwner(t)

	require.NoError(t, d.WriteFile(ctx, "/a/b.txt", []byte("b")))

	_, err := d.ReadFile(ctx, "/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	var pe *fs.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "/missing", pe.Path)

	_, err = d.ReadFile(ctx, "/a")
	assert.ErrorIs(t, err, types.ErrIsDir)

	_, err = d.Readdir(ctx, "/a/b.txt")
	assert.ErrorIs(t, err, types.ErrNotDir)

	assert.ErrorIs(t, d.Mkdir(ctx, "/a"), fs.ErrExist)
	assert.ErrorIs(t, d.Unlink(ctx, "/a"), types.ErrIsDir)
	assert.ErrorIs(t, d.Unlink(ctx, "/nope"), fs.ErrNotExist)
	assert.ErrorIs(t, d.Rmdir(ctx, "/a"), types.ErrNotEmpty)
	assert.ErrorIs(t, d.Rmdir(ctx, "/a/b.txt"), types.ErrNotDir)
	assert.ErrorIs(t, d.WriteFile(ctx, "/a/b.txt/c", nil), types.ErrNotDir)
	assert.ErrorIs(t, d.WriteFile(ctx, "/", nil), types.ErrIsDir)

	// 失败的操作不追加块
	assert.Equal(t, uint64(1), d.Version())
}

func TestDrive_RemoveTree(t *testing.T) {
	ctx := context.Background()
	d, _ := newOwner(t)

	require.NoError(t, d.Mkdir(ctx, "/empty"))
	require.NoError(t, d.WriteFile(ctx, "/dir/f", []byte("x")))
	require.NoError(t, d.Unlink(ctx, "/dir/f"))
	require.NoError(t, d.Rmdir(ctx, "/dir"))
	require.NoError(t, d.Rmdir(ctx, "/empty"))

	names, err := d.Readdir(ctx, "/")
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Equal(t, uint64(5), d.Version())
}

func TestDrive_NotReadyAndClosed(t *testing.T) {
	ctx := context.Background()
	kp, addr := newKeyPair(t)
	d := New(ram.New(), addr, types.DriveOptions{SecretKey: kp.Secret})

	assert.ErrorIs(t, d.WriteFile(ctx, "/x", nil), ErrNotReady)

	require.NoError(t, d.Ready(ctx))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.ErrorIs(t, d.WriteFile(ctx, "/x", nil), ErrClosed)
	assert.ErrorIs(t, d.Metadata().Update(ctx), ErrClosed)
}

func TestDrive_ReadOnlyRejectsWrites(t *testing.T) {
	_, addr := newKeyPair(t)
	d := openDrive(t, ram.New(), addr, types.DriveOptions{})
	defer d.Close()

	assert.False(t, d.Writable())
	err := d.WriteFile(context.Background(), "/x", nil)
	assert.ErrorIs(t, err, ErrNotWritable)
	assert.ErrorIs(t, err, types.ErrReadOnly)
}

// ============================================================================
//                              持久化
// ============================================================================

func TestDrive_ReopenReplaysLog(t *testing.T) {
	ctx := context.Background()
	st := keepStorage{ram.New()}
	kp, addr := newKeyPair(t)

	d := openDrive(t, st, addr, types.DriveOptions{SecretKey: kp.Secret})
	require.NoError(t, d.WriteFile(ctx, "/a", []byte("1")))
	require.NoError(t, d.WriteFile(ctx, "/a", []byte("2")))
	require.NoError(t, d.Close())

	// 私钥已持久化，重新打开仍可写
	d = openDrive(t, st, addr, types.DriveOptions{})
	defer d.Close()
	assert.True(t, d.Writable())
	assert.Equal(t, uint64(2), d.Version())

	data, err := d.ReadFile(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))

	require.NoError(t, d.WriteFile(ctx, "/b", []byte("3")))
	assert.Equal(t, uint64(3), d.Version())
}

func TestDrive_PersistsInKVStorage(t *testing.T) {
	ctx := context.Background()
	cfg := engine.DefaultConfig("")
	cfg.InMemory = true
	eng, err := badger.New(cfg)
	require.NoError(t, err)
	defer eng.Close()

	kp, addr := newKeyPair(t)
	store := kv.New(eng, []byte("dat/"+addr.String()+"/"))

	d := openDrive(t, kvfile.New(store), addr, types.DriveOptions{SecretKey: kp.Secret})
	big := make([]byte, 3*kvfile.PageSize+17)
	for i := range big {
		big[i] = byte(i)
	}
	require.NoError(t, d.WriteFile(ctx, "/blob", big))
	require.NoError(t, d.Close())

	d = openDrive(t, kvfile.New(store), addr, types.DriveOptions{})
	defer d.Close()
	data, err := d.ReadFile(ctx, "/blob")
	require.NoError(t, err)
	assert.Equal(t, big, data)
}

func TestDrive_TruncatedTail(t *testing.T) {
	ctx := context.Background()
	st := keepStorage{ram.New()}
	kp, addr := newKeyPair(t)

	d := openDrive(t, st, addr, types.DriveOptions{SecretKey: kp.Secret})
	require.NoError(t, d.WriteFile(ctx, "/a", []byte("1")))
	size := d.size
	require.NoError(t, d.Close())

	f, err := st.Open(FileData)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0, 0, 1}, size)
	require.NoError(t, err)

	d = openDrive(t, st, addr, types.DriveOptions{})
	defer d.Close()
	assert.Equal(t, uint64(1), d.Version())

	got, err := f.Size()
	require.NoError(t, err)
	assert.Equal(t, size, got)
}

func TestDrive_KeyMismatch(t *testing.T) {
	st := keepStorage{ram.New()}
	_, a := newKeyPair(t)
	_, b := newKeyPair(t)

	d := openDrive(t, st, a, types.DriveOptions{})
	require.NoError(t, d.Close())

	d = New(st, b, types.DriveOptions{})
	assert.ErrorIs(t, d.Ready(context.Background()), ErrKeyMismatch)
}

func TestFactory(t *testing.T) {
	kp, addr := newKeyPair(t)
	other, _ := newKeyPair(t)

	_, err := Factory(ram.New(), []byte{1, 2, 3}, types.DriveOptions{})
	assert.ErrorIs(t, err, types.ErrInvalidKeyLength)

	_, err = Factory(ram.New(), addr.Bytes(), types.DriveOptions{SecretKey: other.Secret})
	assert.ErrorIs(t, err, crypto.ErrKeyMismatch)

	d, err := Factory(ram.New(), addr.Bytes(), types.DriveOptions{SecretKey: kp.Secret})
	require.NoError(t, err)
	require.NoError(t, d.Ready(context.Background()))
	assert.True(t, d.Writable())
	assert.Equal(t, addr.DiscoveryKey(), d.DiscoveryKey())
}

// ============================================================================
//                              私钥
// ============================================================================

func TestDrive_ImportSecretKey(t *testing.T) {
	ctx := context.Background()
	kp, addr := newKeyPair(t)
	other, _ := newKeyPair(t)

	d := openDrive(t, ram.New(), addr, types.DriveOptions{})
	defer d.Close()

	_, ok := d.SecretKey()
	assert.False(t, ok)

	assert.ErrorIs(t, d.ImportSecretKey(ctx, other.Secret), crypto.ErrKeyMismatch)
	require.NoError(t, d.ImportSecretKey(ctx, kp.Secret))

	sk, ok := d.SecretKey()
	require.True(t, ok)
	assert.Equal(t, kp.Secret, sk)
	require.NoError(t, d.WriteFile(ctx, "/now-writable", nil))
}

// ============================================================================
//                              复制
// ============================================================================

func TestDrive_Replicate(t *testing.T) {
	ctx := context.Background()
	owner, _ := newOwner(t)
	require.NoError(t, owner.WriteFile(ctx, "/a", []byte("A")))
	require.NoError(t, owner.WriteFile(ctx, "/b", []byte("B")))

	replica := openDrive(t, ram.New(), owner.Key(), types.DriveOptions{})
	defer replica.Close()

	updated := replica.Updated()
	blocks, err := owner.Blocks(0, 100)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	require.NoError(t, replica.Append(blocks...))
	require.NoError(t, replica.Append(blocks[0]), "已有的块被忽略")

	select {
	case <-updated:
	default:
		t.Fatal("追加后应通知")
	}
	data, err := replica.ReadFile(ctx, "/b")
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))
	assert.False(t, replica.Writable())
}

func TestDrive_AppendRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	owner, _ := newOwner(t)
	require.NoError(t, owner.WriteFile(ctx, "/a", []byte("A")))
	require.NoError(t, owner.WriteFile(ctx, "/b", []byte("B")))
	blocks, err := owner.Blocks(0, 2)
	require.NoError(t, err)

	replica := openDrive(t, ram.New(), owner.Key(), types.DriveOptions{})
	defer replica.Close()

	// 不连续
	assert.ErrorIs(t, replica.Append(blocks[1]), ErrInvalidBlock)

	// 篡改载荷
	bad := blocks[0]
	bad.Payload = append([]byte(nil), bad.Payload...)
	bad.Payload[len(bad.Payload)-2] ^= 0xff
	assert.ErrorIs(t, replica.Append(bad), ErrInvalidBlock)

	// 另一个驱动器的块
	stranger, _ := newOwner(t)
	require.NoError(t, stranger.WriteFile(ctx, "/a", []byte("A")))
	foreign, err := stranger.Blocks(0, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, replica.Append(foreign...), ErrInvalidBlock)

	assert.Zero(t, replica.Version())
}

func TestFeed_UpdateWaitsForAppend(t *testing.T) {
	ctx := context.Background()
	owner, _ := newOwner(t)
	replica := openDrive(t, ram.New(), owner.Key(), types.DriveOptions{})
	defer replica.Close()

	done := make(chan error, 1)
	go func() { done <- replica.Metadata().Update(ctx) }()

	select {
	case <-done:
		t.Fatal("长度未增长时 Update 不应返回")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, owner.WriteFile(ctx, "/a", nil))
	blocks, err := owner.Blocks(0, 1)
	require.NoError(t, err)
	require.NoError(t, replica.Append(blocks...))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Update 未返回")
	}
}

func TestFeed_SparseWantedAfterDownload(t *testing.T) {
	_, addr := newKeyPair(t)

	full := openDrive(t, ram.New(), addr, types.DriveOptions{})
	defer full.Close()
	select {
	case <-full.Wanted():
	default:
		t.Fatal("非稀疏驱动器应立即需要块")
	}

	sparse := openDrive(t, ram.New(), addr, types.DriveOptions{Sparse: types.Bool(true)})
	defer sparse.Close()
	select {
	case <-sparse.Wanted():
		t.Fatal("稀疏驱动器在下载请求前不需要块")
	default:
	}

	require.NoError(t, sparse.Metadata().Download(0, 0))
	select {
	case <-sparse.Wanted():
		t.Fatal("空范围不登记请求")
	default:
	}

	require.NoError(t, sparse.Metadata().Download(0, -1))
	select {
	case <-sparse.Wanted():
	default:
		t.Fatal("下载请求后应需要块")
	}

	// 等待更新同样登记需求
	waiting := openDrive(t, ram.New(), addr, types.DriveOptions{Sparse: types.Bool(true)})
	defer waiting.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, waiting.Metadata().Update(ctx), context.Canceled)
	select {
	case <-waiting.Wanted():
	default:
		t.Fatal("Update 后应需要块")
	}
}

func TestDrive_DownloadWaitsForFile(t *testing.T) {
	ctx := context.Background()
	owner, _ := newOwner(t)
	replica := openDrive(t, ram.New(), owner.Key(), types.DriveOptions{Sparse: types.Bool(true)})
	defer replica.Close()

	done := make(chan error, 1)
	go func() { done <- replica.Download(ctx, "/late") }()

	require.NoError(t, owner.WriteFile(ctx, "/early", nil))
	require.NoError(t, owner.WriteFile(ctx, "/late", nil))
	blocks, err := owner.Blocks(0, 2)
	require.NoError(t, err)

	<-replica.Wanted()
	require.NoError(t, replica.Append(blocks...))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Download 未返回")
	}

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, replica.Download(cctx, "/never"), context.DeadlineExceeded)
}

// ============================================================================
//                              快照
// ============================================================================

func TestDrive_Checkout(t *testing.T) {
	ctx := context.Background()
	d, _ := newOwner(t)
	require.NoError(t, d.WriteFile(ctx, "/a", []byte("v1")))
	require.NoError(t, d.WriteFile(ctx, "/a", []byte("v2")))
	require.NoError(t, d.WriteFile(ctx, "/b", []byte("b")))

	snap, err := d.Checkout(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version())

	data, err := snap.ReadFile(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))
	_, err = snap.Stat(ctx, "/b")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	assert.ErrorIs(t, snap.WriteFile(ctx, "/c", nil), types.ErrReadOnly)
	assert.ErrorIs(t, snap.Mkdir(ctx, "/c"), types.ErrReadOnly)

	latest, err := snap.Checkout(3)
	require.NoError(t, err)
	names, err := latest.Readdir(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	_, err = d.Checkout(4)
	assert.True(t, errors.Is(err, ErrVersionNotFound))
}
