package logdrive

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/lib/crypto"
	"github.com/dep2p/go-dat/pkg/lib/log"
	"github.com/dep2p/go-dat/pkg/types"
)

var logger = log.Logger("drive/logdrive")

// 存储中的文件名
const (
	FileKey       = "metadata/key"
	FileSecretKey = "metadata/secret_key"
	FileData      = "metadata/data"
)

// Option 驱动器选项
type Option func(*Drive)

// WithClock 设置生成 mtime 的时钟
func WithClock(c clock.Clock) Option {
	return func(d *Drive) { d.clock = c }
}

// Drive 签名追加日志驱动器
type Drive struct {
	storage pkgif.Storage
	key     types.Address
	opts    types.DriveOptions
	clock   clock.Clock

	readyOnce sync.Once
	readyErr  error

	mu      sync.RWMutex
	opened  bool
	closed  bool
	secret  []byte
	data    pkgif.RandomAccess
	size    int64
	blocks  []types.Block
	ops     []op
	head    []byte
	tree    *tree
	updated chan struct{}

	wantOnce sync.Once
	wanted   chan struct{}
	closedC  chan struct{}
}

var (
	_ pkgif.Drive      = (*Drive)(nil)
	_ pkgif.FileSystem = (*Drive)(nil)
	_ pkgif.Replicator = (*Drive)(nil)
	_ pkgif.KeyHolder  = (*Drive)(nil)
)

// New 创建驱动器，Ready 之前不访问存储
func New(storage pkgif.Storage, key types.Address, opts types.DriveOptions, options ...Option) *Drive {
	d := &Drive{
		storage: storage,
		key:     key,
		opts:    opts.Clone(),
		clock:   clock.New(),
		head:    key.Bytes(),
		tree:    newTree(),
		updated: make(chan struct{}),
		wanted:  make(chan struct{}),
		closedC: make(chan struct{}),
	}
	for _, o := range options {
		o(d)
	}
	if !d.opts.IsSparse() {
		d.want()
	}
	return d
}

// Factory 实现 interfaces.DriveFactory
func Factory(storage pkgif.Storage, key []byte, opts types.DriveOptions) (pkgif.Drive, error) {
	addr, err := types.AddressFromBytes(key)
	if err != nil {
		return nil, err
	}
	if opts.SecretKey != nil {
		if err := crypto.MatchSecret(key, opts.SecretKey); err != nil {
			return nil, err
		}
	}
	return New(storage, addr, opts), nil
}

// Key 驱动器公钥
func (d *Drive) Key() types.Address { return d.key }

// DiscoveryKey 发现密钥
func (d *Drive) DiscoveryKey() types.DiscoveryKey { return d.key.DiscoveryKey() }

// Writable 本地是否持有私钥
func (d *Drive) Writable() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.secret != nil
}

// Metadata 元数据 feed
func (d *Drive) Metadata() pkgif.Feed { return (*feed)(d) }

// ============================================================================
//                              打开
// ============================================================================

// Ready 打开存储、校验公钥、安装私钥并重放日志
func (d *Drive) Ready(ctx context.Context) error {
	d.readyOnce.Do(func() {
		d.readyErr = d.open(ctx)
	})
	return d.readyErr
}

func (d *Drive) open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if err := d.openKey(); err != nil {
		return err
	}
	if err := d.openSecret(); err != nil {
		return err
	}
	if err := d.replay(); err != nil {
		return err
	}
	d.opened = true

	logger.Debug("驱动器已打开",
		"address", d.key.ShortString(),
		"length", len(d.blocks),
		"writable", d.secret != nil)
	return nil
}

func (d *Drive) openKey() error {
	f, err := d.storage.Open(FileKey)
	if err != nil {
		return fmt.Errorf("open %s: %w", FileKey, err)
	}
	size, err := f.Size()
	if err != nil {
		return err
	}
	if size == 0 {
		_, err := f.WriteAt(d.key.Bytes(), 0)
		return err
	}

	stored := make([]byte, size)
	if err := readFull(f, stored, 0); err != nil {
		return err
	}
	if addr, err := types.AddressFromBytes(stored); err != nil || addr != d.key {
		return ErrKeyMismatch
	}
	return nil
}

func (d *Drive) openSecret() error {
	if d.opts.SecretKey != nil {
		return d.storeSecret(d.opts.SecretKey)
	}

	f, err := d.storage.Open(FileSecretKey)
	if err != nil {
		return fmt.Errorf("open %s: %w", FileSecretKey, err)
	}
	size, err := f.Size()
	if err != nil || size == 0 {
		return err
	}
	sk := make([]byte, size)
	if err := readFull(f, sk, 0); err != nil {
		return err
	}
	if err := crypto.MatchSecret(d.key.Bytes(), sk); err != nil {
		logger.Warn("忽略无效的已存私钥", "address", d.key.ShortString(), "error", err)
		return nil
	}
	d.secret = sk
	return nil
}

// storeSecret 校验并持久化私钥，调用方持有 mu
func (d *Drive) storeSecret(sk []byte) error {
	if err := crypto.MatchSecret(d.key.Bytes(), sk); err != nil {
		return err
	}
	f, err := d.storage.Open(FileSecretKey)
	if err != nil {
		return fmt.Errorf("open %s: %w", FileSecretKey, err)
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt(sk, 0); err != nil {
		return err
	}
	d.secret = append([]byte(nil), sk...)
	return nil
}

func (d *Drive) replay() error {
	f, err := d.storage.Open(FileData)
	if err != nil {
		return fmt.Errorf("open %s: %w", FileData, err)
	}
	size, err := f.Size()
	if err != nil {
		return err
	}
	d.data = f

	var off int64
	for off < size {
		b, n, err := readRecord(f, off, size)
		if errors.Is(err, errTruncated) {
			logger.Warn("截断不完整的日志尾部", "address", d.key.ShortString(), "offset", off, "size", size)
			if err := f.Truncate(off); err != nil {
				return err
			}
			break
		}
		if err != nil {
			return err
		}
		h, o, err := verifyBlock(d.key, d.head, uint64(len(d.blocks)), b)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
		d.push(b, o, h)
		off += n
	}
	d.size = off
	return nil
}

// push 把已校验的块加入内存索引，调用方持有 mu
func (d *Drive) push(b types.Block, o op, h []byte) {
	d.blocks = append(d.blocks, b)
	d.ops = append(d.ops, o)
	d.head = h
	d.tree.apply(o, uint64(len(d.blocks)))
}

// appendLocked 持久化并加入索引，然后唤醒等待者
func (d *Drive) appendLocked(b types.Block, o op, h []byte) error {
	rec, err := encodeRecord(b)
	if err != nil {
		return err
	}
	if _, err := d.data.WriteAt(rec, d.size); err != nil {
		return fmt.Errorf("append block %d: %w", b.Index, err)
	}
	d.size += int64(len(rec))
	d.push(b, o, h)

	close(d.updated)
	d.updated = make(chan struct{})
	return nil
}

// usable 调用方持有 mu
func (d *Drive) usable() error {
	if d.closed {
		return ErrClosed
	}
	if !d.opened {
		return ErrNotReady
	}
	return nil
}

// commit 签名并追加本地操作
func (d *Drive) commit(o op) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.usable(); err != nil {
		return err
	}
	if d.secret == nil {
		return ErrNotWritable
	}
	if err := d.tree.check(o); err != nil {
		return err
	}

	payload, err := encodeOp(o)
	if err != nil {
		return err
	}
	h := crypto.Chain(d.head, payload)
	kp := crypto.KeyPair{Public: d.key.Bytes(), Secret: d.secret}
	b := types.Block{
		Index:     uint64(len(d.blocks)),
		Payload:   payload,
		Signature: kp.Sign(h),
	}
	return d.appendLocked(b, o, h)
}

// ============================================================================
//                              私钥
// ============================================================================

// SecretKey 实现 interfaces.KeyHolder
func (d *Drive) SecretKey() ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.secret == nil {
		return nil, false
	}
	return append([]byte(nil), d.secret...), true
}

// ImportSecretKey 实现 interfaces.KeyHolder
func (d *Drive) ImportSecretKey(ctx context.Context, sk []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.usable(); err != nil {
		return err
	}
	if err := d.storeSecret(sk); err != nil {
		return err
	}
	logger.Info("已导入私钥", "address", d.key.ShortString())
	return nil
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭驱动器与存储，可重复调用
func (d *Drive) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.closedC)
	d.mu.Unlock()

	return d.storage.Close()
}
