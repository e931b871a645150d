package logdrive

import (
	"context"

	"github.com/dep2p/go-dat/pkg/types"
)

// feed 元数据 feed 视图
type feed Drive

// Length 当前块数
func (f *feed) Length() uint64 {
	d := (*Drive)(f)
	d.mu.RLock()
	defer d.mu.RUnlock()
	return uint64(len(d.blocks))
}

// Update 阻塞直到长度增长
//
// 只读驱动器上的 Update 同时登记下载需求，等待远端长度。
func (f *feed) Update(ctx context.Context) error {
	d := (*Drive)(f)
	d.mu.RLock()
	ch := d.updated
	d.mu.RUnlock()
	if !d.Writable() {
		d.want()
	}

	select {
	case <-ch:
		return nil
	case <-d.closedC:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Download 登记下载请求
//
// 日志只能整体复制，范围只用于判断请求是否有效。
func (f *feed) Download(start, end int64) error {
	d := (*Drive)(f)
	if end >= 0 && end <= start {
		return nil
	}
	d.want()
	return nil
}

func (d *Drive) want() {
	d.wantOnce.Do(func() { close(d.wanted) })
}

// ============================================================================
//                              Replicator
// ============================================================================

// Blocks 返回 [start, end) 范围内的块
func (d *Drive) Blocks(start, end uint64) ([]types.Block, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.usable(); err != nil {
		return nil, err
	}
	if n := uint64(len(d.blocks)); end > n {
		end = n
	}
	if start >= end {
		return nil, nil
	}
	out := make([]types.Block, end-start)
	copy(out, d.blocks[start:end])
	return out, nil
}

// Append 校验并追加远端块
func (d *Drive) Append(blocks ...types.Block) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.usable(); err != nil {
		return err
	}
	for _, b := range blocks {
		if b.Index < uint64(len(d.blocks)) {
			continue
		}
		h, o, err := verifyBlock(d.key, d.head, uint64(len(d.blocks)), b)
		if err != nil {
			logger.Warn("拒绝远端块", "address", d.key.ShortString(), "index", b.Index, "error", err)
			return err
		}
		if err := d.appendLocked(b, o, h); err != nil {
			return err
		}
	}
	return nil
}

// Updated 返回在下一次追加时关闭的通道
func (d *Drive) Updated() <-chan struct{} {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.updated
}

// Wanted 返回在驱动器需要远端块时关闭的通道
func (d *Drive) Wanted() <-chan struct{} { return d.wanted }

// Done 返回驱动器关闭时关闭的通道
func (d *Drive) Done() <-chan struct{} { return d.closedC }
