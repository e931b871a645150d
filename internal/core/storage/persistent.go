package storage

import (
	"context"
	"fmt"

	"github.com/dep2p/go-dat/internal/core/storage/engine"
	"github.com/dep2p/go-dat/internal/core/storage/kv"
	"github.com/dep2p/go-dat/internal/core/storage/kvfile"
	"github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/lib/log"
	"github.com/dep2p/go-dat/pkg/types"
)

var logger = log.Logger("core/storage")

// DatPrefix 所有 dat 数据的根前缀
const DatPrefix = "dat/"

// Persistent 基于键值引擎的持久驱动器存储
type Persistent struct {
	root *kv.Store
}

// NewPersistent 在引擎上创建持久存储
func NewPersistent(eng engine.InternalEngine) *Persistent {
	return &Persistent{root: kv.New(eng, []byte(DatPrefix))}
}

// Factory 打开 hexAddr 对应的存储，签名与 interfaces.StorageFactory 一致
func (p *Persistent) Factory(ctx context.Context, hexAddr string) (interfaces.Storage, error) {
	if err := checkHex(hexAddr); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debug("打开持久存储", "address", hexAddr)
	return kvfile.New(p.root.Sub([]byte(hexAddr + "/"))), nil
}

// Delete 删除 hexAddr 的全部数据，签名与 interfaces.StorageDeleter 一致
func (p *Persistent) Delete(ctx context.Context, hexAddr string) error {
	if err := checkHex(hexAddr); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := p.root.DeletePrefix([]byte(hexAddr + "/"))
	if err != nil {
		return fmt.Errorf("delete dat storage %s: %w", hexAddr, err)
	}
	logger.Info("已删除持久存储", "address", hexAddr, "keys", n)
	return nil
}

// Addresses 列出有持久数据的 dat 地址
func (p *Persistent) Addresses() ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	err := p.root.PrefixScan(nil, func(key, _ []byte) bool {
		if len(key) < 64 {
			return true
		}
		hexAddr := string(key[:64])
		if _, ok := seen[hexAddr]; !ok {
			seen[hexAddr] = struct{}{}
			out = append(out, hexAddr)
		}
		return true
	})
	return out, err
}

// checkHex 拒绝非规范地址，避免前缀越界删除
func checkHex(hexAddr string) error {
	a, err := types.ParseAddress(hexAddr)
	if err != nil {
		return err
	}
	if a.String() != hexAddr {
		return fmt.Errorf("%w: address must be lowercase hex", types.ErrInvalidAddress)
	}
	return nil
}
