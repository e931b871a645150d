package interfaces

import (
	"context"

	"github.com/dep2p/go-dat/pkg/types"
)

// ============================================================================
//                              Drive
// ============================================================================

// Drive 点对点版本化文件系统原语
//
// Key、Writable 与 Metadata().Length 只在 Ready 返回后有效。
type Drive interface {
	// Key 驱动器公钥
	Key() types.Address

	// DiscoveryKey 网络中使用的发现密钥
	DiscoveryKey() types.DiscoveryKey

	// Ready 等待驱动器打开完成
	Ready(ctx context.Context) error

	// Writable 本地是否持有私钥
	Writable() bool

	// Metadata 元数据 feed
	Metadata() Feed

	// Close 关闭驱动器，可重复调用
	Close() error
}

// Feed 追加式日志
type Feed interface {
	// Length 当前块数
	Length() uint64

	// Update 阻塞直到长度增长、ctx 结束或 feed 关闭
	Update(ctx context.Context) error

	// Download 请求下载 [start, end) 范围的块，end < 0 表示无上界
	//
	// 非阻塞，只登记请求。
	Download(start, end int64) error
}

// ============================================================================
//                              可选能力
// ============================================================================

// FileSystem 驱动器的文件树视图
type FileSystem interface {
	Stat(ctx context.Context, name string) (types.Stat, error)
	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, data []byte) error
	Readdir(ctx context.Context, name string) ([]string, error)
	Mkdir(ctx context.Context, name string) error
	Unlink(ctx context.Context, name string) error
	Rmdir(ctx context.Context, name string) error

	// Download 等待 name 所需的全部块到达本地，name 为空表示整个驱动器
	Download(ctx context.Context, name string) error

	// Version 当前版本，即元数据长度
	Version() uint64

	// Checkout 返回前 version 个块的只读快照
	Checkout(version uint64) (FileSystem, error)
}

// Replicator 支持块级复制的驱动器
type Replicator interface {
	Drive

	// Blocks 返回 [start, end) 范围内本地已有的块
	Blocks(start, end uint64) ([]types.Block, error)

	// Append 校验并追加远端块
	//
	// 已有的块被忽略，其余块必须从当前长度开始连续。
	Append(blocks ...types.Block) error

	// Updated 返回在本地长度下一次增长时关闭的通道
	Updated() <-chan struct{}

	// Wanted 返回在驱动器需要远端块时关闭的通道
	//
	// 非稀疏驱动器从一开始就需要，稀疏驱动器在第一次 Download 或
	// 元数据 Update 请求后需要。
	Wanted() <-chan struct{}
}

// KeyHolder 可导出与导入私钥的驱动器
type KeyHolder interface {
	// SecretKey 返回私钥，只读驱动器返回 false
	SecretKey() ([]byte, bool)

	// ImportSecretKey 安装与公钥匹配的私钥，使驱动器可写
	ImportSecretKey(ctx context.Context, sk []byte) error
}

// DriveFactory 驱动器工厂
//
// key 为驱动器公钥。新建驱动器时 opts.SecretKey 同时提供，
// 工厂应校验二者匹配。
type DriveFactory func(storage Storage, key []byte, opts types.DriveOptions) (Drive, error)
