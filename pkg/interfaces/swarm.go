package interfaces

import "github.com/dep2p/go-dat/pkg/types"

//go:generate go run go.uber.org/mock/mockgen -destination=mock/swarm.go -package=mock . Swarm

// Swarm 驱动器的网络存在
//
// 同一 Loader 下的所有句柄共享一个 Swarm。
type Swarm interface {
	// Add 开始为驱动器公告与查找对端
	Add(drive Drive, opts types.SwarmOptions) error

	// Remove 停止为驱动器复制
	Remove(drive Drive) error

	// Close 关闭网络，之后的调用返回错误
	Close() error
}

// SwarmFactory 构造 Swarm
type SwarmFactory func() (Swarm, error)
