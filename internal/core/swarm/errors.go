package swarm

import "errors"

var (
	// ErrSwarmClosed Swarm 已关闭
	ErrSwarmClosed = errors.New("swarm closed")

	// ErrNotReplicator 驱动器不支持块复制
	ErrNotReplicator = errors.New("swarm: drive does not support replication")
)
