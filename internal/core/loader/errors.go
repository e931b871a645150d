package loader

import "errors"

var (
	// ErrNoDriveFactory 未配置驱动器工厂
	ErrNoDriveFactory = errors.New("loader: no drive factory provided")

	// ErrNoSwarmFactory 未配置网络工厂
	ErrNoSwarmFactory = errors.New("loader: no swarm factory provided")

	// ErrNoDeleter 未配置删除函数
	ErrNoDeleter = errors.New("loader: no deletion function provided")
)
