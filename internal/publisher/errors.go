package publisher

import "errors"

var (
	// ErrNotDir 发布目录不是目录
	ErrNotDir = errors.New("publisher: pubdir must be a directory")

	// ErrExists 目标文件已存在且不允许覆盖
	ErrExists = errors.New("publisher: file already exists")

	// ErrLoadTimeout 在超时前无法从网络加载 dat
	ErrLoadTimeout = errors.New("publisher: could not load the dat, someone must be seeding it to update")

	// ErrInvalidSecretKey 私钥长度错误或与地址不匹配
	ErrInvalidSecretKey = errors.New("publisher: invalid secret key")
)
