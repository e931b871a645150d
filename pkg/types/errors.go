package types

import "errors"

var (
	// ErrInvalidAddress 地址不是 32 字节公钥的十六进制形式
	ErrInvalidAddress = errors.New("invalid dat address")

	// ErrInvalidKeyLength 密钥长度错误
	ErrInvalidKeyLength = errors.New("invalid key length")
)

// 文件系统错误，与 fs.ErrNotExist、fs.ErrExist 一起使用，
// 通常包装在 *fs.PathError 中返回。
var (
	// ErrIsDir 目标是目录
	ErrIsDir = errors.New("is a directory")

	// ErrNotDir 目标或其上级不是目录
	ErrNotDir = errors.New("not a directory")

	// ErrNotEmpty 目录非空
	ErrNotEmpty = errors.New("directory not empty")

	// ErrReadOnly 驱动器或快照不可写
	ErrReadOnly = errors.New("read-only file system")
)
