package logdrive

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dep2p/go-dat/pkg/types"
)

var (
	// ErrClosed 驱动器已关闭
	ErrClosed = errors.New("logdrive: closed")

	// ErrNotReady Ready 尚未成功完成
	ErrNotReady = errors.New("logdrive: not ready")

	// ErrNotWritable 本地没有私钥
	ErrNotWritable = fmt.Errorf("logdrive: %w", types.ErrReadOnly)

	// ErrKeyMismatch 存储中的公钥与请求的不一致
	ErrKeyMismatch = errors.New("logdrive: stored key does not match")

	// ErrInvalidBlock 块签名、序号或内容无效
	ErrInvalidBlock = errors.New("logdrive: invalid block")

	// ErrCorrupted 日志记录无法解析
	ErrCorrupted = errors.New("logdrive: corrupted log")

	// ErrVersionNotFound 请求的版本超过当前长度
	ErrVersionNotFound = errors.New("logdrive: version not found")
)

func pathError(op, name string, err error) error {
	return &fs.PathError{Op: op, Path: name, Err: err}
}
