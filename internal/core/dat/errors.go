package dat

import "errors"

var (
	// ErrClosed 句柄已关闭
	ErrClosed = errors.New("dat: handle closed")
)
