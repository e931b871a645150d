package handler

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotDatURL URL 不是 dat:// 地址
var ErrNotDatURL = errors.New("not a dat URL")

// ErrNotFileSystem 驱动器不提供文件树
var ErrNotFileSystem = errors.New("drive does not provide a file system")

// NotFoundError 地址处没有内容
type NotFoundError struct {
	URL string
	Err error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not find content at address: %s: %v", e.URL, e.Err)
	}
	return "could not find content at address: " + e.URL
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// IsADirectoryError 路径是没有首页的目录
type IsADirectoryError struct {
	URL string
}

func (e *IsADirectoryError) Error() string {
	return e.URL + " is a directory with no index"
}

// NetworkTimeoutError 在超时前未能加载
type NetworkTimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *NetworkTimeoutError) Error() string {
	return fmt.Sprintf("timed out while loading %s after %s", e.URL, e.Timeout)
}
