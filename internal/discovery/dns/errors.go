package dns

import "errors"

// 预定义错误
var (
	// ErrInvalidDomain 无效的域名
	ErrInvalidDomain = errors.New("dns: invalid domain")

	// ErrEmptyDomain 空域名
	ErrEmptyDomain = errors.New("dns: empty domain")

	// ErrInvalidRecord 无效的 datkey 记录
	ErrInvalidRecord = errors.New("dns: invalid datkey record")

	// ErrNotFound 名称没有 datkey 记录
	ErrNotFound = errors.New("dns: name not found")
)
