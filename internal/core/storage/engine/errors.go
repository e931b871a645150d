package engine

import "errors"

var (
	ErrNotFound             = errors.New("storage: key not found")
	ErrEmptyKey             = errors.New("storage: empty key")
	ErrClosed               = errors.New("storage: engine closed")
	ErrReadOnly             = errors.New("storage: read-only mode")
	ErrInvalidConfig        = errors.New("storage: invalid configuration")
	ErrTransactionConflict  = errors.New("storage: transaction conflict")
	ErrTransactionTooLarge  = errors.New("storage: transaction too large")
	ErrTransactionDiscarded = errors.New("storage: transaction discarded")
	ErrCorrupted            = errors.New("storage: data corrupted")
)

// IsNotFound 键不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClosed 引擎已关闭
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}
