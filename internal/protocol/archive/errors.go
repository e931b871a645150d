package archive

import "errors"

var (
	// ErrNotFileSystem 驱动器不提供文件树
	ErrNotFileSystem = errors.New("archive: drive does not provide a file system")

	// ErrInvalidEncoding 未知编码或内容无法按编码转换
	ErrInvalidEncoding = errors.New("archive: invalid encoding")

	// ErrNotWritable 没有私钥或是历史版本
	ErrNotWritable = errors.New("archive: not writable")

	// ErrSamePath 源与目标相同或目标位于源之内
	ErrSamePath = errors.New("archive: destination is inside source")
)
