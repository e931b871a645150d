package types

import (
	"io/fs"
	"time"
)

// Stat 文件或目录的元信息
type Stat struct {
	Name    string      `json:"name"`
	Mode    fs.FileMode `json:"mode"`
	Size    int64       `json:"size"`
	Mtime   time.Time   `json:"mtime"`
	Version uint64      `json:"version"` // 最后一次修改所在的日志版本
}

// IsDir 是否为目录
func (s Stat) IsDir() bool { return s.Mode.IsDir() }

// IsFile 是否为普通文件
func (s Stat) IsFile() bool { return s.Mode.IsRegular() }

// Block 元数据 feed 中的一个签名块
type Block struct {
	Index     uint64 `json:"index"`
	Payload   []byte `json:"payload"`
	Signature []byte `json:"signature"`
}
