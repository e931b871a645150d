// Package manifest 读写驱动器根目录下的 dat.json
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
)

// Filename 清单文件路径
const Filename = "/dat.json"

// Manifest dat.json 内容
type Manifest struct {
	URL          string `json:"url,omitempty"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	WebRoot      string `json:"web_root,omitempty"`
	FallbackPage string `json:"fallback_page,omitempty"`
}

// Read 读取清单，文件不存在时返回空清单
func Read(ctx context.Context, fsys pkgif.FileSystem) (*Manifest, error) {
	data, err := fsys.ReadFile(ctx, Filename)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", Filename, err)
	}
	return &m, nil
}

// Write 写入清单
func Write(ctx context.Context, fsys pkgif.FileSystem, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	return fsys.WriteFile(ctx, Filename, data)
}

// Update 读取清单、修改后写回
func Update(ctx context.Context, fsys pkgif.FileSystem, fn func(m *Manifest)) error {
	m, err := Read(ctx, fsys)
	if err != nil {
		return err
	}
	fn(m)
	return Write(ctx, fsys, m)
}
