package handler

import (
	"context"
	"path"

	"github.com/dep2p/go-dat/internal/protocol/manifest"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
)

// Resolved 路径解析结果
type Resolved struct {
	// FS 解析所用的文件树（指定版本时为快照）
	FS pkgif.FileSystem

	// Path 命中的路径
	Path string

	// Directory 命中的是没有首页的目录
	Directory bool
}

// ResolvePath 按网站规则把请求路径映射到驱动器中的文件
//
// url 只用于 NotFoundError。
func ResolvePath(ctx context.Context, fsys pkgif.FileSystem, pathname, url string) (Resolved, error) {
	m, err := manifest.Read(ctx, fsys)
	if err != nil {
		m = &manifest.Manifest{}
	}
	root := path.Join("/", m.WebRoot)
	p := path.Join(root, pathname)

	res := Resolved{FS: fsys}
	exists := func(name string) bool {
		_, err := fsys.Stat(ctx, name)
		return err == nil
	}

	st, err := fsys.Stat(ctx, p)
	if err == nil && st.IsFile() {
		res.Path = p
		return res, nil
	}
	if p != "/" && exists(p+".html") {
		res.Path = p + ".html"
		return res, nil
	}
	if err == nil && st.IsDir() {
		for _, index := range []string{"index.html", "index.htm"} {
			if name := path.Join(p, index); exists(name) {
				res.Path = name
				return res, nil
			}
		}
		res.Path = p
		res.Directory = true
		return res, nil
	}
	if m.FallbackPage != "" {
		if name := path.Join(root, m.FallbackPage); exists(name) {
			res.Path = name
			return res, nil
		}
	}
	return res, &NotFoundError{URL: url}
}
