package handler

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// URL 解析后的 dat URL
type URL struct {
	// Host 地址或名称，小写
	Host string

	// Version 历史版本，0 表示最新
	Version uint64

	// Path 解码后的路径，以 / 开头
	Path string
}

// String 还原为 dat URL
func (u URL) String() string {
	var b strings.Builder
	b.WriteString("dat://")
	b.WriteString(u.Host)
	if u.Version > 0 {
		b.WriteByte('+')
		b.WriteString(strconv.FormatUint(u.Version, 10))
	}
	b.WriteString((&url.URL{Path: u.Path}).EscapedPath())
	return b.String()
}

// ParseURL 解析 dat URL，省略协议的形式同样接受
//
//	dat://example.com+3/docs/a%20b.md → {example.com 3 /docs/a b.md}
func ParseURL(raw string) (URL, error) {
	var u URL
	s := strings.TrimSpace(raw)

	if i := strings.Index(s, "://"); i >= 0 {
		if !strings.EqualFold(s[:i], "dat") {
			return u, fmt.Errorf("%w: %s", ErrNotDatURL, raw)
		}
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	host, rest := s, "/"
	if i := strings.IndexByte(s, '/'); i >= 0 {
		host, rest = s[:i], s[i:]
	}
	if i := strings.IndexByte(host, '+'); i >= 0 {
		v, err := strconv.ParseUint(host[i+1:], 10, 64)
		if err != nil {
			return u, fmt.Errorf("%w: invalid version in %s", ErrNotDatURL, raw)
		}
		host, u.Version = host[:i], v
	}
	if host == "" {
		return u, fmt.Errorf("%w: %s", ErrNotDatURL, raw)
	}
	u.Host = strings.ToLower(host)

	p, err := url.PathUnescape(rest)
	if err != nil {
		return u, fmt.Errorf("%w: %v", ErrNotDatURL, err)
	}
	u.Path = path.Clean("/" + p)
	return u, nil
}
