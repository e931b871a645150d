package handler

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

// ServeHTTP 实现 http.Handler
//
// GET /<host>/<path> 返回 dat://<host>/<path> 的内容。
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.EscapedPath(), "/")
	if rest == "" {
		http.Error(w, "missing dat host", http.StatusBadRequest)
		return
	}
	host, p, _ := strings.Cut(rest, "/")

	data, name, err := h.Fetch(r.Context(), "dat://"+host+"/"+p)
	if err != nil {
		status := StatusCode(err)
		logger.Debug("网关请求失败", "path", r.URL.Path, "status", status, "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(data)
	}
}

// StatusCode 把读取错误映射为 HTTP 状态码
func StatusCode(err error) int {
	var (
		notFound *NotFoundError
		isDir    *IsADirectoryError
		timeout  *NetworkTimeoutError
	)
	switch {
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.As(err, &isDir):
		return http.StatusForbidden
	case errors.Is(err, ErrNotDatURL):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
