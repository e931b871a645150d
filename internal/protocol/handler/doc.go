// Package handler 实现 dat:// URL 的读取与 HTTP 网关
//
// # URL 格式
//
//	dat://<host>[+<version>]/<path>
//
// host 为 64 位十六进制地址或可通过 DNS 解析的名称，version 为可选的
// 历史版本号。
//
// # 路径解析
//
// ResolvePath 依次尝试（均相对 dat.json 中的 web_root）：
//
//  1. 路径本身是文件
//  2. 路径加 .html
//  3. 路径是目录时的 index.html、index.htm
//  4. 目录本身（返回 Directory=true）
//  5. dat.json 中的 fallback_page
//
// 都不存在时返回 *NotFoundError。
//
// # 读取
//
// Handler.Open 解析名称、以 DefaultLoadOptions 加载 dat、等待就绪并
// 返回文件内容。加载与等待受超时限制，超时返回 *NetworkTimeoutError。
//
// # 网关
//
// Handler 实现 http.Handler，请求路径 /<host>/<path> 对应
// dat://<host>/<path>。Server 在此基础上提供 /metrics 与 /health。
package handler
