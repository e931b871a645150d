// Package dns 将 dat 名称解析为驱动器地址
//
// 名称通过 DNS TXT 记录发布：
//
//	example.com.  300  IN  TXT  "datkey=<64 位十六进制公钥>"
//
// Resolver.Resolve 对 64 位十六进制地址直接返回，其余名称先查缓存，
// 未命中时发出 TXT 查询。缓存时间取记录的 TTL，并限定在
// [MinTTL, MaxTTL] 之间。没有 datkey 记录的名称返回 ErrNotFound。
//
// 使用示例：
//
//	r, err := dns.NewResolver(dns.DefaultConfig())
//	addr, err := r.Resolve(ctx, "dat://example.com/index.html")
//
// 查询使用 miekg/dns 客户端，Server 为空时读取 /etc/resolv.conf。
package dns
