package dns

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/golang-lru/v2/expirable"
	miekg "github.com/miekg/dns"

	"github.com/dep2p/go-dat/pkg/lib/log"
	"github.com/dep2p/go-dat/pkg/types"
)

var logger = log.Logger("discovery/dns")

// 常量定义
const (
	// RecordPrefix TXT 记录前缀
	RecordPrefix = "datkey="

	// resolvConf 系统解析器配置
	resolvConf = "/etc/resolv.conf"

	// fallbackServer resolv.conf 不可用时使用的服务器
	fallbackServer = "127.0.0.1:53"
)

// cacheEntry 缓存条目
type cacheEntry struct {
	addr      types.Address
	expiresAt time.Time
}

// Option 解析器选项
type Option func(*Resolver)

// WithClock 设置判断缓存过期所用的时钟
func WithClock(c clock.Clock) Option {
	return func(r *Resolver) { r.clock = c }
}

// Resolver dat 名称解析器
type Resolver struct {
	config Config
	server string
	client *miekg.Client
	clock  clock.Clock

	// 缓存，条目按记录 TTL 过期，LRU 自身的 TTL 为 MaxTTL
	cache *expirable.LRU[string, cacheEntry]
}

// NewResolver 创建解析器
func NewResolver(config Config, opts ...Option) (*Resolver, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("dns: %w", err)
	}

	r := &Resolver{
		config: config,
		server: config.Server,
		client: &miekg.Client{Net: "udp", Timeout: config.Timeout},
		clock:  clock.New(),
		cache:  expirable.NewLRU[string, cacheEntry](config.CacheSize, nil, config.MaxTTL),
	}
	for _, opt := range opts {
		opt(r)
	}

	// 配置 DNS 服务器
	if r.server == "" {
		r.server = systemServer()
	}
	return r, nil
}

func systemServer() string {
	cc, err := miekg.ClientConfigFromFile(resolvConf)
	if err != nil || len(cc.Servers) == 0 {
		return fallbackServer
	}
	return net.JoinHostPort(cc.Servers[0], cc.Port)
}

// Server 返回使用的 DNS 服务器
func (r *Resolver) Server() string {
	return r.server
}

// Resolve 解析名称为驱动器地址
//
// name 可以带 dat:// 前缀、路径与版本后缀，只使用主机部分。
func (r *Resolver) Resolve(ctx context.Context, name string) (types.Address, error) {
	host := Hostname(name)
	if host == "" {
		return types.Address{}, ErrEmptyDomain
	}

	// 地址本身
	if addr, err := types.ParseAddress(host); err == nil {
		return addr, nil
	}
	if err := ValidateDomain(host); err != nil {
		return types.Address{}, err
	}

	// 检查缓存
	if entry, ok := r.cache.Get(host); ok {
		if r.clock.Now().Before(entry.expiresAt) {
			logger.Debug("使用缓存的 DNS 结果", "name", host, "address", entry.addr.ShortString())
			return entry.addr, nil
		}
		r.cache.Remove(host)
	}

	addr, ttl, err := r.lookup(ctx, host)
	if err != nil {
		return types.Address{}, err
	}

	r.cache.Add(host, cacheEntry{addr: addr, expiresAt: r.clock.Now().Add(ttl)})
	logger.Debug("名称已解析",
		"name", host,
		"address", addr.ShortString(),
		"ttl", ttl)
	return addr, nil
}

// lookup 查询 TXT 记录
func (r *Resolver) lookup(ctx context.Context, host string) (types.Address, time.Duration, error) {
	m := new(miekg.Msg)
	m.SetQuestion(miekg.Fqdn(host), miekg.TypeTXT)
	m.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, m, r.server)
	if err != nil {
		return types.Address{}, 0, fmt.Errorf("dns: query %s: %w", host, err)
	}
	switch resp.Rcode {
	case miekg.RcodeSuccess:
	case miekg.RcodeNameError:
		return types.Address{}, 0, fmt.Errorf("%w: %s", ErrNotFound, host)
	default:
		return types.Address{}, 0, fmt.Errorf("dns: query %s: %s", host, miekg.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		txt, ok := rr.(*miekg.TXT)
		if !ok {
			continue
		}
		addr, err := ParseRecord(strings.Join(txt.Txt, ""))
		if err != nil {
			logger.Debug("跳过无效的 TXT 记录", "name", host, "txt", txt.Txt, "err", err)
			continue
		}
		return addr, r.clampTTL(time.Duration(txt.Hdr.Ttl) * time.Second), nil
	}
	return types.Address{}, 0, fmt.Errorf("%w: %s", ErrNotFound, host)
}

func (r *Resolver) clampTTL(ttl time.Duration) time.Duration {
	if ttl < r.config.MinTTL {
		return r.config.MinTTL
	}
	if ttl > r.config.MaxTTL {
		return r.config.MaxTTL
	}
	return ttl
}

// ============================================================================
//                              缓存管理
// ============================================================================

// ClearCache 清除缓存
func (r *Resolver) ClearCache() {
	r.cache.Purge()
}

// CacheLen 缓存条目数
func (r *Resolver) CacheLen() int {
	return r.cache.Len()
}

// ============================================================================
//                              记录解析
// ============================================================================

// ParseRecord 解析 "datkey=<hex>" 记录
func ParseRecord(record string) (types.Address, error) {
	record = strings.TrimSpace(record)
	if !strings.HasPrefix(record, RecordPrefix) {
		return types.Address{}, ErrInvalidRecord
	}
	addr, err := types.ParseAddress(strings.TrimPrefix(record, RecordPrefix))
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return addr, nil
}

// Hostname 从 dat URL 或名称中取出小写主机名
//
//	dat://Example.com+12/path → example.com
func Hostname(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	if i := strings.IndexAny(name, "/?#"); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '+'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// ============================================================================
//                              域名验证
// ============================================================================

// ValidateDomain 验证域名格式
func ValidateDomain(domain string) error {
	if domain == "" {
		return ErrInvalidDomain
	}

	// 基本域名格式检查
	if len(domain) > 253 {
		return fmt.Errorf("%w: domain too long", ErrInvalidDomain)
	}

	labels := strings.Split(domain, ".")
	for _, label := range labels {
		if len(label) == 0 {
			return fmt.Errorf("%w: empty label", ErrInvalidDomain)
		}
		if len(label) > 63 {
			return fmt.Errorf("%w: label too long", ErrInvalidDomain)
		}
		// 检查首字符
		if !isAlphaNum(label[0]) {
			return fmt.Errorf("%w: label must start with alphanumeric", ErrInvalidDomain)
		}
		// 检查尾字符（不能以 - 结尾）
		if label[len(label)-1] == '-' {
			return fmt.Errorf("%w: label must not end with hyphen", ErrInvalidDomain)
		}
		// 检查所有字符
		for _, c := range label {
			if !isAlphaNum(byte(c)) && c != '-' && c != '_' {
				return fmt.Errorf("%w: invalid character in label", ErrInvalidDomain)
			}
		}
	}

	return nil
}

func isAlphaNum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
