package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// AddressSize 地址（ed25519 公钥）字节长度
const AddressSize = 32

// discoveryNamespace 发现密钥的哈希输入
var discoveryNamespace = []byte("hypercore")

// ============================================================================
//                              Address
// ============================================================================

// Address 驱动器地址，即元数据 feed 的公钥
type Address [AddressSize]byte

// ParseAddress 解析十六进制地址
//
// 接受 64 个十六进制字符（大小写不敏感），允许 dat:// 前缀与末尾的 /。
func ParseAddress(s string) (Address, error) {
	var a Address

	s = strings.TrimSpace(s)
	if len(s) >= 6 && strings.EqualFold(s[:6], "dat://") {
		s = s[6:]
	}
	s = strings.TrimSuffix(s, "/")

	if len(s) != hex.EncodedLen(AddressSize) {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return a, nil
}

// MustParseAddress 解析地址，失败时 panic，仅用于测试与常量
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes 从原始公钥构造地址
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, fmt.Errorf("%w: got %d bytes", ErrInvalidKeyLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// String 返回小写十六进制形式，同时也是 Manager 注册表的键
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// ShortString 返回前 8 个字符，用于日志
func (a Address) ShortString() string {
	return a.String()[:8]
}

// Bytes 返回公钥副本
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// IsZero 是否为零值
func (a Address) IsZero() bool {
	return a == Address{}
}

// URL 返回 dat:// 形式
func (a Address) URL() string {
	return "dat://" + a.String()
}

// DiscoveryKey 派生发现密钥
func (a Address) DiscoveryKey() DiscoveryKey {
	h, err := blake2b.New256(a[:])
	if err != nil {
		// 32 字节密钥在 blake2b 允许范围内
		panic(err)
	}
	h.Write(discoveryNamespace)

	var dk DiscoveryKey
	copy(dk[:], h.Sum(nil))
	return dk
}

// ============================================================================
//                              DiscoveryKey
// ============================================================================

// DiscoveryKey 用于在网络中查找驱动器而不暴露公钥
type DiscoveryKey [32]byte

// String 返回小写十六进制形式
func (d DiscoveryKey) String() string {
	return hex.EncodeToString(d[:])
}
