package crypto

import (
	"golang.org/x/crypto/blake2b"
)

// HashSize 链值与校验和长度
const HashSize = blake2b.Size256

// Chain 计算下一个链值 BLAKE2b-256(prev || payload)
//
// 第一个块的 prev 为公钥，链值把块序列绑定到驱动器。
func Chain(prev, payload []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write(prev)
	h.Write(payload)
	return h.Sum(nil)
}

// Checksum BLAKE2b-256 内容校验和
func Checksum(data []byte) [HashSize]byte {
	return blake2b.Sum256(data)
}
