// Package crypto 提供 dat 使用的密码学原语
//
//   - ed25519 密钥对：驱动器地址即公钥
//   - 签名哈希链：元数据日志的每个块签名覆盖 BLAKE2b(前一链值 || 块内容)
//   - 内容校验和：BLAKE2b-256
//
// 快速开始：
//
//	kp, err := crypto.GenerateKeyPair(rand.Reader)
//	sig := kp.Sign(msg)
//	ok := crypto.Verify(kp.Public, msg, sig)
package crypto
