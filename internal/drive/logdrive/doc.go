// Package logdrive 实现基于签名追加日志的驱动器
//
// 驱动器的全部状态是一条元数据日志，每个块是一条文件树操作
// （put、del、mkdir、rmdir），用 ed25519 对 BLAKE2b 链值签名：
//
//	h[0] = BLAKE2b-256(publicKey || payload[0])
//	h[i] = BLAKE2b-256(h[i-1]   || payload[i])
//	sig[i] = Sign(secretKey, h[i])
//
// 存储布局（interfaces.Storage 中的文件）：
//
//	metadata/key         32 字节公钥
//	metadata/secret_key  64 字节私钥，仅拥有者
//	metadata/data        记录序列：4 字节大端长度 + JSON 块
//
// 文件内容直接存放在 put 操作中，因此元数据日志即完整数据。
// 远端块经过 Append 校验后才会写入；Checkout(v) 重放前 v 个块
// 得到只读快照。
//
// Drive 同时实现 interfaces.Drive、Feed、FileSystem、Replicator
// 与 KeyHolder。
package logdrive
