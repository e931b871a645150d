// Package lib 包含基础设施工具库
//
// 本目录包含与架构组件无关的通用工具库：
//
//   - crypto: 密码学原语（ed25519 密钥对、发现密钥、签名哈希链）
//   - log: 按子系统划分的日志
//
// # 与 pkg/ 其他目录的关系
//
// pkg/ 目录包含三类内容：
//
//   - interfaces/: 能力接口（Drive、Swarm、Storage、EventBus）
//   - types/: 公共类型定义（地址、选项、事件）
//   - lib/: 基础设施工具库（本目录）
//
// # 使用示例
//
//	import (
//	    "github.com/dep2p/go-dat/pkg/lib/crypto"
//	    "github.com/dep2p/go-dat/pkg/lib/log"
//	)
package lib
