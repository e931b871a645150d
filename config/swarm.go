package config

import "fmt"

// SwarmConfig 网络配置
type SwarmConfig struct {
	// PeerID 本地对端名称，为空时随机生成
	PeerID string `json:"peer_id"`

	// Disabled 不创建网络，所有 dat 仅在本地可用
	Disabled bool `json:"disabled"`
}

// DefaultSwarmConfig 默认网络配置
func DefaultSwarmConfig() SwarmConfig {
	return SwarmConfig{}
}

// Validate 校验
func (c *SwarmConfig) Validate() error {
	if len(c.PeerID) > 128 {
		return fmt.Errorf("swarm: peer_id too long")
	}
	return nil
}
