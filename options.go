package dat

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-dat/config"
	"github.com/dep2p/go-dat/internal/core/swarm"
	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
	"github.com/dep2p/go-dat/pkg/types"
)

// Option 用户配置选项函数
type Option func(*nodeConfig) error

// nodeConfig 节点内部配置
type nodeConfig struct {
	// config 统一配置
	config *config.Config

	// network 进程内网络，为 nil 时使用私有网络
	network *swarm.Network

	// 可替换的能力
	driveFactory pkgif.DriveFactory
	swarmFactory pkgif.SwarmFactory

	// registry 指标注册表，为 nil 时新建
	registry *prometheus.Registry

	// userFxOptions 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

func newNodeConfig() *nodeConfig {
	return &nodeConfig{config: config.NewConfig()}
}

// WithConfig 使用完整配置，之后的选项在其上修改
func WithConfig(cfg *config.Config) Option {
	return func(c *nodeConfig) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		cp := *cfg
		c.config = &cp
		return nil
	}
}

// WithDataDir 设置数据目录，persist 的 dat 保存在其中
func WithDataDir(dir string) Option {
	return func(c *nodeConfig) error {
		c.config.Storage.DataDir = dir
		return nil
	}
}

// WithDefaults 设置实例级默认选项
func WithDefaults(defaults types.DatOptions) Option {
	return func(c *nodeConfig) error {
		c.config.Defaults = defaults.Clone()
		return nil
	}
}

// WithNetwork 加入进程内网络
func WithNetwork(net *swarm.Network) Option {
	return func(c *nodeConfig) error {
		if net == nil {
			return fmt.Errorf("network cannot be nil")
		}
		c.network = net
		return nil
	}
}

// WithPeerID 设置本地对端名称
func WithPeerID(id string) Option {
	return func(c *nodeConfig) error {
		c.config.Swarm.PeerID = id
		return nil
	}
}

// WithDriveFactory 替换驱动器后端，默认 logdrive
func WithDriveFactory(f pkgif.DriveFactory) Option {
	return func(c *nodeConfig) error {
		if f == nil {
			return fmt.Errorf("drive factory cannot be nil")
		}
		c.driveFactory = f
		return nil
	}
}

// WithSwarmFactory 替换网络实现，设置后 WithNetwork 不再生效
func WithSwarmFactory(f pkgif.SwarmFactory) Option {
	return func(c *nodeConfig) error {
		if f == nil {
			return fmt.Errorf("swarm factory cannot be nil")
		}
		c.swarmFactory = f
		return nil
	}
}

// WithRegistry 在指定注册表上注册指标
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *nodeConfig) error {
		c.registry = reg
		return nil
	}
}

// WithGateway 启用 HTTP 网关并监听 addr
func WithGateway(addr string) Option {
	return func(c *nodeConfig) error {
		c.config.Gateway.Enabled = true
		if addr != "" {
			c.config.Gateway.Listen = addr
		}
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(c *nodeConfig) error {
		c.userFxOptions = append(c.userFxOptions, opts...)
		return nil
	}
}
