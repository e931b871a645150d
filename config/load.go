package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 DAT_STORAGE_DATA_DIR
const EnvPrefix = "dat"

// Load 依次叠加默认值、配置文件与环境变量
//
// path 为空时只使用默认值与环境变量。当前目录下的 .env 与 .env.local
// 会先被载入进程环境（已存在的变量不被覆盖）。
func Load(v *viper.Viper, path string) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := NewConfig()
	err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeys 允许通过环境变量覆盖的键
//
// viper 的 AutomaticEnv 只对已知键生效，Unmarshal 前需要逐一绑定。
var envKeys = []string{
	"storage.data_dir",
	"storage.sync_writes",
	"storage.gc_interval",
	"defaults.persist",
	"defaults.autoSwarm",
	"swarm.peer_id",
	"swarm.disabled",
	"gateway.enabled",
	"gateway.listen",
	"gateway.timeout",
	"gateway.metrics",
	"dns.server",
	"dns.cache_size",
	"dns.min_ttl",
	"dns.max_ttl",
	"dns.timeout",
	"log.level",
	"log.format",
}

func bindEnvKeys(v *viper.Viper) {
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
}
