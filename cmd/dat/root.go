package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	dat "github.com/dep2p/go-dat"
	"github.com/dep2p/go-dat/config"
	"github.com/dep2p/go-dat/pkg/lib/log"
	"github.com/dep2p/go-dat/pkg/types"
)

var logger = log.Logger("dat/cmd")

// app 一次命令执行的共享状态
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// newRootCmd 构建命令树
func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "dat",
		Short: "publish and serve dat archives",
		Long: fmt.Sprintf(`dat (%s)

Create, update and serve peer-to-peer versioned archives.
Configuration is read from --config, .env files and DAT_ environment variables.`, dat.Version),
		SilenceUsage:      true,
		PersistentPreRunE: a.loadConfig,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "配置文件路径（JSON/YAML/TOML）")
	root.PersistentFlags().String("data-dir", "", "数据目录，为空时不持久化")
	root.PersistentFlags().String("peer-id", "", "本地对端名称")
	root.PersistentFlags().String("log-level", "", "日志级别，如 manager=debug,info")
	_ = a.v.BindPFlag("storage.data_dir", root.PersistentFlags().Lookup("data-dir"))
	_ = a.v.BindPFlag("swarm.peer_id", root.PersistentFlags().Lookup("peer-id"))
	_ = a.v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		a.createCmd(),
		a.syncCmd(),
		a.lsCmd(),
		a.catCmd(),
		a.rmCmd(),
		a.serveCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) loadConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	// 命令行默认持久化到数据目录
	if cfg.Defaults.Persist == nil && cfg.Storage.DataDir != "" {
		cfg.Defaults.Persist = types.Bool(true)
	}
	a.cfg = cfg
	return nil
}

// startNode 按加载的配置启动节点，返回的 stop 关闭节点
func (a *app) startNode(ctx context.Context, opts ...dat.Option) (*dat.Node, func(), error) {
	opts = append([]dat.Option{dat.WithConfig(a.cfg)}, opts...)
	node, err := dat.Start(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := node.Close(ctx); err != nil {
			logger.Warn("关闭节点失败", "error", err)
		}
	}
	return node, stop, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dat",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), dat.VersionInfo())
		},
	}
}
