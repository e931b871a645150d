package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	dat "github.com/dep2p/go-dat"
	"github.com/dep2p/go-dat/internal/protocol/archive"
	"github.com/dep2p/go-dat/internal/publisher"
	"github.com/dep2p/go-dat/internal/util/keys"
	"github.com/dep2p/go-dat/pkg/types"
)

// ═══════════════════════════════════════════════════════════════════════════
// 发布
// ═══════════════════════════════════════════════════════════════════════════

func (a *app) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <pubdir>",
		Short: "Create a new dat from a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			node, stop, err := a.startNode(ctx)
			if err != nil {
				return err
			}
			defer stop()

			res, err := publisher.Create(ctx, node.Manager(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "url: %s\n", res.Address.URL())
			fmt.Fprintf(out, "secret: %x\n", res.SecretKey)
			printReport(out, res.Report)
			return nil
		},
	}
}

func (a *app) syncCmd() *cobra.Command {
	var (
		secret      string
		loadTimeout time.Duration
		del         bool
	)
	cmd := &cobra.Command{
		Use:   "sync <address> <pubdir>",
		Short: "Sync a directory into an existing dat",
		Long: `Sync a directory into an existing dat.

Without --secret the dat must already be writable in the data directory.
With --secret the latest version is fetched first and the key is imported.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			node, stop, err := a.startNode(ctx)
			if err != nil {
				return err
			}
			defer stop()

			var report *publisher.Report
			if secret != "" {
				sk, err := keys.ParseHex(secret)
				if err != nil {
					return err
				}
				report, err = publisher.Update(ctx, node.Manager(), args[0], sk, args[1],
					publisher.UpdateOptions{LoadTimeout: loadTimeout})
				if err != nil {
					return err
				}
			} else {
				h, err := node.GetDat(ctx, args[0], nil)
				if err != nil {
					return err
				}
				if !h.IsOwner() {
					return fmt.Errorf("%s is not writable here, pass --secret", h.Address().ShortString())
				}
				opts := publisher.DefaultOptions()
				opts.Delete = del
				if report, err = publisher.Sync(ctx, args[1], h, "/", opts); err != nil {
					return err
				}
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "十六进制私钥")
	cmd.Flags().DurationVar(&loadTimeout, "load-timeout", publisher.DefaultLoadTimeout, "等待从网络加载的时间")
	cmd.Flags().BoolVar(&del, "delete", false, "删除目录中已不存在的文件")
	return cmd
}

func printReport(w io.Writer, r *publisher.Report) {
	for _, p := range r.Added {
		fmt.Fprintf(w, "+ %s\n", p)
	}
	for _, p := range r.Updated {
		fmt.Fprintf(w, "~ %s\n", p)
	}
	for _, p := range r.Deleted {
		fmt.Fprintf(w, "- %s\n", p)
	}
	fmt.Fprintf(w, "%d added, %d updated, %d unchanged, %d deleted\n",
		len(r.Added), len(r.Updated), len(r.Unchanged), len(r.Deleted))
}

// ═══════════════════════════════════════════════════════════════════════════
// 读取
// ═══════════════════════════════════════════════════════════════════════════

func (a *app) lsCmd() *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "ls <address> [path]",
		Short: "List files in a dat",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			node, stop, err := a.startNode(ctx)
			if err != nil {
				return err
			}
			defer stop()

			h, err := node.GetDat(ctx, args[0], nil)
			if err != nil {
				return err
			}
			if err := h.Ready(ctx); err != nil {
				return err
			}
			ar, err := archive.New(h)
			if err != nil {
				return err
			}
			dir := "/"
			if len(args) == 2 {
				dir = args[1]
			}
			names, err := ar.Readdir(ctx, dir, archive.ReaddirOptions{Recursive: recursive})
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "递归列出")
	return cmd
}

func (a *app) catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <url>",
		Short: "Print a file from a dat:// URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			node, stop, err := a.startNode(ctx)
			if err != nil {
				return err
			}
			defer stop()

			data, _, err := node.Handler().Fetch(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 管理
// ═══════════════════════════════════════════════════════════════════════════

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <address>",
		Short: "Delete the stored data of a dat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			node, stop, err := a.startNode(ctx)
			if err != nil {
				return err
			}
			defer stop()

			if err := node.DeleteDatData(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	var (
		listen string
		seed   []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dats over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			node, stop, err := a.startNode(ctx, dat.WithGateway(listen))
			if err != nil {
				return err
			}
			defer stop()

			// 预先加载并做种
			for _, addr := range seed {
				h, err := node.GetDat(ctx, addr, &types.DatOptions{AutoSwarm: types.Bool(true)})
				if err != nil {
					return err
				}
				logger.Info("做种", "address", h.Address().ShortString())
			}

			addr, err := node.GatewayAddr()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s\n", addr)
			<-ctx.Done()
			logger.Info("收到退出信号，正在关闭")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "网关监听地址，默认使用配置")
	cmd.Flags().StringSliceVar(&seed, "seed", nil, "启动时加载的地址")
	return cmd
}

