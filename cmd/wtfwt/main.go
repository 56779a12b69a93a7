// Package main implements wtfwt, which turns a block hash into a replay
// project: a crate that re-executes the block against a snapshot of its
// parent's state.
//
// Usage:
//
//	wtfwt --rpc wss://rpc.polkadot.io --block 0x... \
//	      --runtime-name polkadot --source-repo polkadot-fellows/runtimes --source-rev v1.3.0
//
// The block and snapshot are cached in the working directory; running again
// for the same block reuses them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ggwpez/wtfwt/internal/config"
)

func main() {
	config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "wtfwt",
		Short:         "Create a project that replays a block on its parent state",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f.config)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			return runReplay(cmd.Context(), cmd.OutOrStdout(), cfg, f)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.rpc, "rpc", "", "WebSocket RPC endpoint of an archive node (ws:// or wss://)")
	fs.StringVar(&f.block, "block", "", "Hash of the block to replay (0x-prefixed)")
	fs.StringVar(&f.runtimeName, "runtime-name", "", "Runtime crate name without the -runtime suffix")
	fs.StringVar(&f.sourceRepo, "source-repo", "", "GitHub repository of the runtime (org/project)")
	fs.StringVar(&f.sourceRev, "source-rev", "", "Git revision the runtime was built from")
	fs.BoolVar(&f.force, "force", false, "Delete an existing project directory first")

	fs.StringVar(&f.config, "config", "", "Config file path (defaults are used when empty)")
	fs.StringVar(&f.strategy, "strategy", "", "Block fetch strategy: binary|json")
	fs.StringVar(&f.snapshotTool, "snapshot-tool", "", "Snapshot tool executable")
	fs.StringVar(&f.out, "out", "", "Project directory")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format: console|json")
	fs.StringVar(&f.format, "format", "terminal", "Output format: terminal|json")
	fs.BoolVar(&f.report, "report", false, "Write a JSON report to the reports directory")

	_ = cmd.MarkFlagRequired("rpc")
	_ = cmd.MarkFlagRequired("block")

	return cmd
}

// loadConfig returns the file's settings without validating them; apply
// validates once the flag overrides are in.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Read(path)
}
