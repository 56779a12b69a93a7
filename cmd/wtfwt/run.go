package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/config"
	"github.com/ggwpez/wtfwt/internal/fetch"
	"github.com/ggwpez/wtfwt/internal/logging"
	"github.com/ggwpez/wtfwt/internal/output"
	"github.com/ggwpez/wtfwt/internal/replay"
	"github.com/ggwpez/wtfwt/internal/report"
	"github.com/ggwpez/wtfwt/internal/snapshot"
)

type flags struct {
	rpc, block                          string
	runtimeName, sourceRepo, sourceRev  string
	force                               bool
	config, strategy, snapshotTool, out string
	logLevel, logFormat, format         string
	report                              bool
}

// apply overrides config values with the flags set on the command line.
func (f flags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("strategy") {
		cfg.Fetch.Strategy = f.strategy
	}
	if changed("snapshot-tool") {
		cfg.Snapshot.Tool = f.snapshotTool
	}
	if changed("out") {
		cfg.Project.Dir = f.out
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if f.format != "terminal" && f.format != "json" {
		return fmt.Errorf("--format %q: expected terminal or json", f.format)
	}
	return cfg.Validate()
}

func (f flags) request() replay.Request {
	return replay.Request{
		RPC:         f.rpc,
		Block:       f.block,
		RuntimeName: f.runtimeName,
		SourceRepo:  f.sourceRepo,
		SourceRev:   f.sourceRev,
		Force:       f.force,
	}
}

func runReplay(ctx context.Context, w io.Writer, cfg *config.Config, f flags) error {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	strategy, err := fetch.ParseKind(cfg.Fetch.Strategy)
	if err != nil {
		return err
	}

	orch := replay.New(replay.Options{
		Strategy:        strategy,
		Tool:            snapshot.NewExecTool(cfg.Snapshot.Tool, log),
		ProjectDir:      cfg.Project.Dir,
		LockfileBaseURL: cfg.Lockfile.BaseURL,
		LockfileTimeout: cfg.Lockfile.Timeout,
		RPCTimeout:      cfg.RPC.Timeout,
		MaxRetries:      cfg.RPC.MaxRetries,
	}, log)

	res, runErr := orch.Run(ctx, f.request())

	if f.report {
		path, err := report.WriteJSON(report.DefaultDir, report.New(res, runErr), "replay")
		if err != nil {
			log.Warn("failed to write report", zap.Error(err))
		} else {
			log.Info("report saved", zap.String("path", path))
		}
	}

	switch {
	case f.format == "json":
		output.DisableColors()
		if err := output.RenderJSON(w, res, runErr); err != nil {
			return err
		}
	case runErr == nil:
		if !output.IsTerminal() {
			output.DisableColors()
		}
		output.RenderTerminal(w, res, nil)
	}
	return runErr
}
