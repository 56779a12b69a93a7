// Package replay drives one run from a block hash to a buildable replay
// project. Steps run one after another and any failure aborts the run;
// artifacts cached before the failure stay on disk for the next attempt.
package replay

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/artifact"
	"github.com/ggwpez/wtfwt/internal/chain"
	"github.com/ggwpez/wtfwt/internal/errkind"
	"github.com/ggwpez/wtfwt/internal/fetch"
	"github.com/ggwpez/wtfwt/internal/project"
	"github.com/ggwpez/wtfwt/internal/rpc"
	"github.com/ggwpez/wtfwt/internal/snapshot"
)

// DialFunc opens the chain session.
type DialFunc func(ctx context.Context, url string) (rpc.Conn, error)

// Options configures an Orchestrator. Zero values fall back to defaults.
type Options struct {
	Strategy        fetch.Kind
	Tool            snapshot.Tool
	WorkDir         string // artifact cache, "." when empty
	ProjectDir      string // relative paths resolve against WorkDir
	LockfileBaseURL string
	LockfileTimeout time.Duration
	RPCTimeout      time.Duration
	MaxRetries      int // HTTP JSON path only
	Dial            DialFunc
}

// Result describes a run. On failure it reports the last state reached and
// what was produced up to that point.
type Result struct {
	State       State            `json:"-"`
	Project     string           `json:"project"`
	Block       chain.Hash       `json:"block"`
	Parent      chain.Hash       `json:"parent"`
	SpecVersion uint32           `json:"spec_version"`
	Strategy    fetch.Kind       `json:"strategy"`
	Artifacts   []artifact.Entry `json:"artifacts"`
	Elapsed     time.Duration    `json:"-"`
}

// Orchestrator wires the resolver, fetcher, snapshot generator and project
// assembler together.
type Orchestrator struct {
	opts Options
	log  *zap.Logger
}

func New(opts Options, log *zap.Logger) *Orchestrator {
	if opts.Strategy == "" {
		opts.Strategy = fetch.KindBinary
	}
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.ProjectDir == "" {
		opts.ProjectDir = project.DefaultDir
	}
	if !filepath.IsAbs(opts.ProjectDir) {
		opts.ProjectDir = filepath.Join(opts.WorkDir, opts.ProjectDir)
	}
	if opts.RPCTimeout <= 0 {
		opts.RPCTimeout = 30 * time.Second
	}
	if opts.LockfileTimeout <= 0 {
		opts.LockfileTimeout = 30 * time.Second
	}
	if opts.Tool == nil {
		opts.Tool = snapshot.NewExecTool("", log)
	}
	if opts.Dial == nil {
		timeout := opts.RPCTimeout
		opts.Dial = func(ctx context.Context, url string) (rpc.Conn, error) {
			c, err := rpc.Dial(ctx, url, timeout)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	}
	return &Orchestrator{opts: opts, log: log}
}

// Run executes every step for req.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	res := &Result{State: Start, Project: o.opts.ProjectDir, Strategy: o.opts.Strategy}
	defer func() { res.Elapsed = time.Since(started) }()

	advance := func(s State) {
		res.State = s
		o.log.Debug("state", zap.Stringer("state", s))
	}

	if err := req.Validate(); err != nil {
		return res, err
	}
	if err := project.CheckDir(o.opts.ProjectDir, o.opts.WorkDir); err != nil {
		return res, errkind.E(errkind.InvalidInput, "validate args", err)
	}
	res.Block, _ = chain.ParseHash(req.Block)
	advance(ArgsValidated)

	o.log.Info("connecting", zap.String("rpc", req.RPC))
	conn, err := o.opts.Dial(ctx, req.RPC)
	if err != nil {
		return res, errkind.E(errkind.NetworkError, "connect", err)
	}
	defer conn.Close()
	client := chain.NewClient(conn)

	parent, specVersion, err := chain.NewResolver(client, o.log).ParentOf(ctx, req.Block)
	if err != nil {
		return res, err
	}
	res.Parent, res.SpecVersion = parent, specVersion
	advance(ParentResolved)

	cache := artifact.NewCache(o.opts.WorkDir)
	strategy, err := o.strategy(req, client, cache)
	if err != nil {
		return res, err
	}
	block, err := strategy.Fetch(ctx, res.Block)
	if err != nil {
		return res, err
	}
	res.Artifacts = append(res.Artifacts, block)
	advance(BlockFetched)

	snap, err := snapshot.NewGenerator(o.opts.Tool, req.RPC, cache, o.log).Create(ctx, parent)
	if err != nil {
		return res, err
	}
	res.Artifacts = append(res.Artifacts, snap)
	advance(SnapshotCreated)

	asm := project.NewAssembler(project.Options{
		Dir:       o.opts.ProjectDir,
		Force:     req.Force,
		Manifest:  req.manifest(),
		JSONBlock: o.opts.Strategy == fetch.KindJSON,
	}, o.log)
	rendered, err := asm.Prepare(snap, block)
	if err != nil {
		return res, err
	}
	res.Artifacts = append(res.Artifacts, rendered...)
	advance(ProjectAssembled)

	copied, err := asm.Relocate(ctx, snap, block)
	if err != nil {
		return res, errkind.E(errkind.ProjectCreationFailed, "relocate artifacts", err)
	}
	res.Artifacts = append(res.Artifacts, copied...)
	advance(ArtifactsRelocated)

	lock, err := project.NewLockfileFetcher(o.opts.LockfileBaseURL, o.opts.LockfileTimeout, o.log).
		Fetch(ctx, asm.Dir(), req.manifest())
	if err != nil {
		return res, err
	}
	res.Artifacts = append(res.Artifacts, lock)
	advance(LockfileFetched)

	advance(Done)
	o.log.Info("replay project ready",
		zap.String("path", asm.Dir()),
		zap.Stringer("block", res.Block),
		zap.Stringer("parent", parent),
	)
	return res, nil
}

func (o *Orchestrator) strategy(req Request, client *chain.Client, cache *artifact.Cache) (fetch.Strategy, error) {
	opts := fetch.Options{Chain: client, Cache: cache, Log: o.log, RawHash: req.Block}
	if o.opts.Strategy == fetch.KindJSON {
		httpURL, err := rpc.HTTPURL(req.RPC)
		if err != nil {
			return nil, errkind.E(errkind.InvalidInput, "json fetch", err)
		}
		opts.HTTP = rpc.NewClient(rpc.ClientConfig{
			URL:        httpURL,
			Timeout:    o.opts.RPCTimeout,
			MaxRetries: o.opts.MaxRetries,
		})
	}
	s, err := fetch.New(o.opts.Strategy, opts)
	if err != nil {
		return nil, errkind.E(errkind.InvalidInput, "select fetch strategy", err)
	}
	return s, nil
}
