package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/artifact"
	"github.com/ggwpez/wtfwt/internal/chain"
	"github.com/ggwpez/wtfwt/internal/errkind"
)

// Generator produces the snapshot for a state block, reusing a cached one
// when present. Failures are never retried: a half-finished snapshot needs
// an operator to look at it.
type Generator struct {
	tool  Tool
	uri   string
	cache *artifact.Cache
	log   *zap.Logger
}

func NewGenerator(tool Tool, uri string, cache *artifact.Cache, log *zap.Logger) *Generator {
	return &Generator{tool: tool, uri: uri, cache: cache, log: log}
}

// Create returns the snapshot of the state at `at`.
func (g *Generator) Create(ctx context.Context, at chain.Hash) (artifact.Entry, error) {
	const op = "create snapshot"
	name := artifact.SnapshotFile(at)

	e, ok, err := g.cache.Lookup(name)
	if err != nil {
		return artifact.Entry{}, fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		g.log.Info("snapshot already exists", zap.String("path", e.Path))
		return e, nil
	}

	// The tool writes to a scratch name; only a complete snapshot is renamed
	// into the cache slot.
	scratch := g.cache.PartialPath(name)
	if err := os.Remove(scratch); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return artifact.Entry{}, fmt.Errorf("%s: remove stale %s: %w", op, scratch, err)
	}

	g.log.Info("creating snapshot", zap.Stringer("at", at), zap.String("uri", g.uri))
	if err := g.tool.CreateSnapshot(ctx, g.uri, at, scratch); err != nil {
		return artifact.Entry{}, errkind.E(errkind.SubprocessFailure, op, err)
	}

	info, err := os.Stat(scratch)
	if err != nil || info.IsDir() {
		return artifact.Entry{}, errkind.Errorf(errkind.SubprocessFailure, op,
			"tool reported success but %s was not created", scratch)
	}

	e, err = g.cache.Commit(scratch, name, artifact.OriginGenerated)
	if err != nil {
		return artifact.Entry{}, fmt.Errorf("%s: %w", op, err)
	}
	g.log.Info("snapshot created", zap.String("path", e.Path), zap.Int64("bytes", e.Size))
	return e, nil
}
