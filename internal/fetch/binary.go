package fetch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/artifact"
	"github.com/ggwpez/wtfwt/internal/chain"
	"github.com/ggwpez/wtfwt/internal/errkind"
)

// BinaryFetch fetches header and body separately and stores the
// SCALE-encoded block.
type BinaryFetch struct {
	chain *chain.Client
	cache *artifact.Cache
	log   *zap.Logger
}

func NewBinary(c *chain.Client, cache *artifact.Cache, log *zap.Logger) *BinaryFetch {
	return &BinaryFetch{chain: c, cache: cache, log: log}
}

func (f *BinaryFetch) Kind() Kind { return KindBinary }

func (f *BinaryFetch) Fetch(ctx context.Context, hash chain.Hash) (artifact.Entry, error) {
	const op = "fetch block"
	name := artifact.BlockFile(hash)

	if e, ok, err := cached(f.cache, f.log, name); err != nil || ok {
		return e, err
	}

	f.log.Info("downloading raw block", zap.Stringer("block", hash), zap.String("strategy", string(KindBinary)))

	header, err := f.chain.Header(ctx, hash)
	if err != nil {
		return artifact.Entry{}, classify(op, err)
	}
	if header == nil {
		return artifact.Entry{}, errkind.Errorf(errkind.BlockNotFound, op, "no header for %s", hash)
	}

	body, err := f.chain.Body(ctx, hash)
	if err != nil {
		return artifact.Entry{}, classify(op, err)
	}
	if body == nil {
		return artifact.Entry{}, errkind.Errorf(errkind.BlockNotFound, op, "no body for %s", hash)
	}

	raw, err := chain.EncodeBlock(header, body)
	if err != nil {
		return artifact.Entry{}, fmt.Errorf("%s: %w", op, err)
	}

	e, err := f.cache.Write(name, raw, artifact.OriginFetched)
	if err != nil {
		return artifact.Entry{}, fmt.Errorf("%s: %w", op, err)
	}
	f.log.Info("block downloaded",
		zap.String("path", e.Path),
		zap.Int("extrinsics", len(body)),
		zap.Int64("bytes", e.Size),
	)
	return e, nil
}
