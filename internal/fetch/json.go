package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/artifact"
	"github.com/ggwpez/wtfwt/internal/chain"
	"github.com/ggwpez/wtfwt/internal/errkind"
	"github.com/ggwpez/wtfwt/internal/rpc"
)

// JSONFetch calls chain_getBlock over HTTP and stores result.block as
// pretty-printed JSON, untouched otherwise.
type JSONFetch struct {
	http  rpc.Caller
	cache *artifact.Cache
	log   *zap.Logger
	raw   string
}

func NewJSON(http rpc.Caller, cache *artifact.Cache, log *zap.Logger) *JSONFetch {
	return &JSONFetch{http: http, cache: cache, log: log}
}

func (f *JSONFetch) Kind() Kind { return KindJSON }

// WithRawHash makes Fetch send raw, the hash as the operator typed it,
// instead of the canonical lowercase form. raw is ignored for any other hash.
func (f *JSONFetch) WithRawHash(raw string) *JSONFetch {
	f.raw = raw
	return f
}

func (f *JSONFetch) param(hash chain.Hash) string {
	if f.raw != "" {
		if h, err := chain.ParseHash(f.raw); err == nil && h == hash {
			return f.raw
		}
	}
	return hash.Hex()
}

func (f *JSONFetch) Fetch(ctx context.Context, hash chain.Hash) (artifact.Entry, error) {
	const op = "fetch block"
	name := artifact.BlockFile(hash)

	if e, ok, err := cached(f.cache, f.log, name); err != nil || ok {
		return e, err
	}

	f.log.Info("downloading raw block", zap.Stringer("block", hash), zap.String("strategy", string(KindJSON)))

	raw, err := f.http.Call(ctx, "chain_getBlock", f.param(hash))
	if err != nil {
		return artifact.Entry{}, classify(op, err)
	}
	if rpc.IsNull(raw) {
		return artifact.Entry{}, errkind.Errorf(errkind.BlockNotFound, op, "node returned no block for %s", hash)
	}

	var result struct {
		Block json.RawMessage `json:"block"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return artifact.Entry{}, errkind.Errorf(errkind.ChainQueryError, op, "decode chain_getBlock result: %v", err)
	}
	if rpc.IsNull(result.Block) {
		return artifact.Entry{}, errkind.Errorf(errkind.BlockNotFound, op, "result for %s has no block field", hash)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result.Block, "", "  "); err != nil {
		return artifact.Entry{}, errkind.Errorf(errkind.ChainQueryError, op, "format block: %v", err)
	}

	e, err := f.cache.Write(name, pretty.Bytes(), artifact.OriginFetched)
	if err != nil {
		return artifact.Entry{}, fmt.Errorf("%s: %w", op, err)
	}
	f.log.Info("block downloaded", zap.String("path", e.Path), zap.Int64("bytes", e.Size))
	return e, nil
}
