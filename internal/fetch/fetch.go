// Package fetch downloads the raw block to replay.
//
// Two interchangeable strategies implement the same contract: BinaryFetch
// stores the SCALE-encoded block, JSONFetch stores the node's JSON block
// object verbatim. The operator picks one; nothing switches at runtime.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/artifact"
	"github.com/ggwpez/wtfwt/internal/chain"
	"github.com/ggwpez/wtfwt/internal/errkind"
	"github.com/ggwpez/wtfwt/internal/rpc"
)

// Kind names a fetch strategy.
type Kind string

const (
	KindBinary Kind = "binary"
	KindJSON   Kind = "json"
)

// ParseKind validates a strategy name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindBinary, KindJSON:
		return k, nil
	}
	return "", fmt.Errorf("unknown fetch strategy %q (expected %s or %s)", s, KindBinary, KindJSON)
}

// Strategy obtains the raw block for a hash and returns the cache entry
// holding it. When the entry already exists no network call is made.
type Strategy interface {
	Kind() Kind
	Fetch(ctx context.Context, hash chain.Hash) (artifact.Entry, error)
}

// Options carries what either strategy may need.
type Options struct {
	Chain *chain.Client // session used by BinaryFetch
	HTTP  rpc.Caller    // HTTP JSON-RPC client used by JSONFetch
	Cache *artifact.Cache
	Log   *zap.Logger

	RawHash string // block hash as given on the command line, sent by JSONFetch
}

// New builds the strategy of the given kind.
func New(kind Kind, opts Options) (Strategy, error) {
	switch kind {
	case KindBinary:
		if opts.Chain == nil {
			return nil, errors.New("binary fetch needs a chain client")
		}
		return NewBinary(opts.Chain, opts.Cache, opts.Log), nil
	case KindJSON:
		if opts.HTTP == nil {
			return nil, errors.New("json fetch needs an http client")
		}
		return NewJSON(opts.HTTP, opts.Cache, opts.Log).WithRawHash(opts.RawHash), nil
	}
	return nil, fmt.Errorf("unknown fetch strategy %q", kind)
}

// cached returns the existing entry for name, if any.
func cached(c *artifact.Cache, log *zap.Logger, name string) (artifact.Entry, bool, error) {
	e, ok, err := c.Lookup(name)
	if err != nil {
		return artifact.Entry{}, false, err
	}
	if ok {
		log.Info("block already exists", zap.String("path", e.Path))
	}
	return e, ok, nil
}

// classify maps a transport error to its failure kind.
func classify(op string, err error) error {
	var se *rpc.StatusError
	var re *rpc.RPCError
	switch {
	case errors.As(err, &se):
		return errkind.E(errkind.HTTPStatusError, op, err)
	case errors.As(err, &re):
		return errkind.E(errkind.ChainQueryError, op, err)
	}
	return errkind.E(errkind.NetworkError, op, err)
}
