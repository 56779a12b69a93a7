package chain

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/errkind"
)

// Resolver finds the parent of a block. The replay snapshot must be taken at
// the parent: its post-state is the state the target block executed on.
type Resolver struct {
	client *Client
	log    *zap.Logger
}

func NewResolver(client *Client, log *zap.Logger) *Resolver {
	return &Resolver{client: client, log: log}
}

// ParentOf parses block and returns its parent hash along with the runtime
// spec version reported by the node.
func (r *Resolver) ParentOf(ctx context.Context, block string) (Hash, uint32, error) {
	const op = "resolve parent"

	hash, err := ParseHash(block)
	if err != nil {
		return Hash{}, 0, err
	}

	version, err := r.client.RuntimeVersion(ctx)
	if err != nil {
		return Hash{}, 0, errkind.E(errkind.ChainQueryError, op, err)
	}
	r.log.Info("runtime version",
		zap.String("spec_name", version.SpecName),
		zap.Uint32("spec_version", version.SpecVersion),
	)

	r.log.Info("finding parent block", zap.Stringer("block", hash))
	header, err := r.client.Header(ctx, hash)
	if err != nil {
		return Hash{}, 0, errkind.E(errkind.ChainQueryError, op, err)
	}
	if header == nil {
		return Hash{}, 0, errkind.E(errkind.ChainQueryError, op,
			errors.New("node has no header for "+hash.Hex()+" (pruned or not an archive node?)"))
	}

	r.log.Info("parent block", zap.Stringer("parent", header.ParentHash))
	return header.ParentHash, version.SpecVersion, nil
}
