package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ggwpez/wtfwt/internal/rpc"
)

// Client issues the chain RPC methods over a connected session.
type Client struct {
	caller rpc.Caller
}

func NewClient(caller rpc.Caller) *Client {
	return &Client{caller: caller}
}

// RuntimeVersion returns the runtime version at the best block.
func (c *Client) RuntimeVersion(ctx context.Context) (*RuntimeVersion, error) {
	var v RuntimeVersion
	found, err := c.call(ctx, &v, "state_getRuntimeVersion")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("state_getRuntimeVersion: empty result")
	}
	return &v, nil
}

// Header returns the header of the block with the given hash, or nil when
// the node does not know the block.
func (c *Client) Header(ctx context.Context, hash Hash) (*Header, error) {
	var h Header
	found, err := c.call(ctx, &h, "chain_getHeader", hash.Hex())
	if err != nil || !found {
		return nil, err
	}
	return &h, nil
}

// Body returns the opaque extrinsics of the block in chain order, or nil
// when the node does not know the block.
func (c *Client) Body(ctx context.Context, hash Hash) ([][]byte, error) {
	var sb SignedBlock
	found, err := c.call(ctx, &sb, "chain_getBlock", hash.Hex())
	if err != nil || !found {
		return nil, err
	}

	body := make([][]byte, len(sb.Block.Extrinsics))
	for i, xt := range sb.Block.Extrinsics {
		body[i] = xt
	}
	return body, nil
}

// Raw performs an arbitrary call and returns the undecoded result.
func (c *Client) Raw(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return c.caller.Call(ctx, method, params...)
}

func (c *Client) call(ctx context.Context, out any, method string, params ...any) (bool, error) {
	raw, err := c.caller.Call(ctx, method, params...)
	if err != nil {
		return false, err
	}
	if rpc.IsNull(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s result: %w", method, err)
	}
	return true, nil
}
