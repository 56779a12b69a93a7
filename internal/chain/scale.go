package chain

import (
	"fmt"
	"math/big"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

// AppendCompact appends the SCALE compact encoding of v.
func AppendCompact(dst []byte, v uint64) ([]byte, error) {
	enc, err := scale.Marshal(new(big.Int).SetUint64(v))
	if err != nil {
		return nil, fmt.Errorf("compact %d: %w", v, err)
	}
	return append(dst, enc...), nil
}

// Encode returns the SCALE encoding of the header: parent hash, compact
// block number, state root, extrinsics root, then the digest as a vector of
// its pre-encoded logs.
func (h *Header) Encode() ([]byte, error) {
	number, err := h.BlockNumber()
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}

	out := make([]byte, 0, 3*HashLength+16)
	out = append(out, h.ParentHash[:]...)
	if out, err = AppendCompact(out, number); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	out = append(out, h.StateRoot[:]...)
	out = append(out, h.ExtrinsicsRoot[:]...)
	if out, err = AppendCompact(out, uint64(len(h.Digest.Logs))); err != nil {
		return nil, fmt.Errorf("encode digest: %w", err)
	}
	for _, log := range h.Digest.Logs {
		out = append(out, log...)
	}
	return out, nil
}

// EncodeBlock returns the SCALE encoding of a block: the encoded header,
// compact(len(extrinsics)), then each extrinsic as returned by the node.
//
// The count prefix is not part of the body the node hands out; it is added
// here because the file is decoded as a Block, whose extrinsics field is a
// vector. Extrinsics are written in the order given; reordering them changes
// what the replay executes.
func EncodeBlock(header *Header, extrinsics [][]byte) ([]byte, error) {
	out, err := header.Encode()
	if err != nil {
		return nil, err
	}
	if out, err = AppendCompact(out, uint64(len(extrinsics))); err != nil {
		return nil, fmt.Errorf("encode extrinsics: %w", err)
	}
	for _, xt := range extrinsics {
		out = append(out, xt...)
	}
	return out, nil
}
