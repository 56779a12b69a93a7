package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Header is a block header as returned by chain_getHeader.
//
//	{
//	  "parentHash": "0x...",
//	  "number": "0x1a2b",
//	  "stateRoot": "0x...",
//	  "extrinsicsRoot": "0x...",
//	  "digest": {"logs": ["0x0642..."]}
//	}
//
// Digest logs arrive already SCALE-encoded, so they are kept as bytes.
type Header struct {
	ParentHash     Hash   `json:"parentHash"`
	Number         string `json:"number"`
	StateRoot      Hash   `json:"stateRoot"`
	ExtrinsicsRoot Hash   `json:"extrinsicsRoot"`
	Digest         Digest `json:"digest"`
}

type Digest struct {
	Logs []hexutil.Bytes `json:"logs"`
}

// BlockNumber parses the hex block number.
func (h *Header) BlockNumber() (uint64, error) {
	return parseHexUint64(h.Number)
}

// Block is the "block" object of chain_getBlock. Each extrinsic is the
// opaque, already-encoded extrinsic in chain order.
type Block struct {
	Header     Header          `json:"header"`
	Extrinsics []hexutil.Bytes `json:"extrinsics"`
}

// SignedBlock is the result of chain_getBlock.
type SignedBlock struct {
	Block Block `json:"block"`
}

// RuntimeVersion is the subset of state_getRuntimeVersion the tool logs.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	ImplName           string `json:"implName"`
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// parseHexUint64 accepts hex with or without 0x and tolerates leading zeros,
// which nodes emit for some numbers.
func parseHexUint64(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return 0, nil
	}

	val, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return 0, fmt.Errorf("invalid hex number: %q", s)
	}
	if !val.IsUint64() {
		return 0, fmt.Errorf("number overflows uint64: %q", s)
	}
	return val.Uint64(), nil
}
