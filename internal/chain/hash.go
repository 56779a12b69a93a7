// Package chain models the Substrate chain data the replay tool needs and
// queries it over a JSON-RPC session.
//
// A block is stored as its SCALE encoding: the header, compact(n), then the
// n extrinsics exactly as the node returned them. The node's body carries
// no count, so the prefix is written between the header and the extrinsics;
// without it the file would not decode as a Block.
package chain

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ggwpez/wtfwt/internal/errkind"
)

// HashLength is the size of a block hash in bytes.
const HashLength = 32

// Hash is a 32-byte block hash.
type Hash [HashLength]byte

// ParseHash decodes a 0x-prefixed hex string. Upper and lower case digits are
// accepted; anything that is not exactly 32 bytes is rejected.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hexutil.Decode(s)
	if err != nil {
		return h, errkind.Errorf(errkind.InvalidInput, "parse block hash", "%q: %v", s, err)
	}
	if len(b) != HashLength {
		return h, errkind.Errorf(errkind.InvalidInput, "parse block hash", "%q: got %d bytes, want %d", s, len(b), HashLength)
	}
	copy(h[:], b)
	return h, nil
}

// Hex returns the lowercase 0x-prefixed form. It is the canonical text form
// used in filenames and RPC parameters.
func (h Hash) Hex() string { return hexutil.Encode(h[:]) }

func (h Hash) String() string { return h.Hex() }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hash: %w", err)
	}
	parsed, err := ParseHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
