// Package artifact names and stores the files a replay run produces.
//
// Raw blocks and state snapshots are cached as loose files in a working
// directory. Their names are pure functions of the block hash, so a second
// run for the same block finds them and skips the expensive step. A file
// that exists is trusted as-is; there is no integrity re-check.
//
// The cache is not safe for concurrent runs against the same hash. Writes
// go through a temp file and an atomic rename, so an interrupted run never
// leaves a truncated entry behind, but two runs may both miss and both
// produce the same file.
package artifact

import (
	"github.com/ggwpez/wtfwt/internal/chain"
)

// Origin records how an artifact came to exist in this run.
type Origin string

const (
	OriginCached    Origin = "cached"
	OriginFetched   Origin = "fetched"
	OriginGenerated Origin = "generated"
	OriginRendered  Origin = "rendered"
	OriginCopied    Origin = "copied"
)

// Entry is one produced file.
type Entry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Origin Origin `json:"origin"`
	Size   int64  `json:"size"`
}

// BlockFile is the cache filename of the raw block with the given hash.
func BlockFile(h chain.Hash) string {
	return "block-" + h.Hex() + ".raw"
}

// SnapshotFile is the cache filename of the state snapshot taken at h.
func SnapshotFile(h chain.Hash) string {
	return "snap-" + h.Hex() + ".raw"
}
