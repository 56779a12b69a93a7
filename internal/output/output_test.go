package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggwpez/wtfwt/internal/artifact"
	"github.com/ggwpez/wtfwt/internal/chain"
	"github.com/ggwpez/wtfwt/internal/errkind"
	"github.com/ggwpez/wtfwt/internal/fetch"
	"github.com/ggwpez/wtfwt/internal/replay"
)

func init() {
	DisableColors()
}

func doneResult(t *testing.T) *replay.Result {
	t.Helper()
	block, err := chain.ParseHash("0x" + strings.Repeat("aa", 32))
	require.NoError(t, err)
	parent, err := chain.ParseHash("0x" + strings.Repeat("bb", 32))
	require.NoError(t, err)
	return &replay.Result{
		State:       replay.Done,
		Project:     "replay",
		Block:       block,
		Parent:      parent,
		SpecVersion: 1003000,
		Strategy:    fetch.KindBinary,
		Artifacts: []artifact.Entry{
			{Name: artifact.SnapshotFile(parent), Path: "replay/" + artifact.SnapshotFile(parent), Origin: artifact.OriginCopied, Size: 3 << 20},
			{Name: "Cargo.lock", Path: "replay/Cargo.lock", Origin: artifact.OriginFetched, Size: 512},
		},
		Elapsed: 2500 * time.Millisecond,
	}
}

func TestRenderTerminal(t *testing.T) {
	var buf bytes.Buffer
	RenderTerminal(&buf, doneResult(t), nil)
	out := buf.String()

	assert.Contains(t, out, "Replay project ready in replay")
	assert.Contains(t, out, "0x"+strings.Repeat("bb", 32))
	assert.Contains(t, out, "spec version 1003000")
	assert.Contains(t, out, "2.5s")
	assert.Contains(t, out, "Cargo.lock")
	assert.Contains(t, out, "3.0 MiB")
	assert.Contains(t, out, "512 B")
}

func TestRenderTerminalFailure(t *testing.T) {
	res := &replay.Result{State: replay.BlockFetched, Project: "replay", Strategy: fetch.KindJSON}
	var buf bytes.Buffer
	RenderTerminal(&buf, res, errkind.E(errkind.SubprocessFailure, "create snapshot", errors.New("exit status 1")))

	assert.Contains(t, buf.String(), "Replay failed after block-fetched: subprocess failed")
	assert.NotContains(t, buf.String(), "Artifacts")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, doneResult(t), nil))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "done", got["state"])
	assert.Equal(t, "binary", got["strategy"])
	assert.Equal(t, float64(2500), got["elapsed_ms"])
	assert.Len(t, got["artifacts"], 2)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", formatSize(0))
	assert.Equal(t, "1.0 KiB", formatSize(1024))
	assert.Equal(t, "1.5 MiB", formatSize(3<<19))
}
