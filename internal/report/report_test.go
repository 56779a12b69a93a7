package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
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

func result(t *testing.T) *replay.Result {
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
			{Name: artifact.BlockFile(block), Path: artifact.BlockFile(block), Origin: artifact.OriginCached, Size: 10},
		},
		Elapsed: 1500 * time.Millisecond,
	}
}

func TestNew(t *testing.T) {
	r := New(result(t), nil)
	assert.Equal(t, "done", r.State)
	assert.Equal(t, "0x"+strings.Repeat("bb", 32), r.Parent)
	assert.Equal(t, "cached", r.Artifacts[0].Origin)
	assert.Nil(t, r.Error)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"elapsed_ms":1500`)
	assert.NotContains(t, string(data), `"error"`)
}

func TestNewFailed(t *testing.T) {
	res := &replay.Result{State: replay.ArgsValidated, Project: "replay", Strategy: fetch.KindJSON}
	r := New(res, errkind.E(errkind.ChainQueryError, "resolve parent", errors.New("no header")))

	require.NotNil(t, r.Error)
	require.NotNil(t, r.ErrorKind)
	assert.Equal(t, "chain query failed", *r.ErrorKind)
	assert.Contains(t, *r.Error, "no header")
	assert.Empty(t, r.Block)
	assert.Empty(t, r.Parent)
	assert.NotNil(t, r.Artifacts, "artifacts encode as [] rather than null")
}

func TestWriteJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := WriteJSON(dir, New(result(t), nil), "replay")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "replay-"))
	assert.True(t, strings.HasSuffix(path, ".json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "done", got.State)
	assert.Equal(t, uint32(1003000), got.SpecVersion)
}
