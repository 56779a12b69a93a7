package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/artifact"
	"github.com/ggwpez/wtfwt/internal/chain"
	"github.com/ggwpez/wtfwt/internal/errkind"
)

type toolCall struct {
	uri     string
	at      chain.Hash
	outfile string
}

type fakeTool struct {
	calls []toolCall
	write bool
	err   error
}

func (f *fakeTool) CreateSnapshot(_ context.Context, uri string, at chain.Hash, outfile string) error {
	f.calls = append(f.calls, toolCall{uri, at, outfile})
	if f.err != nil {
		return f.err
	}
	if f.write {
		return os.WriteFile(outfile, []byte("state:"+at.Hex()), 0o644)
	}
	return nil
}

var parent = func() chain.Hash {
	h, _ := chain.ParseHash("0x" + strings.Repeat("bb", 32))
	return h
}()

func TestGeneratorCreate(t *testing.T) {
	cache := artifact.NewCache(t.TempDir())
	tool := &fakeTool{write: true}

	e, err := NewGenerator(tool, "ws://node:9944", cache, zap.NewNop()).Create(context.Background(), parent)
	require.NoError(t, err)

	require.Len(t, tool.calls, 1)
	assert.Equal(t, "ws://node:9944", tool.calls[0].uri)
	assert.Equal(t, parent, tool.calls[0].at)

	assert.Equal(t, artifact.OriginGenerated, e.Origin)
	assert.Equal(t, cache.Path(artifact.SnapshotFile(parent)), e.Path)
	assert.NoFileExists(t, tool.calls[0].outfile, "scratch file is moved into place")

	data, err := os.ReadFile(e.Path)
	require.NoError(t, err)
	assert.Equal(t, "state:"+parent.Hex(), string(data))
}

func TestGeneratorCacheHit(t *testing.T) {
	cache := artifact.NewCache(t.TempDir())
	_, err := cache.Write(artifact.SnapshotFile(parent), []byte("old"), artifact.OriginGenerated)
	require.NoError(t, err)

	tool := &fakeTool{write: true}
	e, err := NewGenerator(tool, "ws://node:9944", cache, zap.NewNop()).Create(context.Background(), parent)
	require.NoError(t, err)
	assert.Empty(t, tool.calls, "cache hit must not run the tool")
	assert.Equal(t, artifact.OriginCached, e.Origin)
}

func TestGeneratorFailures(t *testing.T) {
	tests := []struct {
		name string
		tool *fakeTool
	}{
		{"non-zero exit", &fakeTool{err: errors.New("exit status 1")}},
		{"success without output", &fakeTool{write: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := artifact.NewCache(t.TempDir())
			_, err := NewGenerator(tt.tool, "ws://node:9944", cache, zap.NewNop()).Create(context.Background(), parent)
			require.Error(t, err)
			assert.ErrorIs(t, err, errkind.SubprocessFailure)
			assert.Len(t, tt.tool.calls, 1, "no retry")

			_, ok, _ := cache.Lookup(artifact.SnapshotFile(parent))
			assert.False(t, ok)
		})
	}
}

func TestArgs(t *testing.T) {
	got := Args("wss://rpc.example.com", parent, "snap.raw")
	assert.Equal(t, []string{"create-snapshot", "--uri", "wss://rpc.example.com", "--at", parent.Hex(), "snap.raw"}, got)
}

// writeScript installs a shell script standing in for try-runtime.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "fake-try-runtime")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestExecToolRunsCommand(t *testing.T) {
	// Writes its argv to the output file: $1=create-snapshot ... $6=outfile.
	script := writeScript(t, `echo "$1 $2 $3 $4 $5" > "$6"`)
	out := filepath.Join(t.TempDir(), "snap.raw")

	err := NewExecTool(script, zap.NewNop()).CreateSnapshot(context.Background(), "ws://node:9944", parent, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "create-snapshot --uri ws://node:9944 --at "+parent.Hex()+"\n", string(data))
}

func TestExecToolNonZeroExit(t *testing.T) {
	script := writeScript(t, "echo 'error: state already discarded' >&2\nexit 3\n")

	err := NewExecTool(script, zap.NewNop()).CreateSnapshot(context.Background(), "ws://node:9944", parent, "unused")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
	assert.Contains(t, err.Error(), "state already discarded")
}

func TestExecToolNotFound(t *testing.T) {
	err := NewExecTool("definitely-not-a-real-try-runtime", zap.NewNop()).
		CreateSnapshot(context.Background(), "ws://node:9944", parent, "unused")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestNewExecToolDefault(t *testing.T) {
	assert.Equal(t, DefaultTool, NewExecTool("", zap.NewNop()).Path)
}
