// Package snapshot produces state snapshots by driving an external tool
// (try-runtime by default).
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/chain"
)

// DefaultTool is the binary invoked when none is configured.
const DefaultTool = "try-runtime"

// Tool creates a snapshot of the state at block `at`, read from uri, into
// outfile. A nil error means the tool reported success; callers still check
// that outfile exists.
type Tool interface {
	CreateSnapshot(ctx context.Context, uri string, at chain.Hash, outfile string) error
}

// ExecTool runs `<Path> create-snapshot --uri <uri> --at <hash> <outfile>`
// and waits for it to exit. The process is killed if ctx is cancelled.
type ExecTool struct {
	Path string
	Log  *zap.Logger
}

func NewExecTool(path string, log *zap.Logger) *ExecTool {
	if path == "" {
		path = DefaultTool
	}
	return &ExecTool{Path: path, Log: log}
}

// Args returns the argument vector passed to the tool.
func Args(uri string, at chain.Hash, outfile string) []string {
	return []string{"create-snapshot", "--uri", uri, "--at", at.Hex(), outfile}
}

func (t *ExecTool) CreateSnapshot(ctx context.Context, uri string, at chain.Hash, outfile string) error {
	execPath, err := exec.LookPath(t.Path)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || os.IsNotExist(err) {
			return fmt.Errorf("%s not found in PATH: %w", t.Path, err)
		}
		return err
	}

	cmd := exec.CommandContext(ctx, execPath, Args(uri, at, outfile)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t.Log.Debug("running command", zap.String("cmd", cmd.String()))
	if err := cmd.Run(); err != nil {
		if msg := lastLines(stderr.String(), 5); msg != "" {
			return fmt.Errorf("%s: %w: %s", t.Path, err, msg)
		}
		return fmt.Errorf("%s: %w", t.Path, err)
	}
	t.Log.Debug("command finished", zap.Int("stdout_bytes", stdout.Len()), zap.Int("stderr_bytes", stderr.Len()))
	return nil
}

// lastLines keeps the tail of a tool's stderr for the error message.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
