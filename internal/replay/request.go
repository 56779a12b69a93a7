package replay

import (
	"errors"
	"regexp"
	"strings"

	"github.com/ggwpez/wtfwt/internal/chain"
	"github.com/ggwpez/wtfwt/internal/errkind"
	"github.com/ggwpez/wtfwt/internal/project"
)

// The manifest interpolates these values into Cargo.toml string literals.
var (
	runtimeNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	sourceRepoRe  = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
	sourceRevRe   = regexp.MustCompile(`^[A-Za-z0-9_./-]+$`)
)

// Request is one replay invocation.
type Request struct {
	RPC         string // ws:// or wss:// endpoint of an archive node
	Block       string // 0x-prefixed block hash
	RuntimeName string
	SourceRepo  string
	SourceRev   string
	Force       bool
}

// Validate rejects malformed input before any network or process work.
func (r Request) Validate() error {
	const op = "validate args"

	if !strings.HasPrefix(r.RPC, "ws://") && !strings.HasPrefix(r.RPC, "wss://") {
		return errkind.Errorf(errkind.InvalidInput, op, "rpc %q must start with ws:// or wss://", r.RPC)
	}
	if !strings.HasPrefix(r.Block, "0x") {
		return errkind.Errorf(errkind.InvalidInput, op, "block %q must start with 0x", r.Block)
	}
	if _, err := chain.ParseHash(r.Block); err != nil {
		return err
	}

	var missing []string
	if strings.TrimSpace(r.RuntimeName) == "" {
		missing = append(missing, "runtime name")
	}
	if strings.TrimSpace(r.SourceRepo) == "" {
		missing = append(missing, "source repo")
	}
	if strings.TrimSpace(r.SourceRev) == "" {
		missing = append(missing, "source rev")
	}
	if len(missing) > 0 {
		return errkind.E(errkind.InvalidInput, op, errors.New("missing "+strings.Join(missing, ", ")))
	}

	if !runtimeNameRe.MatchString(r.RuntimeName) {
		return errkind.Errorf(errkind.InvalidInput, op, "runtime name %q: only letters, digits, '-' and '_' are allowed", r.RuntimeName)
	}
	if !sourceRepoRe.MatchString(r.SourceRepo) {
		return errkind.Errorf(errkind.InvalidInput, op, "source repo %q must have the form org/project", r.SourceRepo)
	}
	if !sourceRevRe.MatchString(r.SourceRev) || strings.Contains(r.SourceRev, "..") {
		return errkind.Errorf(errkind.InvalidInput, op, "source rev %q: only letters, digits and '-', '_', '.', '/' are allowed", r.SourceRev)
	}
	return nil
}

func (r Request) manifest() project.Manifest {
	return project.Manifest{RuntimeName: r.RuntimeName, SourceRepo: r.SourceRepo, SourceRev: r.SourceRev}
}
