// Package project assembles the replay crate: scaffold files, copies of the
// cached artifacts and the upstream lockfile.
package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ggwpez/wtfwt/internal/artifact"
	"github.com/ggwpez/wtfwt/internal/errkind"
)

// DefaultDir is the project directory name.
const DefaultDir = "replay"

// Options configures an Assembler.
type Options struct {
	Dir       string // project root, DefaultDir when empty
	Force     bool   // remove an existing project instead of failing
	Manifest  Manifest
	JSONBlock bool // the raw block is JSON rather than SCALE
}

// Assembler builds the project directory.
type Assembler struct {
	opts Options
	log  *zap.Logger
}

func NewAssembler(opts Options, log *zap.Logger) *Assembler {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	return &Assembler{opts: opts, log: log}
}

func (a *Assembler) Dir() string { return a.opts.Dir }

// CheckDir rejects a project directory that is workDir or one of its
// ancestors. Prepare with Force deletes the project root, which would take
// the artifact cache with it.
func CheckDir(dir, workDir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	absWork, err := filepath.Abs(workDir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(absDir, absWork)
	if err != nil {
		// Different volumes; neither contains the other.
		return nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return fmt.Errorf("project directory %s must not contain the working directory %s", dir, workDir)
}

// Prepare creates the project root and renders Cargo.toml and src/lib.rs
// referencing the given artifacts. An existing root is an error unless
// Force is set, in which case it is deleted first.
func (a *Assembler) Prepare(snapshot, block artifact.Entry) ([]artifact.Entry, error) {
	const op = "prepare project"
	root := a.opts.Dir

	if _, err := os.Lstat(root); err == nil {
		if !a.opts.Force {
			return nil, errkind.Errorf(errkind.ProjectAlreadyExists, op, "%s exists (use --force to overwrite)", root)
		}
		a.log.Info("removing existing project", zap.String("path", root))
		if err := os.RemoveAll(root); err != nil {
			return nil, errkind.E(errkind.ProjectCreationFailed, op, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, errkind.E(errkind.ProjectCreationFailed, op, err)
	}

	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		return nil, errkind.E(errkind.ProjectCreationFailed, op, err)
	}

	manifest, err := render("Cargo.toml.tmpl", manifestData{Manifest: a.opts.Manifest, JSONBlock: a.opts.JSONBlock})
	if err != nil {
		return nil, errkind.E(errkind.ProjectCreationFailed, op, err)
	}
	lib, err := render("lib.rs.tmpl", libData{
		SnapshotFile: filepath.ToSlash(filepath.Base(snapshot.Path)),
		BlockFile:    filepath.ToSlash(filepath.Base(block.Path)),
		JSONBlock:    a.opts.JSONBlock,
	})
	if err != nil {
		return nil, errkind.E(errkind.ProjectCreationFailed, op, err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{"Cargo.toml", manifest},
		{filepath.Join("src", "lib.rs"), lib},
	}
	entries := make([]artifact.Entry, 0, len(files))
	for _, f := range files {
		path := filepath.Join(root, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return nil, errkind.E(errkind.ProjectCreationFailed, op, err)
		}
		entries = append(entries, artifact.Entry{
			Name: filepath.ToSlash(f.name), Path: path, Origin: artifact.OriginRendered, Size: int64(len(f.data)),
		})
	}

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, errkind.Errorf(errkind.ProjectCreationFailed, op, "%s is not a directory after creation", root)
	}
	a.log.Info("project created", zap.String("path", root))
	return entries, nil
}

// Relocate copies the artifacts into the project root under their own
// names, one after another in the order given. The cache copies stay in
// place so later runs can reuse them.
func (a *Assembler) Relocate(ctx context.Context, artifacts ...artifact.Entry) ([]artifact.Entry, error) {
	out := make([]artifact.Entry, 0, len(artifacts))
	for _, src := range artifacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dst := filepath.Join(a.opts.Dir, src.Name)
		n, err := artifact.CopyFile(src.Path, dst)
		if err != nil {
			return nil, fmt.Errorf("copy %s into project: %w", src.Name, err)
		}
		out = append(out, artifact.Entry{Name: src.Name, Path: dst, Origin: artifact.OriginCopied, Size: n})
		a.log.Debug("artifact copied", zap.String("from", src.Path), zap.String("to", dst))
	}
	return out, nil
}
