// Package report provides the JSON model of a replay run and writes it to
// timestamped files so past runs can be compared.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ggwpez/wtfwt/internal/errkind"
	"github.com/ggwpez/wtfwt/internal/replay"
)

// DefaultDir is where report files are written.
const DefaultDir = "reports"

// MillisDuration marshals a time.Duration as an integer millisecond count.
type MillisDuration time.Duration

func (d MillisDuration) MarshalJSON() ([]byte, error) {
	ms := time.Duration(d).Milliseconds()
	return json.Marshal(ms)
}

// Entry is one file the run produced or reused.
type Entry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Origin string `json:"origin"`
	Size   int64  `json:"size"`
}

// Report is the JSON-serializable summary of a run. Error is set only for
// failed runs, in which case State names the last completed step.
type Report struct {
	Timestamp   time.Time      `json:"timestamp"`
	State       string         `json:"state"`
	Project     string         `json:"project"`
	Block       string         `json:"block"`
	Parent      string         `json:"parent,omitempty"`
	SpecVersion uint32         `json:"spec_version,omitempty"`
	Strategy    string         `json:"strategy"`
	Artifacts   []Entry        `json:"artifacts"`
	ElapsedMS   MillisDuration `json:"elapsed_ms"`
	Error       *string        `json:"error,omitempty"`
	ErrorKind   *string        `json:"error_kind,omitempty"`
}

// New builds the report for a run. err is the run error, if any.
func New(res *replay.Result, err error) Report {
	r := Report{
		Timestamp: time.Now().UTC(),
		State:     res.State.String(),
		Project:   res.Project,
		Strategy:  string(res.Strategy),
		Artifacts: make([]Entry, 0, len(res.Artifacts)),
		ElapsedMS: MillisDuration(res.Elapsed),
	}
	if !res.Block.IsZero() {
		r.Block = res.Block.Hex()
	}
	if !res.Parent.IsZero() {
		r.Parent = res.Parent.Hex()
		r.SpecVersion = res.SpecVersion
	}
	for _, a := range res.Artifacts {
		r.Artifacts = append(r.Artifacts, Entry{Name: a.Name, Path: a.Path, Origin: string(a.Origin), Size: a.Size})
	}
	if err != nil {
		msg := err.Error()
		r.Error = &msg
		if kind := errkind.Of(err); kind != "" {
			k := string(kind)
			r.ErrorKind = &k
		}
	}
	return r
}

// WriteJSON writes data to dir as {prefix}-{YYYYMMDD-HHMMSS}.json and returns
// the file path. dir is created if missing; an empty dir means DefaultDir.
func WriteJSON(dir string, data any, prefix string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", prefix, timestamp))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}

	return path, nil
}
