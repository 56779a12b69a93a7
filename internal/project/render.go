package project

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.tmpl"))

// Manifest is the build metadata pinned into Cargo.toml.
type Manifest struct {
	RuntimeName string // without the "-runtime" suffix
	SourceRepo  string // GitHub "org/project"
	SourceRev   string // git commit of the runtime
}

type manifestData struct {
	Manifest
	JSONBlock bool
}

// libData fills src/lib.rs. File names are relative to the project root,
// where the artifacts are copied.
type libData struct {
	SnapshotFile string
	BlockFile    string
	JSONBlock    bool
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
