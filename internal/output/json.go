// Package output renders the summary of a replay run for humans or machines.
package output

import (
	"encoding/json"
	"io"

	"github.com/ggwpez/wtfwt/internal/replay"
	"github.com/ggwpez/wtfwt/internal/report"
)

// RenderJSON writes the run report as indented JSON to w.
func RenderJSON(w io.Writer, res *replay.Result, err error) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(report.New(res, err))
}
