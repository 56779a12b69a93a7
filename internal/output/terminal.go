package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/ggwpez/wtfwt/internal/artifact"
	"github.com/ggwpez/wtfwt/internal/errkind"
	"github.com/ggwpez/wtfwt/internal/replay"
)

// Colors for status indicators
var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// RenderTerminal writes a human-readable summary of a run to w. err is the
// run error, if any.
func RenderTerminal(w io.Writer, res *replay.Result, err error) {
	fmt.Fprintln(w)
	if err != nil {
		fmt.Fprintf(w, "%s Replay failed after %s: %s\n", red("✗"), res.State, errkind.Of(err))
	} else {
		fmt.Fprintf(w, "%s Replay project ready in %s\n", green("✓"), bold(res.Project))
	}
	fmt.Fprintln(w)

	if !res.Block.IsZero() {
		fmt.Fprintf(w, "  Block:    %s\n", cyan(res.Block.Hex()))
	}
	if !res.Parent.IsZero() {
		fmt.Fprintf(w, "  Parent:   %s\n", cyan(res.Parent.Hex()))
		fmt.Fprintf(w, "  Runtime:  spec version %d\n", res.SpecVersion)
	}
	fmt.Fprintf(w, "  Strategy: %s\n", res.Strategy)
	fmt.Fprintf(w, "  Elapsed:  %s\n", formatDuration(res.Elapsed))
	fmt.Fprintln(w)

	if len(res.Artifacts) > 0 {
		renderArtifacts(w, res.Artifacts)
	}
}

func renderArtifacts(w io.Writer, artifacts []artifact.Entry) {
	fmt.Fprintln(w, bold("Artifacts"))

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("File", "Origin", "Size", "Path")
	tbl.WithHeaderFormatter(headerFmt).WithWriter(w)

	for _, a := range artifacts {
		tbl.AddRow(a.Name, formatOrigin(a.Origin), formatSize(a.Size), a.Path)
	}

	tbl.Print()
	fmt.Fprintln(w)
}

func formatOrigin(o artifact.Origin) string {
	switch o {
	case artifact.OriginCached:
		return yellow(string(o))
	case artifact.OriginFetched, artifact.OriginGenerated:
		return green(string(o))
	default:
		return string(o)
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "—"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// DisableColors turns off color output (for non-TTY or JSON mode)
func DisableColors() {
	color.NoColor = true
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
