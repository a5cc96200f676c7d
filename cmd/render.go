package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"

	"multishot/screenshot"
)

// renderSummary prints one row per device and the output folder.
func renderSummary(out io.Writer, summary *screenshot.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Device", "Viewport", "State", "Viewport PNG", "Full-page PNG", "Error"})

	for i, r := range summary.Results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		t.AppendRow(table.Row{
			i + 1,
			r.Device.ID,
			r.Device.Size(),
			r.State.String(),
			baseName(r.ViewportPath),
			baseName(r.FullPagePath),
			errText,
		})
	}
	t.Render()

	fmt.Fprintf(out, "%d/%d ok\n", len(summary.Results)-summary.Failed(), len(summary.Results))

	if md := summary.Metadata; md != nil {
		fmt.Fprintf(out, "Metadata: %s\n", md.Path)
		if md.LocalImagePath != "" {
			fmt.Fprintf(out, "Image:    %s\n", md.LocalImagePath)
		}
	}
	fmt.Fprintf(out, "Captures saved in: %s\n", summary.BasePath)
	if summary.RunID != "" {
		fmt.Fprintf(out, "Run ID: %s\n", summary.RunID)
	}
}

func baseName(path string) string {
	if path == "" {
		return "-"
	}
	return filepath.Base(path)
}
