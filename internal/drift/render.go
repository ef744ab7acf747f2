package drift

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render writes a report in the requested format ("table" or "json").
func Render(w io.Writer, r *Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		return renderTable(w, r)
	}
}

func renderTable(w io.Writer, r *Report) error {
	if len(r.Findings) == 0 {
		_, err := fmt.Fprintf(w, "%s: no drift\n", r.Target)
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(r.Target)
	t.AppendHeader(table.Row{"Severity", "Kind", "Object", "Column", "Expected", "Observed"})
	for _, f := range r.Findings {
		t.AppendRow(table.Row{f.Severity, f.Kind, f.Object, f.Column, f.Expected, f.Observed})
	}
	t.Render()
	return nil
}
