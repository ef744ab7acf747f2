package commands

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ozmeta-labs/ozmeta/internal/metrics"
	"github.com/spf13/cobra"
)

// MetricsOptions holds options for the metrics command.
type MetricsOptions struct {
	Target string
}

// NewMetricsCommand creates the metrics command.
func NewMetricsCommand() *cobra.Command {
	opts := &MetricsOptions{}

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compile metric formulas for a target language",
		Long: `Parse every metric formula in the snapshot and render it for one
target expression language.

Formulas use a fixed vocabulary (SUM, AVG, COUNT, MIN, MAX, IF, DIVIDE,
COALESCE, field and metric references); anything outside it is a
compilation error naming the offending token.`,
		Example: `  # Render metrics as T-SQL
  ozmeta metrics --snapshot snapshot.json --target tsql

  # Render metrics as DAX measures
  ozmeta metrics --snapshot snapshot.json --target dax`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMetrics(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "tsql",
		fmt.Sprintf("Expression language (%s)", strings.Join(metrics.Targets(), "|")))

	return cmd
}

func runMetrics(cmd *cobra.Command, opts *MetricsOptions) error {
	cfg := getConfig()

	if !slices.Contains(metrics.Targets(), strings.ToLower(opts.Target)) {
		return fmt.Errorf("%w: unknown target language %q (supported: %s)",
			ErrInput, opts.Target, strings.Join(metrics.Targets(), ", "))
	}

	doc, err := loadSnapshot(cfg)
	if err != nil {
		return err
	}

	compiled := make([]*metrics.Compiled, 0, len(doc.Objects.Metrics.Metrics))
	for _, m := range doc.Objects.Metrics.Metrics {
		c, err := metrics.Compile(m.Code, m.Formula, opts.Target)
		if err != nil {
			return fmt.Errorf("metric %s: %w", m.Code, err)
		}
		compiled = append(compiled, c)
	}

	if cfg.OutputFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(compiled)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Expression", "Depends On"})
	for _, c := range compiled {
		t.AppendRow(table.Row{c.Code, c.Expression, strings.Join(c.DependsOn, ", ")})
	}
	t.Render()
	return nil
}
