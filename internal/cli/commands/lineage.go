package commands

import (
	"fmt"
	"strings"

	"github.com/ozmeta-labs/ozmeta/internal/lineage"
	"github.com/spf13/cobra"
)

// LineageOptions holds options for the lineage command.
type LineageOptions struct {
	Format string
	Check  bool
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage",
		Short: "Export the snapshot's lineage graph",
		Long: `Build the lineage graph from the snapshot and export it.

Nodes are source fields, canonical fields, physical fields and semantic
measures; edges carry the transform applied between them. With --check,
canonical fields that have no source-field ancestry are listed instead.`,
		Example: `  # Export as Mermaid for docs
  ozmeta lineage --snapshot snapshot.json --format mermaid

  # Export as Graphviz dot
  ozmeta lineage --snapshot snapshot.json --format dot > lineage.dot

  # List canonical fields with no source ancestry
  ozmeta lineage --snapshot snapshot.json --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLineage(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "json", "Export format (json|mermaid|dot)")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "Report canonical fields lacking source ancestry")

	return cmd
}

func runLineage(cmd *cobra.Command, opts *LineageOptions) error {
	cfg := getConfig()

	doc, err := loadSnapshot(cfg)
	if err != nil {
		return err
	}

	graph, err := lineage.Build(doc.Objects.Lineage)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInput, err)
	}

	if opts.Check {
		missing := graph.Complete(doc.Objects.Mapping)
		if len(missing) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "all canonical fields trace back to a source")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d canonical field(s) lack source ancestry:\n", len(missing))
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", strings.Join(missing, "\n  "))
		return nil
	}

	if err := lineage.Export(cmd.OutOrStdout(), graph, opts.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInput, err)
	}
	return nil
}
