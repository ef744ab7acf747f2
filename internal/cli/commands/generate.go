package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ozmeta-labs/ozmeta/internal/cli/config"
	"github.com/ozmeta-labs/ozmeta/internal/engine"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
	"github.com/spf13/cobra"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compile a snapshot into platform artifacts",
		Long: `Compile the snapshot for every enabled target platform.

Each target gets its own artifact tree under the output directory:
README.md, sql/*.sql, and a manifest.json mapping every relative path to
its SHA-256 digest. Identical input always produces byte-identical
output. One target's failure does not stop its siblings.`,
		Example: `  # Compile into ./dist
  ozmeta generate --snapshot snapshot.json --out dist

  # Bound parallelism
  ozmeta generate --snapshot snapshot.json --out dist --workers 2`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg := getConfig()
	log := config.GetLogger(cmd.Context())

	doc, err := loadSnapshot(cfg)
	if err != nil {
		return err
	}

	set, err := loadPlatforms(cfg)
	if err != nil {
		return err
	}

	res, err := engine.Compile(cmd.Context(), doc, engine.Options{
		OutDir:    cfg.OutDir,
		Workers:   cfg.Workers,
		Platforms: set,
		Logger:    log,
	})
	if err != nil {
		var invalid *snapshot.InvalidError
		if errors.As(err, &invalid) {
			for _, v := range invalid.Violations {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", v)
			}
		}
		return err
	}

	if cfg.OutputFormat == "json" {
		if err := generateJSON(cmd, res); err != nil {
			return err
		}
	} else {
		generateTable(cmd, res)
	}

	if failed := res.Failed(); len(failed) > 0 {
		// Surface the single failure directly so its type drives the
		// exit code; aggregate otherwise.
		if len(failed) == 1 {
			return fmt.Errorf("target %s: %w", failed[0].TargetPlatform.ID, failed[0].Err)
		}
		return fmt.Errorf("%w: %d of %d targets failed to compile", ErrInput, len(failed), len(res.Targets))
	}
	return nil
}

func generateTable(cmd *cobra.Command, res *engine.RunResult) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Target", "Platform", "Files", "Status"})
	for _, tr := range res.Targets {
		status := "ok"
		files := 0
		if tr.Err != nil {
			status = tr.Err.Error()
		} else {
			files = len(tr.Manifest.Files)
		}
		t.AppendRow(table.Row{tr.Name, tr.TargetPlatform.PlatformCode, files, status})
	}
	t.Render()
}

func generateJSON(cmd *cobra.Command, res *engine.RunResult) error {
	type targetOut struct {
		Target   string `json:"target"`
		Platform string `json:"platform"`
		Files    int    `json:"files"`
		Error    string `json:"error,omitempty"`
	}
	out := make([]targetOut, 0, len(res.Targets))
	for _, tr := range res.Targets {
		o := targetOut{Target: tr.Name, Platform: tr.TargetPlatform.PlatformCode}
		if tr.Err != nil {
			o.Error = tr.Err.Error()
		} else {
			o.Files = len(tr.Manifest.Files)
		}
		out = append(out, o)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
