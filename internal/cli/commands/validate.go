package commands

import (
	"errors"
	"fmt"

	"github.com/ozmeta-labs/ozmeta/internal/platform"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a snapshot document",
		Long: `Check a snapshot document for structural and referential integrity.

All violations are reported in one pass rather than failing on the first,
so a broken snapshot needs only one round-trip to fix. With --schema, every
field's logical type is additionally checked against the given platform
profile set for each enabled platform.`,
		Example: `  # Validate the default snapshot
  ozmeta validate --snapshot snapshot.json

  # Validate and pre-check type coverage against custom profiles
  ozmeta validate --snapshot snapshot.json --schema profiles.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, schemaPath)
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "Platform profile set to check type coverage against")

	return cmd
}

func runValidate(cmd *cobra.Command, schemaPath string) error {
	cfg := getConfig()

	doc, err := loadSnapshot(cfg)
	if err != nil {
		return err
	}

	if err := snapshot.Validate(doc); err != nil {
		var invalid *snapshot.InvalidError
		if errors.As(err, &invalid) {
			for _, v := range invalid.Violations {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", v)
			}
		}
		return err
	}

	if schemaPath != "" {
		set, err := platform.LoadSet(schemaPath)
		if err != nil {
			return err
		}
		if err := checkTypeCoverage(cmd, doc, set); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s is valid\n", cfg.SnapshotPath)
	return nil
}

// checkTypeCoverage verifies every field's logical type resolves on every
// enabled platform, so generate cannot hit an unmapped type later.
func checkTypeCoverage(cmd *cobra.Command, doc *snapshot.Document, set *platform.Set) error {
	unmapped := 0
	for _, ref := range doc.Objects.Platforms.Platforms {
		if !ref.Enabled {
			continue
		}
		for _, t := range doc.Objects.Model.Tables {
			for _, f := range t.Fields {
				if _, err := set.ResolveType(f.Type, ref.Code); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s.%s: %v\n", t.Name, f.Name, err)
					unmapped++
				}
			}
		}
	}
	if unmapped > 0 {
		return fmt.Errorf("%w: %d field type(s) have no mapping", ErrInput, unmapped)
	}
	return nil
}
