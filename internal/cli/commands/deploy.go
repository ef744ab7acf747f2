package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ozmeta-labs/ozmeta/internal/cli/config"
	"github.com/ozmeta-labs/ozmeta/internal/deploy"
	"github.com/ozmeta-labs/ozmeta/internal/engine"
	"github.com/ozmeta-labs/ozmeta/internal/state"
	"github.com/ozmeta-labs/ozmeta/internal/writer"
	"github.com/spf13/cobra"
)

// DeployOptions holds options for the deploy command.
type DeployOptions struct {
	Group   string
	Target  string
	Timeout time.Duration
}

// NewDeployCommand creates the deploy command and its subcommands.
func NewDeployCommand() *cobra.Command {
	opts := &DeployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a target to its inactive slot and promote it",
		Long: `Run one blue/green deployment cycle for a switch group.

Artifacts are compiled into the group's inactive slot, verified against
their manifest, and promoted with a single active-slot flip. Any failure
after compilation rolls back; the previously active slot is never
touched, so consumers keep reading a consistent environment throughout.`,
		Example: `  # Deploy the SFO-BI group's snowflake binding
  ozmeta deploy --group SFO-BI --target tp-proda-sf --snapshot snapshot.json

  # Show the group's current slot and state
  ozmeta deploy status --group SFO-BI

  # Show past deployments
  ozmeta deploy history --group SFO-BI --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Group, "group", "", "Switch group to deploy")
	cmd.Flags().StringVar(&opts.Target, "target", "", "Target platform ID to compile")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "Per-stage timeout")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("target")

	cmd.AddCommand(newDeployStatusCommand())
	cmd.AddCommand(newDeployHistoryCommand())

	return cmd
}

func runDeploy(cmd *cobra.Command, opts *DeployOptions) error {
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

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	controller := deploy.NewController(store,
		deploy.WithLogger(log),
		deploy.WithTimeout(opts.Timeout))

	// artifactDir tracks where the compile stage staged this run's target
	// tree, so the later stages can find it without recompiling.
	var artifactDir string

	hooks := deploy.Hooks{
		Compile: func(ctx context.Context, slot string) (string, error) {
			slotDir := filepath.Join(cfg.OutDir, strings.ToLower(slot))
			res, err := engine.Compile(ctx, doc, engine.Options{
				OutDir:    slotDir,
				Workers:   cfg.Workers,
				Platforms: set,
				Logger:    log,
			})
			if err != nil {
				return "", err
			}
			for _, tr := range res.Targets {
				if tr.TargetPlatform.ID != opts.Target {
					continue
				}
				if tr.Err != nil {
					return "", tr.Err
				}
				artifactDir = filepath.Join(slotDir, tr.Name)
				return manifestDigest(artifactDir)
			}
			return "", fmt.Errorf("target platform %q not found in snapshot", opts.Target)
		},
		Deploy: func(_ context.Context, slot string) error {
			if _, err := os.Stat(artifactDir); err != nil {
				return fmt.Errorf("slot %s has no staged artifacts: %w", slot, err)
			}
			return nil
		},
		Validate: func(_ context.Context, slot string) error {
			findings, err := writer.Verify(artifactDir)
			if err != nil {
				return err
			}
			if len(findings) > 0 {
				return fmt.Errorf("slot %s failed manifest verification: %s",
					slot, strings.Join(findings, "; "))
			}
			return nil
		},
	}

	outcome, err := controller.Run(cmd.Context(), opts.Group, opts.Target, hooks)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "group %s promoted: %s -> %s (deployment %s)\n",
		opts.Group, orNone(outcome.PreviousSlot), outcome.ActiveSlot, outcome.Deployment.ID)
	return nil
}

// manifestDigest hashes the manifest file itself; since the manifest pins
// every artifact's digest, this one value identifies the whole tree.
func manifestDigest(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, writer.ManifestName))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func orNone(slot string) string {
	if slot == "" {
		return "(none)"
	}
	return slot
}

// openStore opens the deployment state database, creating its directory
// when needed.
func openStore(cfg *config.Config) (*state.Store, error) {
	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" && cfg.StatePath != ":memory:" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, err
		}
	}
	return state.Open(cfg.StatePath)
}

func newDeployStatusCommand() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a switch group's active slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			active, err := store.ActiveSlot(group)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "group %s: active slot %s\n", group, orNone(active))

			if active != "" {
				last, err := store.LastDeployment(group, active)
				if err == nil && last != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "last deployment: %s (%s) at %s\n",
						last.ID, last.Status, last.StartedAt.UTC().Format(time.RFC3339))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Switch group")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func newDeployHistoryCommand() *cobra.Command {
	var (
		group string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a switch group's deployment history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			deployments, err := store.History(group, limit)
			if err != nil {
				return err
			}
			renderHistory(cmd, deployments)
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Switch group")
	cmd.Flags().IntVar(&limit, "limit", 20, "Max rows to show")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func renderHistory(cmd *cobra.Command, deployments []state.Deployment) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Slot", "Target", "Status", "Started", "Error"})
	for _, d := range deployments {
		t.AppendRow(table.Row{
			d.ID, d.Slot, d.TargetPlatformID, d.Status,
			d.StartedAt.UTC().Format(time.RFC3339), d.Error,
		})
	}
	t.Render()
}
