package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ozmeta-labs/ozmeta/internal/cli/config"
	"github.com/ozmeta-labs/ozmeta/internal/jobs"
	"github.com/spf13/cobra"
)

// JobsOptions holds options for the jobs command.
type JobsOptions struct {
	Scheduler string
	Out       string
}

// NewJobsCommand creates the jobs command.
func NewJobsCommand() *cobra.Command {
	opts := &JobsOptions{}

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Compile job definitions for a scheduler",
		Long: `Compile every job in the snapshot into artifacts for one scheduler.

Steps are ordered by their dependency graph with ties broken by step
code, so the rendered artifact is stable across runs. A dependency cycle
is a compilation error.`,
		Example: `  # Print cron entries
  ozmeta jobs --snapshot snapshot.json --scheduler cron

  # Write Airflow DAG files
  ozmeta jobs --snapshot snapshot.json --scheduler airflow --write-to dags/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJobs(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Scheduler, "scheduler", "cron",
		fmt.Sprintf("Scheduler to render for (%s)", strings.Join(jobs.Schedulers(), "|")))
	cmd.Flags().StringVar(&opts.Out, "write-to", "", "Directory to write job artifacts to (default: print)")

	return cmd
}

func runJobs(cmd *cobra.Command, opts *JobsOptions) error {
	cfg := getConfig()
	log := config.GetLogger(cmd.Context())

	doc, err := loadSnapshot(cfg)
	if err != nil {
		return err
	}

	compiled := make([]*jobs.Compiled, 0, len(doc.Objects.Jobs.Jobs))
	for _, j := range doc.Objects.Jobs.Jobs {
		c, err := jobs.Compile(j, opts.Scheduler)
		if err != nil {
			return fmt.Errorf("%w: job %s: %v", ErrInput, j.Code, err)
		}
		compiled = append(compiled, c)
	}

	if opts.Out == "" {
		for _, c := range compiled {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s\n", c.Filename, c.Content)
		}
		return nil
	}

	if err := os.MkdirAll(opts.Out, 0750); err != nil {
		return err
	}
	for _, c := range compiled {
		path := filepath.Join(opts.Out, c.Filename)
		if err := os.WriteFile(path, []byte(c.Content), 0600); err != nil {
			return err
		}
		log.Debug("job artifact written", "job", c.JobCode, "path", path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d job artifact(s) to %s\n", len(compiled), opts.Out)
	return nil
}
