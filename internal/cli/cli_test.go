package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ozmeta-labs/ozmeta/internal/cli/config"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
	"github.com/ozmeta-labs/ozmeta/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/ozmeta-labs/ozmeta/pkg/emitters/bigquery"
	_ "github.com/ozmeta-labs/ozmeta/pkg/emitters/postgres"
	_ "github.com/ozmeta-labs/ozmeta/pkg/emitters/redshift"
	_ "github.com/ozmeta-labs/ozmeta/pkg/emitters/snowflake"
	_ "github.com/ozmeta-labs/ozmeta/pkg/emitters/spark"
)

// writeSnapshot marshals a document into a temp file and returns its path.
func writeSnapshot(t *testing.T, doc *snapshot.Document) string {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// run executes the root command with args and returns its combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateCommandAcceptsValidSnapshot(t *testing.T) {
	path := writeSnapshot(t, testutil.ValidSnapshot())

	out, err := run(t, "validate", "--snapshot", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestValidateCommandReportsViolations(t *testing.T) {
	doc := testutil.ValidSnapshot()
	doc.Meta.ProjectID = ""
	path := writeSnapshot(t, doc)

	out, err := run(t, "validate", "--snapshot", path)
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCode(err))
	assert.Contains(t, out, "projectId")
}

func TestValidateCommandMissingFileIsFileError(t *testing.T) {
	_, err := run(t, "validate", "--snapshot", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFileError, ExitCode(err))
}

func TestValidateCommandMalformedJSONIsInvalidInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"meta": `), 0600))

	_, err := run(t, "validate", "--snapshot", path)
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCode(err))
}

func TestGenerateCommandWritesArtifacts(t *testing.T) {
	path := writeSnapshot(t, testutil.ValidSnapshot())
	outDir := t.TempDir()

	out, err := run(t, "generate", "--snapshot", path, "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "postgres")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	_, statErr := os.Stat(filepath.Join(outDir, entries[0].Name(), "manifest.json"))
	assert.NoError(t, statErr)
}

func TestExportCommandRejectsUnknownProvider(t *testing.T) {
	_, err := run(t, "export",
		"--provider", "oracle",
		"--connection", "oracle://nowhere",
		"--project-id", "5f3a1c2e-9b7d-4c1a-8e2f-0d6b4a9c3e71",
		"--out", filepath.Join(t.TempDir(), "snap.json"))
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCode(err))
}

func TestMetricsCommandRendersExpressions(t *testing.T) {
	path := writeSnapshot(t, testutil.ValidSnapshot())

	out, err := run(t, "metrics", "--snapshot", path)
	require.NoError(t, err)
	assert.Contains(t, out, "TotalRevenue")
	assert.Contains(t, out, "SUM")
}

func TestJobsCommandPrintsArtifacts(t *testing.T) {
	path := writeSnapshot(t, testutil.ValidSnapshot())

	out, err := run(t, "jobs", "--snapshot", path)
	require.NoError(t, err)
	assert.Contains(t, out, "daily_load")
}

func TestLineageCommandExportsMermaid(t *testing.T) {
	path := writeSnapshot(t, testutil.ValidSnapshot())

	out, err := run(t, "lineage", "--snapshot", path, "--format", "mermaid")
	require.NoError(t, err)
	assert.Contains(t, out, "graph LR")
}

func TestLineageCommandRejectsUnknownFormat(t *testing.T) {
	path := writeSnapshot(t, testutil.ValidSnapshot())

	_, err := run(t, "lineage", "--snapshot", path, "--format", "svg")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCode(err))
}

func TestDeployStatusOnFreshGroup(t *testing.T) {
	path := writeSnapshot(t, testutil.ValidSnapshot())
	statePath := filepath.Join(t.TempDir(), "state", "ozmeta.db")

	out, err := run(t, "deploy", "status",
		"--group", "SFO-BI",
		"--snapshot", path,
		"--state", statePath)
	require.NoError(t, err)
	assert.Contains(t, out, "active slot (none)")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ozmeta")
}
