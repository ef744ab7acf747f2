package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateBringsSchemaUp(t *testing.T) {
	s := openTestStore(t)
	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, int64(1))
}

func TestActiveSlotRoundTrip(t *testing.T) {
	s := openTestStore(t)

	slot, err := s.ActiveSlot("acme-sales")
	require.NoError(t, err)
	assert.Empty(t, slot, "unswitched group has no active slot")

	require.NoError(t, s.SetActiveSlot("acme-sales", "ProdA"))
	slot, err = s.ActiveSlot("acme-sales")
	require.NoError(t, err)
	assert.Equal(t, "ProdA", slot)

	// Switching overwrites, it does not accumulate.
	require.NoError(t, s.SetActiveSlot("acme-sales", "ProdB"))
	slot, err = s.ActiveSlot("acme-sales")
	require.NoError(t, err)
	assert.Equal(t, "ProdB", slot)
}

func TestDeploymentLifecycle(t *testing.T) {
	s := openTestStore(t)

	d, err := s.BeginDeployment("acme-sales", "ProdB", "tp-1", "abc123")
	require.NoError(t, err)
	assert.Equal(t, DeploymentRunning, d.Status)
	assert.NotEmpty(t, d.ID)

	require.NoError(t, s.CompleteDeployment(d.ID, DeploymentSucceeded, ""))

	hist, err := s.History("acme-sales", 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, DeploymentSucceeded, hist[0].Status)
	assert.NotNil(t, hist[0].CompletedAt)
	assert.Empty(t, hist[0].Error)
}

func TestCompleteUnknownDeployment(t *testing.T) {
	s := openTestStore(t)
	err := s.CompleteDeployment("nope", DeploymentFailed, "boom")
	require.Error(t, err)
}

func TestHistoryNewestFirst(t *testing.T) {
	s := openTestStore(t)

	first, err := s.BeginDeployment("g", "ProdA", "tp-1", "sha1")
	require.NoError(t, err)
	require.NoError(t, s.CompleteDeployment(first.ID, DeploymentFailed, "validation failed"))
	second, err := s.BeginDeployment("g", "ProdB", "tp-1", "sha2")
	require.NoError(t, err)
	require.NoError(t, s.CompleteDeployment(second.ID, DeploymentSucceeded, ""))

	hist, err := s.History("g", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, second.ID, hist[0].ID)
	assert.Equal(t, "validation failed", hist[1].Error)

	last, err := s.LastDeployment("g", "ProdA")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, first.ID, last.ID)
}
