// Package state persists deployment state: which slot of each switch group is
// live, and the full deployment history. The store is a local SQLite database
// managed through embedded migrations.
package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DeploymentStatus tracks a deployment record through its lifecycle.
type DeploymentStatus string

const (
	DeploymentRunning    DeploymentStatus = "running"
	DeploymentSucceeded  DeploymentStatus = "succeeded"
	DeploymentFailed     DeploymentStatus = "failed"
	DeploymentRolledBack DeploymentStatus = "rolled_back"
)

// Deployment is one recorded deployment attempt against a slot.
type Deployment struct {
	ID               string
	Group            string
	Slot             string
	TargetPlatformID string
	ManifestSHA      string
	Status           DeploymentStatus
	Error            string
	StartedAt        time.Time
	CompletedAt      *time.Time
}

// Store is the SQLite-backed deployment state store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the state database at path and brings its schema
// up to date. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ActiveSlot returns the live slot for a switch group, or "" when the group
// has never been switched.
func (s *Store) ActiveSlot(group string) (string, error) {
	var slot string
	err := s.db.QueryRow(
		`SELECT active_slot FROM switch_groups WHERE group_name = ?`, group,
	).Scan(&slot)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read active slot: %w", err)
	}
	return slot, nil
}

// SetActiveSlot records the live slot for a switch group.
func (s *Store) SetActiveSlot(group, slot string) error {
	_, err := s.db.Exec(
		`INSERT INTO switch_groups (group_name, active_slot, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(group_name) DO UPDATE SET active_slot = excluded.active_slot, updated_at = excluded.updated_at`,
		group, slot, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set active slot: %w", err)
	}
	return nil
}

// BeginDeployment opens a deployment record in running state.
func (s *Store) BeginDeployment(group, slot, targetPlatformID, manifestSHA string) (*Deployment, error) {
	d := &Deployment{
		ID:               uuid.New().String(),
		Group:            group,
		Slot:             slot,
		TargetPlatformID: targetPlatformID,
		ManifestSHA:      manifestSHA,
		Status:           DeploymentRunning,
		StartedAt:        time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO deployments (id, group_name, slot, target_platform_id, manifest_sha, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Group, d.Slot, d.TargetPlatformID, d.ManifestSHA, d.Status, d.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create deployment: %w", err)
	}
	return d, nil
}

// CompleteDeployment closes a deployment record with its final status.
func (s *Store) CompleteDeployment(id string, status DeploymentStatus, errMsg string) error {
	res, err := s.db.Exec(
		`UPDATE deployments SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		status, nullString(errMsg), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete deployment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("deployment %s not found", id)
	}
	return nil
}

// History returns the most recent deployments for a group, newest first.
// A limit of 0 means no limit.
func (s *Store) History(group string, limit int) ([]Deployment, error) {
	query := `SELECT id, group_name, slot, target_platform_id, manifest_sha, status, error, started_at, completed_at
	          FROM deployments WHERE group_name = ? ORDER BY started_at DESC, rowid DESC`
	args := []any{group}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Deployment
	for rows.Next() {
		var d Deployment
		var errMsg sql.NullString
		var completed sql.NullTime
		if err := rows.Scan(&d.ID, &d.Group, &d.Slot, &d.TargetPlatformID, &d.ManifestSHA,
			&d.Status, &errMsg, &d.StartedAt, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		d.Error = errMsg.String
		if completed.Valid {
			t := completed.Time
			d.CompletedAt = &t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LastDeployment returns the most recent deployment for a group and slot, or
// nil when none exists.
func (s *Store) LastDeployment(group, slot string) (*Deployment, error) {
	all, err := s.History(group, 0)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Slot == slot {
			return &all[i], nil
		}
	}
	return nil, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
