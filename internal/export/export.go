// Package export produces snapshot documents and drift observations from
// live source systems. Providers are registered per platform family and
// operate on database/sql handles, so any driver (or a mock) can back them.
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ozmeta-labs/ozmeta/internal/drift"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
)

// ErrConnection marks a failure to reach the source system.
var ErrConnection = errors.New("connection failed")

// ContractError reports an export whose result cannot satisfy the snapshot
// contract (for example, table codes that cannot be derived uniquely).
type ContractError struct {
	Violations []string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("export contract violated: %s", strings.Join(e.Violations, "; "))
}

// Provider extracts canonical metadata from one family of source systems.
type Provider interface {
	// Name is the provider's registry key.
	Name() string
	// Export introspects the source and builds a snapshot document.
	Export(ctx context.Context, db *sql.DB, projectID string) (*snapshot.Document, error)
	// Observe introspects the source into a drift observation.
	Observe(ctx context.Context, db *sql.DB) (*drift.Observation, error)
}

var (
	providersMu sync.RWMutex
	providers   = make(map[string]Provider)
)

// Register registers a provider. Called from init() in provider files.
func Register(p Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[strings.ToLower(p.Name())] = p
}

// Get returns a provider by name.
func Get(name string) (Provider, bool) {
	providersMu.RLock()
	defer providersMu.RUnlock()
	p, ok := providers[strings.ToLower(name)]
	return p, ok
}

// List returns all registered provider names, sorted.
func List() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open connects to a source system and verifies the connection. A failure to
// reach the source wraps ErrConnection so callers can map it to the right
// exit code.
func Open(ctx context.Context, driver, conn string) (*sql.DB, error) {
	db, err := sql.Open(driver, conn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return db, nil
}
