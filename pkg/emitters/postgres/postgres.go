// Package postgres emits PostgreSQL DDL artifacts.
// This package is pure rendering with no database driver dependencies,
// so tooling can use it without the overhead of database connections.
package postgres

import (
	"github.com/ozmeta-labs/ozmeta/pkg/emitter"
)

func init() {
	emitter.Register(Postgres)
}

// Postgres renders schema-qualified DDL with enforced constraints.
// The container is the database the connection is scoped to, so object
// names carry only schema and table.
var Postgres = emitter.New(emitter.Config{
	Name:             "postgres",
	Quote:            `"`,
	Style:            emitter.NameSchemaQualified,
	InlinePrimaryKey: true,
	NotNull:          true,
})
