// Package redshift emits Amazon Redshift DDL artifacts.
package redshift

import (
	"github.com/ozmeta-labs/ozmeta/pkg/emitter"
)

func init() {
	emitter.Register(Redshift)
}

// Redshift takes PostgreSQL-shaped DDL. Primary and foreign keys are
// accepted declaratively; Redshift uses them for planning even though it
// does not enforce them, so they still belong in the emitted DDL.
var Redshift = emitter.New(emitter.Config{
	Name:             "redshift",
	Quote:            `"`,
	Style:            emitter.NameSchemaQualified,
	InlinePrimaryKey: true,
	NotNull:          true,
})
