// Package snowflake emits Snowflake DDL artifacts.
package snowflake

import (
	"github.com/ozmeta-labs/ozmeta/pkg/emitter"
)

func init() {
	emitter.Register(Snowflake)
}

// Snowflake addresses objects as database.schema.table, so the container
// appears in every qualified name. Key constraints are informational on
// Snowflake; relations therefore compile to logical rules, not FK DDL.
var Snowflake = emitter.New(emitter.Config{
	Name:             "snowflake",
	Quote:            `"`,
	Style:            emitter.NameFullyQualified,
	InlinePrimaryKey: true,
	NotNull:          true,
})
