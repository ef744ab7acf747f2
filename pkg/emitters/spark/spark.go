// Package spark emits Spark SQL (Delta Lake) DDL artifacts.
package spark

import (
	"github.com/ozmeta-labs/ozmeta/pkg/emitter"
)

func init() {
	emitter.Register(Spark)
}

// Spark tables materialize as Delta tables under catalog.schema. Delta
// honors NOT NULL but has no key constraints, so primary keys stay out of
// the DDL and relations compile to logical rules.
var Spark = emitter.New(emitter.Config{
	Name:        "spark",
	Quote:       "`",
	Style:       emitter.NameFullyQualified,
	NotNull:     true,
	TableSuffix: "\nUSING DELTA",
})
