// Package bigquery emits BigQuery DDL artifacts.
package bigquery

import (
	"github.com/ozmeta-labs/ozmeta/pkg/emitter"
)

func init() {
	emitter.Register(BigQuery)
}

// BigQuery has no schema level inside a dataset, so container and schema
// merge into one dataset-style namespace. Primary keys are declared
// NOT ENFORCED; foreign keys never appear in DDL and compile to logical
// relation rules instead.
var BigQuery = emitter.New(emitter.Config{
	Name:             "bigquery",
	Quote:            "`",
	Style:            emitter.NameDatasetQualified,
	InlinePrimaryKey: true,
	PrimaryKeySuffix: " NOT ENFORCED",
	NotNull:          true,
})
