// Package main provides the ozmeta CLI entry point.
package main

import (
	"os"

	"github.com/ozmeta-labs/ozmeta/internal/cli"

	// Database driver for the export provider.
	_ "github.com/jackc/pgx/v5/stdlib"

	// Platform emitters register themselves on import.
	_ "github.com/ozmeta-labs/ozmeta/pkg/emitters/bigquery"
	_ "github.com/ozmeta-labs/ozmeta/pkg/emitters/postgres"
	_ "github.com/ozmeta-labs/ozmeta/pkg/emitters/redshift"
	_ "github.com/ozmeta-labs/ozmeta/pkg/emitters/snowflake"
	_ "github.com/ozmeta-labs/ozmeta/pkg/emitters/spark"
)

func main() {
	os.Exit(cli.ExitCode(cli.Execute()))
}
