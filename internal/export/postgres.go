package export

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ozmeta-labs/ozmeta/internal/drift"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
)

func init() {
	Register(&postgresProvider{})
}

// DriverName is the database/sql driver the postgres provider expects.
// Callers open connections through pgx's stdlib adapter.
const DriverName = "pgx"

const columnsQuery = `
SELECT c.table_schema, c.table_name, c.column_name, c.data_type, c.is_nullable
FROM information_schema.columns c
JOIN information_schema.tables t
  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE t.table_type = 'BASE TABLE'
  AND c.table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY c.table_schema, c.table_name, c.column_name`

type postgresProvider struct{}

func (p *postgresProvider) Name() string { return "postgres" }

// Export introspects all user tables and builds a snapshot document. IDs are
// name-derived UUIDs, so repeated exports of an unchanged source agree.
// Table codes are the first two letters of the table name; a source whose
// names cannot yield unique codes violates the snapshot contract.
func (p *postgresProvider) Export(ctx context.Context, db *sql.DB, projectID string) (*snapshot.Document, error) {
	observed, err := introspect(ctx, db)
	if err != nil {
		return nil, err
	}

	ns, err := uuid.Parse(projectID)
	if err != nil {
		return nil, &ContractError{Violations: []string{fmt.Sprintf("project id %q is not a UUID", projectID)}}
	}

	doc := &snapshot.Document{
		Meta: snapshot.Meta{
			Version:       snapshot.SupportedVersion,
			ProjectID:     projectID,
			ExportedAtUTC: time.Now().UTC().Format(time.RFC3339),
		},
	}

	codes := make(map[string]string)
	var violations []string
	for _, obj := range observed.Objects {
		code := deriveCode(obj.Name)
		if owner, taken := codes[code]; taken {
			violations = append(violations, fmt.Sprintf("tables %q and %q both derive code %s", owner, obj.Name, code))
			continue
		}
		codes[code] = obj.Name

		table := snapshot.Table{
			ID:     uuid.NewSHA1(ns, []byte("table:"+obj.Schema+"."+obj.Name)).String(),
			Schema: obj.Schema,
			Name:   obj.Name,
			Code:   code,
		}
		for _, col := range obj.Columns {
			table.Fields = append(table.Fields, snapshot.Field{
				ID:       uuid.NewSHA1(ns, []byte("field:"+obj.Schema+"."+obj.Name+"."+col.Name)).String(),
				Code:     col.Name,
				Name:     col.Name,
				Type:     logicalType(col.Type),
				Nullable: col.Nullable,
			})
		}
		doc.Objects.Model.Tables = append(doc.Objects.Model.Tables, table)
	}
	if len(violations) > 0 {
		sort.Strings(violations)
		return nil, &ContractError{Violations: violations}
	}
	return doc, nil
}

// Observe introspects user tables into a drift observation.
func (p *postgresProvider) Observe(ctx context.Context, db *sql.DB) (*drift.Observation, error) {
	return introspect(ctx, db)
}

func introspect(ctx context.Context, db *sql.DB) (*drift.Observation, error) {
	rows, err := db.QueryContext(ctx, columnsQuery)
	if err != nil {
		return nil, fmt.Errorf("introspecting columns: %w", err)
	}
	defer rows.Close()

	obs := &drift.Observation{}
	var current *drift.ObservedObject
	for rows.Next() {
		var schema, table, column, dataType, nullable string
		if err := rows.Scan(&schema, &table, &column, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		if current == nil || current.Schema != schema || current.Name != table {
			obs.Objects = append(obs.Objects, drift.ObservedObject{Schema: schema, Name: table})
			current = &obs.Objects[len(obs.Objects)-1]
		}
		current.Columns = append(current.Columns, drift.ObservedColumn{
			Name:     column,
			Type:     dataType,
			Nullable: strings.EqualFold(nullable, "YES"),
		})
	}
	return obs, rows.Err()
}

// deriveCode takes the first two letters of the table name, uppercased.
// Non-letters are skipped; names with fewer than two letters pad with X.
func deriveCode(name string) string {
	var letters []rune
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			letters = append(letters, r-'a'+'A')
		} else if r >= 'A' && r <= 'Z' {
			letters = append(letters, r)
		}
		if len(letters) == 2 {
			break
		}
	}
	for len(letters) < 2 {
		letters = append(letters, 'X')
	}
	return string(letters)
}

// logicalType folds a postgres data type back into the canonical vocabulary.
// Unknown types pass through for manual curation.
var reverseTypes = map[string]string{
	"uuid":                        "uuid",
	"timestamp with time zone":    "datetime",
	"timestamp without time zone": "datetime",
	"date":                        "date",
	"integer":                     "int",
	"bigint":                      "bigint",
	"numeric":                     "decimal",
	"double precision":            "float",
	"boolean":                     "boolean",
	"character varying":           "nvarchar",
	"text":                        "text",
}

func logicalType(dataType string) string {
	if t, ok := reverseTypes[strings.ToLower(dataType)]; ok {
		return t
	}
	return strings.ToLower(dataType)
}
