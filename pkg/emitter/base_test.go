package emitter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozmeta-labs/ozmeta/internal/metrics"
	"github.com/ozmeta-labs/ozmeta/internal/platform"
	"github.com/ozmeta-labs/ozmeta/internal/projection"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
	"github.com/ozmeta-labs/ozmeta/pkg/emitter"
	"github.com/ozmeta-labs/ozmeta/pkg/emitters/bigquery"
	"github.com/ozmeta-labs/ozmeta/pkg/emitters/postgres"
	"github.com/ozmeta-labs/ozmeta/pkg/emitters/spark"
)

func testProjection(declarative bool) *projection.Projection {
	plat, _ := platform.Builtin().Get("postgres")
	return &projection.Projection{
		Target:         snapshot.Target{ID: "tg-1", Client: "acme", Env: "Dev", Domain: "sales", Region: "eu"},
		TargetPlatform: snapshot.TargetPlatform{ID: "tp-1", TargetID: "tg-1", PlatformCode: "postgres"},
		Platform:       plat,
		Objects: []projection.PhysicalObject{
			{
				TableID: "t-cus", TableCode: "CU", CanonicalName: "Customer",
				Container: "acme_dev_sales", Schema: "sales", Name: "customer",
				Fields: []projection.PhysicalField{
					{FieldID: "f-1", CanonicalCode: "CustomerID", Name: "customerid", PhysicalType: "uuid", PrimaryKey: true},
					{FieldID: "f-2", CanonicalCode: "DisplayName", Name: "displayname", PhysicalType: "varchar", Nullable: true},
				},
			},
			{
				TableID: "t-ord", TableCode: "OR", CanonicalName: "Order",
				Container: "acme_dev_sales", Schema: "sales", Name: "order",
				Fields: []projection.PhysicalField{
					{FieldID: "f-3", CanonicalCode: "OrderID", Name: "orderid", PhysicalType: "uuid", PrimaryKey: true},
					{FieldID: "f-4", CanonicalCode: "CustomerID", Name: "customerid", PhysicalType: "uuid"},
				},
			},
		},
		Relations: []projection.RelationPlan{
			{
				RelationID: "r-1", Code: "ORCU", ConstraintName: "fk_or_cu",
				FromSchema: "sales", FromObject: "order", FromField: "customerid",
				ToSchema: "sales", ToObject: "customer", ToField: "customerid",
				Declarative: declarative,
			},
		},
		Metrics: []*metrics.Compiled{
			{Code: "TotalRevenue", Formula: "SUM(Order.Total)", Target: "tsql", Expression: "SUM([Order].[Total])"},
		},
	}
}

func artifactByPath(t *testing.T, res *emitter.Result, p string) string {
	t.Helper()
	for _, a := range res.Artifacts {
		if a.Path == p {
			return string(a.Content)
		}
	}
	t.Fatalf("no artifact at %s", p)
	return ""
}

func TestPostgresEmit(t *testing.T) {
	res, err := postgres.Postgres.Emit(testProjection(true))
	require.NoError(t, err)
	assert.Equal(t, "postgres", res.PlatformCode)

	schema := artifactByPath(t, res, "sql/00_schemas.sql")
	assert.Equal(t, "CREATE SCHEMA IF NOT EXISTS \"sales\";\n", schema)

	table := artifactByPath(t, res, "sql/order.sql")
	assert.Contains(t, table, `CREATE TABLE IF NOT EXISTS "sales"."order" (`)
	assert.Contains(t, table, `"orderid" uuid NOT NULL`)
	assert.Contains(t, table, `PRIMARY KEY ("orderid")`)

	fk := artifactByPath(t, res, "sql/99_foreign_keys.sql")
	assert.Contains(t, fk, `ALTER TABLE "sales"."order" ADD CONSTRAINT "fk_or_cu" FOREIGN KEY ("customerid") REFERENCES "sales"."customer" ("customerid");`)

	metric := artifactByPath(t, res, "metrics/TotalRevenue.sql")
	assert.Contains(t, metric, "SUM([Order].[Total])")
}

func TestBigQueryEmit(t *testing.T) {
	res, err := bigquery.BigQuery.Emit(testProjection(false))
	require.NoError(t, err)

	schema := artifactByPath(t, res, "sql/00_schemas.sql")
	assert.Equal(t, "CREATE SCHEMA IF NOT EXISTS `acme_dev_sales_sales`;\n", schema)

	table := artifactByPath(t, res, "sql/order.sql")
	assert.Contains(t, table, "CREATE TABLE IF NOT EXISTS `acme_dev_sales_sales`.`order`")
	assert.Contains(t, table, "PRIMARY KEY (`orderid`) NOT ENFORCED")

	// Non-declarative relations become rules, never FK DDL.
	for _, a := range res.Artifacts {
		assert.NotEqual(t, "sql/99_foreign_keys.sql", a.Path)
	}
	rules := artifactByPath(t, res, "rules/relations.json")
	assert.Contains(t, rules, `"code": "ORCU"`)
}

func TestSparkEmit(t *testing.T) {
	res, err := spark.Spark.Emit(testProjection(false))
	require.NoError(t, err)

	table := artifactByPath(t, res, "sql/order.sql")
	assert.Contains(t, table, "CREATE TABLE IF NOT EXISTS `acme_dev_sales`.`sales`.`order`")
	assert.Contains(t, table, ")\nUSING DELTA;")
	assert.NotContains(t, table, "PRIMARY KEY")
}

func TestEmitIsDeterministic(t *testing.T) {
	first, err := postgres.Postgres.Emit(testProjection(true))
	require.NoError(t, err)
	second, err := postgres.Postgres.Emit(testProjection(true))
	require.NoError(t, err)
	require.Equal(t, len(first.Artifacts), len(second.Artifacts))
	for i := range first.Artifacts {
		assert.Equal(t, first.Artifacts[i].Path, second.Artifacts[i].Path)
		assert.Equal(t, string(first.Artifacts[i].Content), string(second.Artifacts[i].Content))
	}
}

func TestEmptyTableFails(t *testing.T) {
	p := testProjection(true)
	p.Objects[0].Fields = nil
	_, err := postgres.Postgres.Emit(p)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no fields"))
}

func TestRegistryListsAll(t *testing.T) {
	names := emitter.List()
	for _, want := range []string{"bigquery", "postgres", "spark"} {
		assert.Contains(t, names, want)
	}
	e, ok := emitter.Get("POSTGRES")
	require.True(t, ok, "lookup is case-insensitive")
	assert.Equal(t, "postgres", e.Name())
}
