package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozmeta-labs/ozmeta/internal/naming"
	"github.com/ozmeta-labs/ozmeta/internal/platform"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
)

func testDoc() *snapshot.Document {
	return &snapshot.Document{
		Meta: snapshot.Meta{Version: "1.0", ProjectID: "5f3a1c2e-0000-4000-8000-000000000001"},
		Objects: snapshot.Objects{
			Model: snapshot.Model{
				Tables: []snapshot.Table{
					{
						ID: "t-ord", Schema: "Sales", Name: "Order", Code: "OR",
						Domain: "sales", RequiresTenant: true,
						Fields: []snapshot.Field{
							{ID: "f-1", Code: "OrderID", Type: "uuid", PrimaryKey: true},
							{ID: "f-2", Code: "CustomerID", Type: "uuid", Ref: "CU"},
							{ID: "f-3", Code: "Total", Type: "decimal", Nullable: true},
						},
					},
					{
						ID: "t-cus", Schema: "Sales", Name: "Customer", Code: "CU",
						Domain: "sales", RequiresTenant: true,
						Fields: []snapshot.Field{
							{ID: "f-4", Code: "CustomerID", Type: "uuid", PrimaryKey: true},
							{ID: "f-5", Code: "DisplayName", Type: "nvarchar"},
						},
					},
				},
				Relations: []snapshot.Relation{
					{ID: "r-1", Code: "ORCU", FromTable: "OR", FromField: "CustomerID", ToTable: "CU", ToField: "CustomerID"},
				},
			},
			Platforms: snapshot.Platforms{
				Platforms: []snapshot.PlatformRef{
					{Code: "postgres", Category: "relational", Enabled: true},
					{Code: "bigquery", Category: "warehouse", Enabled: true},
				},
				Targets: []snapshot.Target{
					{ID: "tg-1", Client: "acme", Env: "Dev", Domain: "sales", Region: "eu"},
				},
				TargetPlatforms: []snapshot.TargetPlatform{
					{ID: "tp-1", TargetID: "tg-1", PlatformCode: "postgres", Role: "Primary"},
					{ID: "tp-2", TargetID: "tg-1", PlatformCode: "bigquery", Role: "Secondary"},
				},
			},
			Metrics: snapshot.Metrics{
				Metrics: []snapshot.Metric{
					{ID: "m-1", Code: "TotalRevenue", Formula: "SUM(Order.Total)"},
				},
			},
			Jobs: snapshot.Jobs{
				Jobs: []snapshot.Job{
					{
						ID: "j-1", Code: "daily_load", Schedule: "0 2 * * *",
						Steps: []snapshot.JobStep{
							{Code: "extract", Action: "sql"},
							{Code: "load", Action: "sql", DependsOn: []string{"extract"}},
						},
						Targets: []snapshot.JobTarget{
							{PlatformCode: "postgres", Scheduler: "cron"},
						},
					},
				},
			},
		},
	}
}

func TestResolverProjectsPostgres(t *testing.T) {
	r, err := NewResolver(testDoc(), platform.Builtin())
	require.NoError(t, err)

	tps := r.TargetPlatforms()
	require.Len(t, tps, 2)
	assert.Equal(t, "tp-1", tps[0].ID)

	proj, err := r.Resolve(tps[0])
	require.NoError(t, err)

	require.Len(t, proj.Objects, 2)
	// Sorted by table code: CU before OR.
	cust, ord := proj.Objects[0], proj.Objects[1]
	assert.Equal(t, "CU", cust.TableCode)
	assert.Equal(t, "OR", ord.TableCode)
	assert.Equal(t, "sales", ord.Schema)
	assert.Equal(t, "order", ord.Name)
	assert.True(t, ord.RequiresTenant)
	assert.Equal(t, "tp-1", ord.ReverseKey.TargetPlatformID)

	// Fields sorted by canonical code, types resolved through the profile.
	require.Len(t, ord.Fields, 3)
	assert.Equal(t, "CustomerID", ord.Fields[0].CanonicalCode)
	assert.Equal(t, "uuid", ord.Fields[0].PhysicalType)
	assert.Equal(t, "numeric(18,2)", ord.Fields[2].PhysicalType)

	require.Len(t, proj.Relations, 1)
	assert.True(t, proj.Relations[0].Declarative, "relational platforms take declarative FKs")
	assert.Equal(t, "order", proj.Relations[0].FromObject)
	assert.Equal(t, "customerid", proj.Relations[0].FromField)

	require.Len(t, proj.Metrics, 1)
	assert.Equal(t, "tsql", proj.Metrics[0].Target)

	require.Len(t, proj.Jobs, 1)
	assert.Equal(t, "cron", proj.Jobs[0].Scheduler)
}

func TestResolverLogicalRelationsOnWarehouse(t *testing.T) {
	r, err := NewResolver(testDoc(), platform.Builtin())
	require.NoError(t, err)

	proj, err := r.Resolve(r.TargetPlatforms()[1])
	require.NoError(t, err)

	require.Len(t, proj.Relations, 1)
	assert.False(t, proj.Relations[0].Declarative)
	// No job binds bigquery, so nothing compiles for it.
	assert.Empty(t, proj.Jobs)
}

func TestResolverUnmappedTypeFails(t *testing.T) {
	doc := testDoc()
	doc.Objects.Model.Tables[0].Fields[2].Type = "money"

	r, err := NewResolver(doc, platform.Builtin())
	require.NoError(t, err)

	// Builtin bigquery carries no mapping for money.
	_, err = r.Resolve(r.TargetPlatforms()[1])
	require.Error(t, err)
	var unmapped *platform.UnmappedTypeError
	require.ErrorAs(t, err, &unmapped)
	assert.Equal(t, "money", unmapped.LogicalType)
}

func TestIndexRoundTripsPhysicalToCanonical(t *testing.T) {
	doc := testDoc()
	r, err := NewResolver(doc, platform.Builtin())
	require.NoError(t, err)

	proj, err := r.Resolve(r.TargetPlatforms()[0])
	require.NoError(t, err)
	idx := NewIndex(proj)

	norm, err := naming.NewNormalizer(proj.Platform.Constraint)
	require.NoError(t, err)

	tablesByID := make(map[string]snapshot.Table)
	fieldsByID := make(map[string]snapshot.Field)
	for _, tbl := range doc.Objects.Model.Tables {
		tablesByID[tbl.ID] = tbl
		for _, f := range tbl.Fields {
			fieldsByID[f.ID] = f
		}
	}

	// Every physical coordinate resolves to its canonical identity, and
	// re-normalizing that identity lands back on the same physical name.
	for _, obj := range proj.Objects {
		tableID, ok := idx.TableID(obj.ReverseKey)
		require.True(t, ok, obj.ReverseKey.String())
		tbl, ok := tablesByID[tableID]
		require.True(t, ok)
		assert.Equal(t, obj.Name, norm.Normalize(tbl.Name))

		for _, pf := range obj.Fields {
			fieldID, ok := idx.FieldID(obj.ReverseKey, pf.Name)
			require.True(t, ok, pf.Name)
			f, ok := fieldsByID[fieldID]
			require.True(t, ok)
			assert.Equal(t, pf.Name, norm.Normalize(f.Code))
		}
	}
}

func TestIndexMissResolvesToNothing(t *testing.T) {
	r, err := NewResolver(testDoc(), platform.Builtin())
	require.NoError(t, err)
	proj, err := r.Resolve(r.TargetPlatforms()[0])
	require.NoError(t, err)
	idx := NewIndex(proj)

	unknown := ReverseKey{TargetPlatformID: "tp-1", Schema: "sales", Name: "scratch"}
	_, ok := idx.TableID(unknown)
	assert.False(t, ok)
	_, ok = idx.FieldID(unknown, "customerid")
	assert.False(t, ok)
	_, ok = idx.FieldID(proj.Objects[0].ReverseKey, "no_such_column")
	assert.False(t, ok)
}

func TestResolverDeterministicAcrossRuns(t *testing.T) {
	first, err := NewResolver(testDoc(), platform.Builtin())
	require.NoError(t, err)
	second, err := NewResolver(testDoc(), platform.Builtin())
	require.NoError(t, err)

	p1, err := first.Resolve(first.TargetPlatforms()[0])
	require.NoError(t, err)
	p2, err := second.Resolve(second.TargetPlatforms()[0])
	require.NoError(t, err)

	assert.Equal(t, p1.Objects, p2.Objects)
	assert.Equal(t, p1.Relations, p2.Relations)
}
