package drift

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozmeta-labs/ozmeta/internal/platform"
	"github.com/ozmeta-labs/ozmeta/internal/projection"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
)

func testProjection() *projection.Projection {
	plat, _ := platform.Builtin().Get("postgres")
	return &projection.Projection{
		Target:   snapshot.Target{Client: "acme", Env: "Dev", Domain: "sales", Region: "eu"},
		Platform: plat,
		Objects: []projection.PhysicalObject{
			{
				TableID: "t-cus", TableCode: "CU", Schema: "sales", Name: "customer",
				ReverseKey: projection.ReverseKey{
					TargetPlatformID: "tp-1", Container: "acme_dev_sales",
					Schema: "sales", Name: "customer",
				},
				Fields: []projection.PhysicalField{
					{FieldID: "f-cid", CanonicalCode: "CustomerID", Name: "customerid", PhysicalType: "uuid"},
					{FieldID: "f-dn", CanonicalCode: "DisplayName", Name: "displayname", PhysicalType: "varchar", Nullable: true},
				},
			},
		},
	}
}

func matchingObservation() *Observation {
	return &Observation{
		Objects: []ObservedObject{
			{
				Schema: "sales", Name: "customer",
				Columns: []ObservedColumn{
					{Name: "customerid", Type: "uuid"},
					{Name: "displayname", Type: "character varying", Nullable: true},
				},
			},
		},
	}
}

func TestCompareClean(t *testing.T) {
	report := Compare(testProjection(), matchingObservation())
	assert.True(t, report.Clean())
	assert.Empty(t, report.Findings)
	assert.Equal(t, "acme-Dev-postgres-sales-eu", report.Target)
}

func TestCompareMissingObject(t *testing.T) {
	report := Compare(testProjection(), &Observation{})
	require.Len(t, report.Findings, 1)
	assert.Equal(t, KindMissingObject, report.Findings[0].Kind)
	assert.Equal(t, "sales.customer", report.Findings[0].Object)
	assert.False(t, report.Clean())
}

func TestCompareColumnDrift(t *testing.T) {
	obs := matchingObservation()
	obs.Objects[0].Columns = []ObservedColumn{
		{Name: "customerid", Type: "text"},             // type drifted
		{Name: "displayname", Type: "character varying"}, // nullability drifted
		{Name: "legacy_flag", Type: "boolean"},         // extra
	}

	report := Compare(testProjection(), obs)
	require.Len(t, report.Findings, 3)

	assert.Equal(t, KindTypeMismatch, report.Findings[0].Kind)
	assert.Equal(t, "customerid", report.Findings[0].Column)
	assert.Equal(t, "uuid", report.Findings[0].Expected)

	assert.Equal(t, KindNullability, report.Findings[1].Kind)
	assert.Equal(t, "NULL", report.Findings[1].Expected)

	assert.Equal(t, KindExtraColumn, report.Findings[2].Kind)
	assert.Equal(t, SeverityWarning, report.Findings[2].Severity)
	// Extras alone do not fail the check.
	assert.False(t, report.Clean())
}

func TestExtraObjectIsWarning(t *testing.T) {
	obs := matchingObservation()
	obs.Objects = append(obs.Objects, ObservedObject{Schema: "sales", Name: "scratch"})

	report := Compare(testProjection(), obs)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, KindExtraObject, report.Findings[0].Kind)
	assert.True(t, report.Clean())
}

func TestTypeAliasesFold(t *testing.T) {
	assert.True(t, typesMatch("varchar", "character varying"))
	assert.True(t, typesMatch("timestamptz", "timestamp with time zone"))
	assert.True(t, typesMatch("numeric(18,2)", "NUMERIC(18, 2)"))
	assert.False(t, typesMatch("uuid", "text"))
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	report := Compare(testProjection(), &Observation{})
	require.NoError(t, Render(&buf, report, "json"))
	assert.Contains(t, buf.String(), `"missing-object"`)
}

func TestRenderTableNoDrift(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Compare(testProjection(), matchingObservation()), "table"))
	assert.Contains(t, buf.String(), "no drift")
}

func TestCompareFlagsNonConformingNames(t *testing.T) {
	obs := matchingObservation()
	obs.Objects = append(obs.Objects, ObservedObject{
		Schema: "sales", Name: "Legacy-Orders",
		Columns: []ObservedColumn{{Name: "OrderID", Type: "uuid"}},
	})

	report := Compare(testProjection(), obs)

	var kinds []Kind
	for _, f := range report.Findings {
		kinds = append(kinds, f.Kind)
	}
	assert.Contains(t, kinds, KindExtraObject)
	assert.Contains(t, kinds, KindNaming)
	// Naming findings are advisory; the contract itself still holds.
	assert.True(t, report.Clean())
}

func TestCompareFindingsCarryCanonicalIDs(t *testing.T) {
	obs := matchingObservation()
	obs.Objects[0].Columns[0].Type = "text"

	report := Compare(testProjection(), obs)
	require.Len(t, report.Findings, 1)
	// The reverse index resolves the physical coordinates back to the model.
	assert.Equal(t, "t-cus", report.Findings[0].TableID)
	assert.Equal(t, "f-cid", report.Findings[0].FieldID)

	report = Compare(testProjection(), &Observation{})
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "t-cus", report.Findings[0].TableID)
	assert.Empty(t, report.Findings[0].FieldID)
}

func TestParityFlagsDivergingSlots(t *testing.T) {
	count := func(n int64) *int64 { return &n }
	active := &Observation{Objects: []ObservedObject{
		{Schema: "sales", Name: "customer", RowCount: count(1200), Checksum: "aaa"},
		{Schema: "sales", Name: "order", RowCount: count(90)},
	}}
	candidate := &Observation{Objects: []ObservedObject{
		{Schema: "sales", Name: "customer", RowCount: count(1187), Checksum: "bbb"},
		{Schema: "sales", Name: "order", RowCount: count(90)},
	}}

	report := Parity("SFO-BI", active, candidate)
	require.Len(t, report.Findings, 2)
	assert.Equal(t, "SFO-BI", report.Target)
	assert.Equal(t, KindChecksum, report.Findings[0].Kind)
	assert.Equal(t, KindRowCount, report.Findings[1].Kind)
	assert.Equal(t, "1200", report.Findings[1].Expected)
	assert.Equal(t, "1187", report.Findings[1].Observed)
	assert.False(t, report.Clean())
}

func TestParityIgnoresUnsuppliedSignals(t *testing.T) {
	active := &Observation{Objects: []ObservedObject{
		{Schema: "sales", Name: "customer"},
	}}
	candidate := &Observation{Objects: []ObservedObject{
		{Schema: "sales", Name: "customer", Checksum: "bbb"},
	}}

	report := Parity("SFO-BI", active, candidate)
	assert.Empty(t, report.Findings)
	assert.True(t, report.Clean())
}
