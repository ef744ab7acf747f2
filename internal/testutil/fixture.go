package testutil

import (
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
)

// internalFields returns the mandatory internal field set, tenant-scoped or
// not, with ids derived from the given prefix.
func internalFields(prefix string, tenant bool) []snapshot.Field {
	fields := []snapshot.Field{
		{ID: prefix + "-0000-4000-8000-0000000000a1", Code: "_CreateDate", Name: "_CreateDate", Type: "datetime"},
		{ID: prefix + "-0000-4000-8000-0000000000a2", Code: "_SourceSystem", Name: "_SourceSystem", Type: "nvarchar"},
		{ID: prefix + "-0000-4000-8000-0000000000a3", Code: "_SourceKey", Name: "_SourceKey", Type: "nvarchar"},
		{ID: prefix + "-0000-4000-8000-0000000000a4", Code: "_SyncDate", Name: "_SyncDate", Type: "datetime"},
		{ID: prefix + "-0000-4000-8000-0000000000a5", Code: "_DeleteDate", Name: "_DeleteDate", Type: "datetime", Nullable: true},
	}
	if tenant {
		fields = append(fields, snapshot.Field{
			ID: prefix + "-0000-4000-8000-0000000000a6", Code: "_TenantID", Name: "_TenantID", Type: "uuid",
		})
	}
	return fields
}

// ValidSnapshot returns a snapshot document that passes validation: two
// related tables, two targets (one dev, one switched production pair), a
// metric, a job and lineage.
func ValidSnapshot() *snapshot.Document {
	customer := snapshot.Table{
		ID: "11111111-0000-4000-8000-000000000001", Schema: "Sales", Name: "Customer", Code: "CU",
		Domain: "sales", RequiresTenant: true,
		Fields: append([]snapshot.Field{
			{ID: "11111111-0000-4000-8000-000000000011", Code: "CustomerID", Name: "CustomerID", Type: "uuid", PrimaryKey: true},
			{ID: "11111111-0000-4000-8000-000000000012", Code: "DisplayName", Name: "DisplayName", Type: "nvarchar", Nullable: true},
		}, internalFields("11111111", true)...),
	}
	order := snapshot.Table{
		ID: "22222222-0000-4000-8000-000000000001", Schema: "Sales", Name: "Order", Code: "OR",
		Domain: "sales", RequiresTenant: true,
		Fields: append([]snapshot.Field{
			{ID: "22222222-0000-4000-8000-000000000011", Code: "OrderID", Name: "OrderID", Type: "uuid", PrimaryKey: true},
			{ID: "22222222-0000-4000-8000-000000000012", Code: "CustomerID", Name: "CustomerID", Type: "uuid", Ref: "CU"},
			{ID: "22222222-0000-4000-8000-000000000013", Code: "Total", Name: "Total", Type: "decimal", Nullable: true},
		}, internalFields("22222222", true)...),
	}

	return &snapshot.Document{
		Meta: snapshot.Meta{
			Version:       snapshot.SupportedVersion,
			ProjectID:     "5f3a1c2e-0000-4000-8000-000000000001",
			ExportedAtUTC: "2026-08-01T12:00:00Z",
		},
		Objects: snapshot.Objects{
			Model: snapshot.Model{
				Tables: []snapshot.Table{customer, order},
				Relations: []snapshot.Relation{
					{ID: "33333333-0000-4000-8000-000000000001", Code: "ORCU",
						FromTable: "OR", FromField: "CustomerID", ToTable: "CU", ToField: "CustomerID"},
				},
			},
			Platforms: snapshot.Platforms{
				Platforms: []snapshot.PlatformRef{
					{Code: "postgres", Cloud: "any", Category: "relational", Enabled: true},
					{Code: "bigquery", Cloud: "gcp", Category: "warehouse", Enabled: true},
				},
				Targets: []snapshot.Target{
					{ID: "tg-dev", Client: "acme", Env: "Dev", Domain: "sales", Region: "eu"},
					{ID: "tg-proda", Client: "acme", Env: "ProdA", Domain: "sales", Region: "eu", SwitchGroup: "SFO-BI", Active: true},
					{ID: "tg-prodb", Client: "acme", Env: "ProdB", Domain: "sales", Region: "eu", SwitchGroup: "SFO-BI"},
				},
				TargetPlatforms: []snapshot.TargetPlatform{
					{ID: "tp-dev-pg", TargetID: "tg-dev", PlatformCode: "postgres", Role: "Primary", FailoverOrder: 1},
					{ID: "tp-dev-bq", TargetID: "tg-dev", PlatformCode: "bigquery", Role: "Secondary", FailoverOrder: 2},
				},
			},
			Jobs: snapshot.Jobs{
				Jobs: []snapshot.Job{
					{
						ID: "44444444-0000-4000-8000-000000000001", Code: "daily_load", Schedule: "0 2 * * *",
						Steps: []snapshot.JobStep{
							{Code: "extract", Action: "sql", SQL: "SELECT 1"},
							{Code: "load", Action: "sql", SQL: "SELECT 2", DependsOn: []string{"extract"}},
						},
						Targets: []snapshot.JobTarget{
							{PlatformCode: "postgres", Scheduler: "cron"},
						},
					},
				},
			},
			Metrics: snapshot.Metrics{
				Metrics: []snapshot.Metric{
					{ID: "55555555-0000-4000-8000-000000000001", Code: "TotalRevenue", Formula: "SUM(Order.Total)"},
				},
			},
			Lineage: snapshot.Lineage{
				Edges: []snapshot.LineageEdge{
					{FromType: "SourceField", FromKey: "crm.orders.total", ToType: "CanonicalField", ToKey: "Order.Total", Transform: "CAST"},
					{FromType: "CanonicalField", FromKey: "Order.Total", ToType: "SemanticMeasure", ToKey: "TotalRevenue"},
				},
			},
		},
	}
}
