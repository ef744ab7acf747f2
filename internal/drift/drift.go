// Package drift compares a resolved projection against the schema actually
// observed on a platform: objects, columns, physical types, nullability and
// naming conformance. Parity additionally compares row counts and checksums
// between two observations of the same structures, e.g. the slots of a
// switch group. Comparison never mutates the observed system.
package drift

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ozmeta-labs/ozmeta/internal/naming"
	"github.com/ozmeta-labs/ozmeta/internal/projection"
)

// Severity ranks a finding.
type Severity string

const (
	// SeverityError marks drift that breaks the compiled contract.
	SeverityError Severity = "error"
	// SeverityWarning marks additions the projection does not know about.
	SeverityWarning Severity = "warning"
)

// Kind classifies what drifted.
type Kind string

const (
	KindMissingObject Kind = "missing-object"
	KindExtraObject   Kind = "extra-object"
	KindMissingColumn Kind = "missing-column"
	KindExtraColumn   Kind = "extra-column"
	KindTypeMismatch  Kind = "type-mismatch"
	KindNullability   Kind = "nullability-mismatch"
	KindNaming        Kind = "naming-violation"
	KindRowCount      Kind = "row-count-mismatch"
	KindChecksum      Kind = "checksum-mismatch"
)

// ObservedColumn is one column as introspected from a live platform.
type ObservedColumn struct {
	Name     string
	Type     string
	Nullable bool
}

// ObservedObject is one table as introspected from a live platform.
// RowCount and Checksum are optional quality signals; they only take part
// in parity comparisons when supplied.
type ObservedObject struct {
	Schema   string
	Name     string
	Columns  []ObservedColumn
	RowCount *int64
	Checksum string
}

// Observation is a platform schema snapshot taken by an export provider.
type Observation struct {
	Objects []ObservedObject
}

// Finding is one drift discrepancy. Findings on objects the projection knows
// carry the canonical IDs resolved through the reverse index, so remediation
// tooling can point back at the model instead of at physical names.
type Finding struct {
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`
	Object   string   `json:"object"`
	Column   string   `json:"column,omitempty"`
	Expected string   `json:"expected,omitempty"`
	Observed string   `json:"observed,omitempty"`
	TableID  string   `json:"tableId,omitempty"`
	FieldID  string   `json:"fieldId,omitempty"`
}

// Report is the outcome of one drift comparison.
type Report struct {
	Target   string    `json:"target"`
	Platform string    `json:"platform"`
	Findings []Finding `json:"findings"`
}

// Clean reports whether no drift at error severity was found.
func (r *Report) Clean() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Compare checks an observation against the projection it should implement.
// Findings come out sorted by object then column so reports are stable.
func Compare(p *projection.Projection, obs *Observation) *Report {
	report := &Report{
		Target:   projection.CanonicalName(p.Target, p.Platform.Code),
		Platform: p.Platform.Code,
	}

	idx := projection.NewIndex(p)

	observed := make(map[string]*ObservedObject, len(obs.Objects))
	for i := range obs.Objects {
		o := &obs.Objects[i]
		observed[objectKey(o.Schema, o.Name)] = o
	}

	expected := make(map[string]struct{}, len(p.Objects))
	for i := range p.Objects {
		want := &p.Objects[i]
		key := objectKey(want.Schema, want.Name)
		expected[key] = struct{}{}

		tableID, _ := idx.TableID(want.ReverseKey)
		got, ok := observed[key]
		if !ok {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityError,
				Kind:     KindMissingObject,
				Object:   key,
				TableID:  tableID,
			})
			continue
		}
		compareColumns(report, idx, key, tableID, want, got)
	}

	for key := range observed {
		if _, ok := expected[key]; !ok {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityWarning,
				Kind:     KindExtraObject,
				Object:   key,
			})
		}
	}

	checkNaming(report, p, obs)

	sortFindings(report.Findings)
	return report
}

// checkNaming flags observed names that do not conform to the platform's
// constraint profile. Names the normalizer would rewrite were not produced
// by this compiler.
func checkNaming(report *Report, p *projection.Projection, obs *Observation) {
	norm, err := naming.NewNormalizer(p.Platform.Constraint)
	if err != nil {
		return
	}
	for _, o := range obs.Objects {
		key := objectKey(o.Schema, o.Name)
		if got := norm.Normalize(o.Name); got != o.Name {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityWarning,
				Kind:     KindNaming,
				Object:   key,
				Expected: got,
				Observed: o.Name,
			})
		}
		for _, c := range o.Columns {
			if got := norm.Normalize(c.Name); got != c.Name {
				report.Findings = append(report.Findings, Finding{
					Severity: SeverityWarning,
					Kind:     KindNaming,
					Object:   key,
					Column:   c.Name,
					Expected: got,
					Observed: c.Name,
				})
			}
		}
	}
}

// Parity compares two observations of the same structures, typically the
// active and candidate slots of a switch group before promotion. Row counts
// and checksums are compared only where both sides supply them; structural
// comparison stays with Compare.
func Parity(group string, active, candidate *Observation) *Report {
	report := &Report{Target: group}

	byKey := make(map[string]*ObservedObject, len(candidate.Objects))
	for i := range candidate.Objects {
		o := &candidate.Objects[i]
		byKey[objectKey(o.Schema, o.Name)] = o
	}

	for i := range active.Objects {
		a := &active.Objects[i]
		key := objectKey(a.Schema, a.Name)
		c, ok := byKey[key]
		if !ok {
			continue
		}
		if a.RowCount != nil && c.RowCount != nil && *a.RowCount != *c.RowCount {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityError,
				Kind:     KindRowCount,
				Object:   key,
				Expected: fmt.Sprintf("%d", *a.RowCount),
				Observed: fmt.Sprintf("%d", *c.RowCount),
			})
		}
		if a.Checksum != "" && c.Checksum != "" && a.Checksum != c.Checksum {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityError,
				Kind:     KindChecksum,
				Object:   key,
				Expected: a.Checksum,
				Observed: c.Checksum,
			})
		}
	}

	sortFindings(report.Findings)
	return report
}

func sortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Object != b.Object {
			return a.Object < b.Object
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Kind < b.Kind
	})
}

func compareColumns(report *Report, idx *projection.Index, key, tableID string, want *projection.PhysicalObject, got *ObservedObject) {
	cols := make(map[string]ObservedColumn, len(got.Columns))
	for _, c := range got.Columns {
		cols[strings.ToLower(c.Name)] = c
	}

	wanted := make(map[string]struct{}, len(want.Fields))
	for _, f := range want.Fields {
		wanted[strings.ToLower(f.Name)] = struct{}{}
		fieldID, _ := idx.FieldID(want.ReverseKey, f.Name)

		col, ok := cols[strings.ToLower(f.Name)]
		if !ok {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityError,
				Kind:     KindMissingColumn,
				Object:   key,
				Column:   f.Name,
				TableID:  tableID,
				FieldID:  fieldID,
			})
			continue
		}
		if !typesMatch(f.PhysicalType, col.Type) {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityError,
				Kind:     KindTypeMismatch,
				Object:   key,
				Column:   f.Name,
				Expected: f.PhysicalType,
				Observed: col.Type,
				TableID:  tableID,
				FieldID:  fieldID,
			})
		}
		if f.Nullable != col.Nullable {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityError,
				Kind:     KindNullability,
				Object:   key,
				Column:   f.Name,
				Expected: nullability(f.Nullable),
				Observed: nullability(col.Nullable),
				TableID:  tableID,
				FieldID:  fieldID,
			})
		}
	}

	for _, c := range got.Columns {
		if _, ok := wanted[strings.ToLower(c.Name)]; !ok {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityWarning,
				Kind:     KindExtraColumn,
				Object:   key,
				Column:   c.Name,
			})
		}
	}
}

func objectKey(schema, name string) string {
	return fmt.Sprintf("%s.%s", schema, name)
}

// typesMatch compares physical types ignoring case and whitespace. Platforms
// report canonical spellings ("character varying") that differ from emitted
// aliases, so a small alias table folds the common ones.
func typesMatch(expected, observed string) bool {
	return canonicalType(expected) == canonicalType(observed)
}

var typeAliases = map[string]string{
	"character varying":           "varchar",
	"timestamp with time zone":    "timestamptz",
	"timestamp without time zone": "timestamp",
	"int":                         "integer",
	"int4":                        "integer",
	"int8":                        "bigint",
	"bool":                        "boolean",
	"float8":                      "double precision",
}

func canonicalType(t string) string {
	s := strings.ToLower(strings.TrimSpace(t))
	base, args, hasArgs := strings.Cut(s, "(")
	base = strings.TrimSpace(base)
	if alias, ok := typeAliases[base]; ok {
		base = alias
	}
	if !hasArgs {
		return base
	}
	args = strings.ReplaceAll(args, " ", "")
	return base + "(" + args
}

func nullability(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}
