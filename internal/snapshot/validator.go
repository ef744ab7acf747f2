package snapshot

import (
	"fmt"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var validEnvs = map[string]bool{
	"Dev": true, "Test": true, "Stage": true, "ProdA": true, "ProdB": true,
}

var validRoles = map[string]bool{
	"Primary": true, "Secondary": true, "DR": true,
}

var validLineageNodeTypes = map[string]bool{
	"SourceField": true, "CanonicalField": true, "PhysicalField": true, "SemanticMeasure": true,
}

// Validate checks a parsed snapshot for structural and referential problems.
// All violations are collected; a non-nil return is always an *InvalidError
// carrying the full list. Compilation must not start on an invalid snapshot.
func Validate(doc *Document) error {
	v := &validator{doc: doc}

	v.checkMeta()
	v.checkTables()
	v.checkRelations()
	v.checkPlatforms()
	v.checkJobs()
	v.checkMetrics()
	v.checkLineage()
	v.checkMapping()

	if len(v.violations) > 0 {
		return &InvalidError{Violations: v.violations}
	}
	return nil
}

type validator struct {
	doc        *Document
	violations []Violation

	// built during checkTables, reused by later checks
	tablesByCode map[string]*Table
}

func (v *validator) add(area, path, format string, args ...any) {
	v.violations = append(v.violations, Violation{
		Area:    area,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) checkMeta() {
	m := v.doc.Meta
	if m.Version != SupportedVersion {
		v.add("meta", "version", "unsupported snapshot version %q (want %s)", m.Version, SupportedVersion)
	}
	if m.ProjectID == "" {
		v.add("meta", "projectId", "missing project id")
	} else if _, err := uuid.Parse(m.ProjectID); err != nil {
		v.add("meta", "projectId", "not a valid UUID: %q", m.ProjectID)
	}
	if m.ExportedAtUTC == "" {
		v.add("meta", "exportedAtUTC", "missing export timestamp")
	} else if _, err := time.Parse(time.RFC3339, m.ExportedAtUTC); err != nil {
		v.add("meta", "exportedAtUTC", "not an ISO-8601 UTC timestamp: %q", m.ExportedAtUTC)
	}
}

// isTableCode reports whether s is a valid 2-letter table code.
func isTableCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func (v *validator) checkTables() {
	v.tablesByCode = make(map[string]*Table, len(v.doc.Objects.Model.Tables))
	seenIDs := make(map[string]string)

	for i := range v.doc.Objects.Model.Tables {
		t := &v.doc.Objects.Model.Tables[i]
		path := fmt.Sprintf("tables[%s]", t.Code)

		if t.ID == "" {
			v.add("model", path, "missing table id")
		} else if _, err := uuid.Parse(t.ID); err != nil {
			v.add("model", path, "table id is not a valid UUID: %q", t.ID)
		} else if prev, dup := seenIDs[t.ID]; dup {
			v.add("model", path, "table id duplicates tables[%s]", prev)
		} else {
			seenIDs[t.ID] = t.Code
		}

		if !isTableCode(t.Code) {
			v.add("model", path, "table code must be exactly 2 uppercase letters, got %q", t.Code)
		} else if prev, dup := v.tablesByCode[t.Code]; dup {
			v.add("model", path, "table code %q already used by table %q", t.Code, prev.Name)
		} else {
			v.tablesByCode[t.Code] = t
		}

		if t.Name == "" {
			v.add("model", path, "missing table name")
		}

		v.checkFields(t, path)
	}
}

func (v *validator) checkFields(t *Table, tablePath string) {
	present := make(map[string]bool, len(t.Fields))
	pkCount := 0

	for i := range t.Fields {
		f := &t.Fields[i]
		path := fmt.Sprintf("%s.fields[%s]", tablePath, f.Code)

		if f.Code == "" {
			v.add("model", tablePath, "field %d has no code", i)
			continue
		}
		if present[f.Code] {
			v.add("model", path, "duplicate field code")
		}
		present[f.Code] = true

		if f.Type == "" {
			v.add("model", path, "missing logical type")
		}
		if f.PrimaryKey {
			pkCount++
			if f.Nullable {
				v.add("model", path, "primary key field cannot be nullable")
			}
		}
	}

	if len(t.Fields) > 0 && pkCount == 0 {
		v.add("model", tablePath, "table has no primary key field")
	}

	// Mandatory internal fields. _TenantID is conditional on tenant scoping.
	for _, name := range MandatoryInternalFields {
		if name == "_TenantID" && !t.RequiresTenant {
			continue
		}
		if !present[name] {
			v.add("model", tablePath, "missing mandatory internal field %s", name)
		}
	}
}

func (v *validator) checkRelations() {
	for _, r := range v.doc.Objects.Model.Relations {
		path := fmt.Sprintf("relations[%s]", r.Code)

		from, ok := v.tablesByCode[r.FromTable]
		if !ok {
			v.add("model", path, "fromTable %q does not resolve", r.FromTable)
		} else if !tableHasField(from, r.FromField) {
			v.add("model", path, "fromField %q not found on table %q", r.FromField, r.FromTable)
		}

		to, ok := v.tablesByCode[r.ToTable]
		if !ok {
			v.add("model", path, "toTable %q does not resolve", r.ToTable)
		} else if !tableHasField(to, r.ToField) {
			v.add("model", path, "toField %q not found on table %q", r.ToField, r.ToTable)
		}
	}

	// Field-level refs resolve against the code registry too.
	for _, t := range v.doc.Objects.Model.Tables {
		for _, f := range t.Fields {
			if f.Ref == "" {
				continue
			}
			if _, ok := v.tablesByCode[f.Ref]; !ok {
				v.add("model", fmt.Sprintf("tables[%s].fields[%s]", t.Code, f.Code),
					"ref %q does not resolve to a table code", f.Ref)
			}
		}
	}
}

func tableHasField(t *Table, code string) bool {
	for _, f := range t.Fields {
		if f.Code == code {
			return true
		}
	}
	return false
}

func (v *validator) checkPlatforms() {
	area := v.doc.Objects.Platforms

	platformCodes := make(map[string]bool, len(area.Platforms))
	for _, p := range area.Platforms {
		path := fmt.Sprintf("platforms[%s]", p.Code)
		if p.Code == "" {
			v.add("platforms", "platforms", "platform with empty code")
			continue
		}
		if platformCodes[p.Code] {
			v.add("platforms", path, "duplicate platform code")
		}
		platformCodes[p.Code] = true
		if p.Category == "" {
			v.add("platforms", path, "missing platform category")
		}
	}

	targetIDs := make(map[string]bool, len(area.Targets))
	activePerGroup := make(map[string]int)
	for _, t := range area.Targets {
		path := fmt.Sprintf("targets[%s]", t.ID)
		if t.ID == "" {
			v.add("platforms", "targets", "target with empty id")
			continue
		}
		targetIDs[t.ID] = true
		if !validEnvs[t.Env] {
			v.add("platforms", path, "unknown env %q", t.Env)
		}
		prodSlot := t.Env == "ProdA" || t.Env == "ProdB"
		if prodSlot && t.SwitchGroup == "" {
			v.add("platforms", path, "env %s requires a switchGroup", t.Env)
		}
		if !prodSlot && t.SwitchGroup != "" {
			v.add("platforms", path, "switchGroup only applies to ProdA/ProdB targets")
		}
		if t.Active && t.SwitchGroup != "" {
			activePerGroup[t.SwitchGroup]++
		}
	}
	for group, n := range activePerGroup {
		if n > 1 {
			v.add("platforms", fmt.Sprintf("switchGroup[%s]", group),
				"%d targets active, at most one allowed", n)
		}
	}

	primaryPerTarget := make(map[string]int)
	for _, tp := range area.TargetPlatforms {
		path := fmt.Sprintf("targetPlatforms[%s]", tp.ID)
		if !targetIDs[tp.TargetID] {
			v.add("platforms", path, "targetId %q does not resolve", tp.TargetID)
		}
		if !platformCodes[tp.PlatformCode] {
			v.add("platforms", path, "platformCode %q does not resolve", tp.PlatformCode)
		}
		if !validRoles[tp.Role] {
			v.add("platforms", path, "unknown role %q", tp.Role)
		}
		if tp.Role == "Primary" {
			primaryPerTarget[tp.TargetID]++
		}
	}
	for id, n := range primaryPerTarget {
		if n > 1 {
			v.add("platforms", fmt.Sprintf("targets[%s]", id),
				"%d Primary platform bindings, exactly one allowed", n)
		}
	}
}

func (v *validator) checkJobs() {
	for _, j := range v.doc.Objects.Jobs.Jobs {
		path := fmt.Sprintf("jobs[%s]", j.Code)
		if j.Code == "" {
			v.add("jobs", "jobs", "job with empty code")
			continue
		}
		steps := make(map[string]bool, len(j.Steps))
		for _, s := range j.Steps {
			if s.Code == "" {
				v.add("jobs", path, "step with empty code")
				continue
			}
			if steps[s.Code] {
				v.add("jobs", path, "duplicate step code %q", s.Code)
			}
			steps[s.Code] = true
		}
		for _, s := range j.Steps {
			for _, dep := range s.DependsOn {
				if !steps[dep] {
					v.add("jobs", fmt.Sprintf("%s.steps[%s]", path, s.Code),
						"dependsOn %q does not resolve to a sibling step", dep)
				}
			}
		}
	}
}

func (v *validator) checkMetrics() {
	seen := make(map[string]bool)
	for _, m := range v.doc.Objects.Metrics.Metrics {
		path := fmt.Sprintf("metrics[%s]", m.Code)
		if m.Code == "" {
			v.add("metrics", "metrics", "metric with empty code")
			continue
		}
		if seen[m.Code] {
			v.add("metrics", path, "duplicate metric code")
		}
		seen[m.Code] = true
		if m.Formula == "" {
			v.add("metrics", path, "missing formula")
		}
	}
}

func (v *validator) checkLineage() {
	for i, e := range v.doc.Objects.Lineage.Edges {
		path := fmt.Sprintf("edges[%d]", i)
		if !validLineageNodeTypes[e.FromType] {
			v.add("lineage", path, "unknown fromType %q", e.FromType)
		}
		if !validLineageNodeTypes[e.ToType] {
			v.add("lineage", path, "unknown toType %q", e.ToType)
		}
		if e.FromKey == "" || e.ToKey == "" {
			v.add("lineage", path, "edge endpoints must both have keys")
		}
	}
}

func (v *validator) checkMapping() {
	objIDs := make(map[string]*Table)
	for _, mo := range v.doc.Objects.Mapping.Objects {
		path := fmt.Sprintf("objects[%s]", mo.ID)
		t, ok := v.tablesByCode[mo.TableCode]
		if !ok {
			v.add("mapping", path, "tableCode %q does not resolve", mo.TableCode)
			continue
		}
		objIDs[mo.ID] = t
	}
	for i, mf := range v.doc.Objects.Mapping.Fields {
		path := fmt.Sprintf("fields[%d]", i)
		t, ok := objIDs[mf.MapObjectID]
		if !ok {
			v.add("mapping", path, "mapObjectId %q does not resolve", mf.MapObjectID)
			continue
		}
		if !tableHasField(t, mf.FieldCode) {
			v.add("mapping", path, "fieldCode %q not found on table %q", mf.FieldCode, t.Code)
		}
	}
}
