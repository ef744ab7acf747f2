package projection

import (
	"fmt"
	"sort"

	"github.com/ozmeta-labs/ozmeta/internal/jobs"
	"github.com/ozmeta-labs/ozmeta/internal/metrics"
	"github.com/ozmeta-labs/ozmeta/internal/naming"
	"github.com/ozmeta-labs/ozmeta/internal/platform"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
)

// Resolver projects canonical objects onto target platforms. A resolver is
// scoped to one compilation run: it owns the run's code registry and looks up
// profiles from the injected set. Resolving different target platforms is
// safe concurrently; each resolution gets its own normalizer and collision
// table.
type Resolver struct {
	doc   *snapshot.Document
	set   *platform.Set
	codes *naming.CodeRegistry
}

// NewResolver seeds a resolver (and its code registry) from a validated
// snapshot. The snapshot must already have passed validation; code conflicts
// here indicate a registry bug, not user input, and are returned as-is.
func NewResolver(doc *snapshot.Document, set *platform.Set) (*Resolver, error) {
	codes := naming.NewCodeRegistry()
	for _, t := range doc.Objects.Model.Tables {
		if err := codes.Claim(t.Code, t.ID); err != nil {
			return nil, err
		}
	}
	return &Resolver{doc: doc, set: set, codes: codes}, nil
}

// Codes exposes the run-scoped code registry.
func (r *Resolver) Codes() *naming.CodeRegistry { return r.codes }

// TargetPlatforms returns the snapshot's target platform bindings whose
// platform is known and enabled, sorted by ID for deterministic scheduling.
func (r *Resolver) TargetPlatforms() []snapshot.TargetPlatform {
	var out []snapshot.TargetPlatform
	for _, tp := range r.doc.Objects.Platforms.TargetPlatforms {
		if p, ok := r.set.Get(tp.PlatformCode); ok && p.Enabled {
			out = append(out, tp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolve projects every canonical object reachable from the target's domain
// onto one target platform.
func (r *Resolver) Resolve(tp snapshot.TargetPlatform) (*Projection, error) {
	target, ok := r.findTarget(tp.TargetID)
	if !ok {
		return nil, fmt.Errorf("target platform %s: target %q not in snapshot", tp.ID, tp.TargetID)
	}
	plat, ok := r.set.Get(tp.PlatformCode)
	if !ok {
		return nil, fmt.Errorf("target platform %s: no profile for platform %q", tp.ID, tp.PlatformCode)
	}

	norm, err := naming.NewNormalizer(plat.Constraint)
	if err != nil {
		return nil, err
	}

	proj := &Projection{
		Target:         target,
		TargetPlatform: tp,
		Platform:       plat,
	}

	container := norm.Normalize(fmt.Sprintf("%s_%s_%s", target.Client, target.Env, target.Domain))

	tables := r.reachableTables(target.Domain)
	physByCode := make(map[string]*PhysicalObject, len(tables))
	for _, t := range tables {
		obj, err := r.resolveTable(t, tp, plat, norm, container)
		if err != nil {
			return nil, err
		}
		proj.Objects = append(proj.Objects, *obj)
		physByCode[t.Code] = obj
	}
	sort.Slice(proj.Objects, func(i, j int) bool {
		return proj.Objects[i].TableCode < proj.Objects[j].TableCode
	})

	if err := r.resolveRelations(proj, physByCode, plat, norm); err != nil {
		return nil, err
	}
	if err := r.resolveMetrics(proj, plat); err != nil {
		return nil, err
	}
	if err := r.resolveJobs(proj, tp); err != nil {
		return nil, err
	}
	return proj, nil
}

func (r *Resolver) findTarget(id string) (snapshot.Target, bool) {
	for _, t := range r.doc.Objects.Platforms.Targets {
		if t.ID == id {
			return t, true
		}
	}
	return snapshot.Target{}, false
}

// reachableTables selects tables in the target's domain. Tables without a
// domain are shared and reachable from every target.
func (r *Resolver) reachableTables(domain string) []snapshot.Table {
	var out []snapshot.Table
	for _, t := range r.doc.Objects.Model.Tables {
		if t.Domain == "" || t.Domain == domain {
			out = append(out, t)
		}
	}
	return out
}

func (r *Resolver) resolveTable(t snapshot.Table, tp snapshot.TargetPlatform, plat *platform.Platform, norm *naming.Normalizer, container string) (*PhysicalObject, error) {
	schema := norm.Normalize(t.Schema)
	// Tables register in one target-wide namespace: physical table names
	// stay unique across schemas, so flat artifact layouts cannot collide.
	name, err := norm.Register("table", t.Name)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", t.Code, err)
	}

	obj := &PhysicalObject{
		TableID:        t.ID,
		TableCode:      t.Code,
		CanonicalName:  t.Name,
		Container:      container,
		Schema:         schema,
		Name:           name,
		RequiresTenant: t.RequiresTenant,
		ReverseKey: ReverseKey{
			TargetPlatformID: tp.ID,
			Container:        container,
			Schema:           schema,
			Name:             name,
		},
	}

	fields := append([]snapshot.Field(nil), t.Fields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Code < fields[j].Code })
	for _, f := range fields {
		physName, err := norm.Register("field:"+schema+"."+name, f.Code)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Code, err)
		}
		physType, err := r.set.ResolveType(f.Type, plat.Code)
		if err != nil {
			return nil, fmt.Errorf("table %s field %s: %w", t.Code, f.Code, err)
		}
		obj.Fields = append(obj.Fields, PhysicalField{
			FieldID:       f.ID,
			CanonicalCode: f.Code,
			Name:          physName,
			PhysicalType:  physType,
			Nullable:      f.Nullable,
			PrimaryKey:    f.PrimaryKey,
			Ref:           f.Ref,
			Sensitivity:   f.Sensitivity,
		})
	}
	return obj, nil
}

func (r *Resolver) resolveRelations(proj *Projection, physByCode map[string]*PhysicalObject, plat *platform.Platform, norm *naming.Normalizer) error {
	for _, rel := range r.doc.Objects.Model.Relations {
		from, okFrom := physByCode[rel.FromTable]
		to, okTo := physByCode[rel.ToTable]
		if !okFrom || !okTo {
			// Relation crosses out of this target's domain; nothing to emit.
			continue
		}
		constraint := norm.Normalize(fmt.Sprintf("fk_%s_%s", rel.FromTable, rel.ToTable))
		proj.Relations = append(proj.Relations, RelationPlan{
			RelationID:     rel.ID,
			Code:           rel.Code,
			ConstraintName: constraint,
			FromSchema:     from.Schema,
			FromObject:     from.Name,
			FromField:      physicalFieldName(from, rel.FromField),
			ToSchema:       to.Schema,
			ToObject:       to.Name,
			ToField:        physicalFieldName(to, rel.ToField),
			Declarative:    plat.SupportsDeclarativeFK(),
		})
	}
	sort.Slice(proj.Relations, func(i, j int) bool {
		return proj.Relations[i].Code < proj.Relations[j].Code
	})
	return nil
}

func physicalFieldName(obj *PhysicalObject, canonicalCode string) string {
	for _, f := range obj.Fields {
		if f.CanonicalCode == canonicalCode {
			return f.Name
		}
	}
	return canonicalCode
}

// metricTarget picks the expression language for a platform family.
func metricTarget(plat *platform.Platform) string {
	if plat.Category == platform.CategoryLakehouse {
		return "spark"
	}
	return "tsql"
}

func (r *Resolver) resolveMetrics(proj *Projection, plat *platform.Platform) error {
	ms := append([]snapshot.Metric(nil), r.doc.Objects.Metrics.Metrics...)
	sort.Slice(ms, func(i, j int) bool { return ms[i].Code < ms[j].Code })
	for _, m := range ms {
		compiled, err := metrics.Compile(m.Code, m.Formula, metricTarget(plat))
		if err != nil {
			return err
		}
		proj.Metrics = append(proj.Metrics, compiled)
	}
	return nil
}

func (r *Resolver) resolveJobs(proj *Projection, tp snapshot.TargetPlatform) error {
	js := append([]snapshot.Job(nil), r.doc.Objects.Jobs.Jobs...)
	sort.Slice(js, func(i, j int) bool { return js[i].Code < js[j].Code })
	for _, j := range js {
		scheduler := schedulerFor(j, tp.PlatformCode)
		if scheduler == "" {
			continue
		}
		compiled, err := jobs.Compile(j, scheduler)
		if err != nil {
			return err
		}
		proj.Jobs = append(proj.Jobs, compiled)
	}
	return nil
}

func schedulerFor(j snapshot.Job, platformCode string) string {
	for _, jt := range j.Targets {
		if jt.PlatformCode == platformCode {
			return jt.Scheduler
		}
	}
	return ""
}
