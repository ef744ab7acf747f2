// Package projection maps canonical schema objects to their physical
// rendering on one target platform. Projection is a pure function of
// (canonical snapshot, constraint profile, type-mapping profile): recompiling
// with unchanged inputs yields identical records. Physical records are
// caches, fully recomputable, never hand-edited.
package projection

import (
	"fmt"

	"github.com/ozmeta-labs/ozmeta/internal/jobs"
	"github.com/ozmeta-labs/ozmeta/internal/metrics"
	"github.com/ozmeta-labs/ozmeta/internal/platform"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
)

// ReverseKey identifies a physical object uniquely within a platform and
// maps it back to its canonical identity through the Index.
type ReverseKey struct {
	TargetPlatformID string
	Container        string
	Schema           string
	Name             string
}

func (k ReverseKey) String() string {
	return fmt.Sprintf("%s/%s.%s.%s", k.TargetPlatformID, k.Container, k.Schema, k.Name)
}

// PhysicalField is the per-platform rendering of a canonical field.
type PhysicalField struct {
	FieldID       string
	CanonicalCode string
	Name          string
	PhysicalType  string
	Nullable      bool
	PrimaryKey    bool
	Ref           string // canonical table code this FK points at
	Sensitivity   string
}

// PhysicalObject is the per-platform rendering of a canonical table.
type PhysicalObject struct {
	TableID       string
	TableCode     string
	CanonicalName string
	Container     string
	Schema        string
	Name          string
	RequiresTenant bool
	Fields        []PhysicalField
	ReverseKey    ReverseKey
}

// RelationPlan decides how one canonical relation materializes on a platform.
// Declarative relations emit FK DDL; logical-only relations become drift
// rules checked post-hoc.
type RelationPlan struct {
	RelationID     string
	Code           string
	ConstraintName string
	FromSchema     string // physical schema of the from-table
	FromObject     string // physical from-table name
	FromField      string
	ToSchema       string
	ToObject       string
	ToField        string
	Declarative    bool
}

// Projection is the full physical resolution of one TargetPlatform.
type Projection struct {
	Target         snapshot.Target
	TargetPlatform snapshot.TargetPlatform
	Platform       *platform.Platform

	// Objects sorted by canonical table code.
	Objects []PhysicalObject
	// Relations sorted by relation code.
	Relations []RelationPlan
	// Metrics sorted by metric code, compiled for the platform's expression
	// language.
	Metrics []*metrics.Compiled
	// Jobs sorted by job code; only jobs bound to this platform appear.
	Jobs []*jobs.Compiled
}

// CanonicalName derives the target's canonical deployment-coordinate name.
// It is always derived, never edited independently.
func CanonicalName(t snapshot.Target, platformCode string) string {
	return fmt.Sprintf("%s-%s-%s-%s-%s", t.Client, t.Env, platformCode, t.Domain, t.Region)
}

// Index resolves reverse keys back to canonical identities.
type Index struct {
	objects map[ReverseKey]string            // -> table ID
	fields  map[ReverseKey]map[string]string // object key -> physical field name -> field ID
}

// NewIndex builds a reverse index over a set of projections.
func NewIndex(projections ...*Projection) *Index {
	idx := &Index{
		objects: make(map[ReverseKey]string),
		fields:  make(map[ReverseKey]map[string]string),
	}
	for _, p := range projections {
		for _, obj := range p.Objects {
			idx.objects[obj.ReverseKey] = obj.TableID
			fm := make(map[string]string, len(obj.Fields))
			for _, f := range obj.Fields {
				fm[f.Name] = f.FieldID
			}
			idx.fields[obj.ReverseKey] = fm
		}
	}
	return idx
}

// TableID resolves a physical object back to its canonical table ID.
func (i *Index) TableID(key ReverseKey) (string, bool) {
	id, ok := i.objects[key]
	return id, ok
}

// FieldID resolves a physical field back to its canonical field ID.
func (i *Index) FieldID(key ReverseKey, physicalFieldName string) (string, bool) {
	fm, ok := i.fields[key]
	if !ok {
		return "", false
	}
	id, ok := fm[physicalFieldName]
	return id, ok
}
