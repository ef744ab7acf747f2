// Package emitter defines the artifact emitter contract. An emitter turns a
// resolved projection into the ordered set of textual artifacts for one
// platform family. Emitters are pure: same projection in, byte-identical
// artifacts out, no clocks, no environment, no I/O.
package emitter

import (
	"github.com/ozmeta-labs/ozmeta/internal/projection"
)

// Artifact is one emitted file, addressed by its relative path inside the
// target's output directory.
type Artifact struct {
	// Path is slash-separated and relative; the writer owns placement.
	Path    string
	Content []byte
}

// Result is everything an emitter produced for one projection. Artifacts are
// ordered: schemas, then tables, then constraints, then indexes, then
// metrics and job definitions. The writer preserves this order in the
// manifest.
type Result struct {
	PlatformCode string
	Artifacts    []Artifact
}

// Emitter renders DDL and companion artifacts for one platform family.
type Emitter interface {
	// Name is the platform code the emitter serves.
	Name() string
	// Emit renders the projection. An error aborts only this target.
	Emit(p *projection.Projection) (*Result, error)
}
