// Package snapshot loads and validates canonical metadata snapshot documents.
// A snapshot is the single input to compilation: a versioned JSON object with a
// meta block and an objects map keyed by domain area. The loader is a pure
// parse+check step; nothing downstream runs until a snapshot validates clean.
package snapshot

import "encoding/json"

// SupportedVersion is the snapshot schema version this loader understands.
const SupportedVersion = "1.0"

// MandatoryInternalFields are the control fields every canonical table must
// declare. _TenantID is only required when the table is tenant-scoped.
var MandatoryInternalFields = []string{
	"_TenantID",
	"_CreateDate",
	"_SourceSystem",
	"_SourceKey",
	"_SyncDate",
	"_DeleteDate",
}

// Document is a parsed snapshot.
type Document struct {
	Meta    Meta    `json:"meta"`
	Objects Objects `json:"objects"`
}

// Meta identifies a snapshot export.
type Meta struct {
	Version       string `json:"version"`
	ProjectID     string `json:"projectId"`
	ExportedAtUTC string `json:"exportedAtUTC"`
}

// Objects holds the domain areas of a snapshot. Areas the compiler does not
// consume (workflows, security, ui, texts, uiThemes) are retained as raw JSON
// so validation can confirm they are well-formed objects without modeling them.
type Objects struct {
	Model     Model     `json:"model"`
	Platforms Platforms `json:"platforms"`
	Enums     Enums     `json:"enums"`
	Jobs      Jobs      `json:"jobs"`
	Metrics   Metrics   `json:"metrics"`
	Lineage   Lineage   `json:"lineage"`
	Mapping   Mapping   `json:"mapping"`

	Workflows json.RawMessage `json:"workflows,omitempty"`
	Security  json.RawMessage `json:"security,omitempty"`
	UI        json.RawMessage `json:"ui,omitempty"`
	Texts     json.RawMessage `json:"texts,omitempty"`
	UIThemes  json.RawMessage `json:"uiThemes,omitempty"`
}

// Model is the canonical schema area.
type Model struct {
	Tables    []Table    `json:"tables"`
	Relations []Relation `json:"relations"`
}

// Table is a canonical table definition. Code is the 2-letter, globally
// unique, immutable table code.
type Table struct {
	ID             string  `json:"id"`
	Schema         string  `json:"schema"`
	Name           string  `json:"name"`
	Code           string  `json:"code"`
	Domain         string  `json:"domain"`
	RequiresTenant bool    `json:"requiresTenant"`
	Fields         []Field `json:"fields"`
}

// Field is a canonical field definition.
type Field struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Nullable    bool   `json:"nullable"`
	PrimaryKey  bool   `json:"primaryKey"`
	Ref         string `json:"ref,omitempty"` // table code this FK points at
	Sensitivity string `json:"sensitivity,omitempty"`
}

// Relation is a canonical FK relation between two tables.
type Relation struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	FromTable string `json:"fromTable"`
	FromField string `json:"fromField"`
	ToTable   string `json:"toTable"`
	ToField   string `json:"toField"`
}

// Platforms is the deployment-coordinate area.
type Platforms struct {
	Platforms       []PlatformRef    `json:"platforms"`
	Targets         []Target         `json:"targets"`
	TargetPlatforms []TargetPlatform `json:"targetPlatforms"`
}

// PlatformRef names a physical platform the snapshot expects to compile for.
// The constraint and type profiles themselves are collaborator input, loaded
// separately from the profile set.
type PlatformRef struct {
	Code     string `json:"code"`
	Cloud    string `json:"cloud"`
	Category string `json:"category"`
	Enabled  bool   `json:"enabled"`
}

// Target is a deployment coordinate. Env values ProdA/ProdB pair up into a
// SwitchGroup; at most one member of a group is active.
type Target struct {
	ID          string `json:"id"`
	Client      string `json:"client"`
	Env         string `json:"env"`
	Domain      string `json:"domain"`
	Region      string `json:"region"`
	SwitchGroup string `json:"switchGroup,omitempty"`
	Active      bool   `json:"active"`
}

// TargetPlatform binds a Target to a physical platform.
type TargetPlatform struct {
	ID            string `json:"id"`
	TargetID      string `json:"targetId"`
	PlatformCode  string `json:"platformCode"`
	Role          string `json:"role"` // Primary, Secondary, DR
	FailoverOrder int    `json:"failoverOrder"`
}

// Enums is the lookup-value area.
type Enums struct {
	Enums  []Enum      `json:"enums"`
	Values []EnumValue `json:"values"`
}

// Enum is a canonical enumeration.
type Enum struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// EnumValue is one value of an enumeration.
type EnumValue struct {
	EnumCode  string `json:"enumCode"`
	Code      string `json:"code"`
	Sort      int    `json:"sort"`
	IsDefault bool   `json:"isDefault"`
}

// Jobs is the logical-pipeline area.
type Jobs struct {
	Jobs []Job `json:"jobs"`
}

// Job is a logical pipeline definition.
type Job struct {
	ID       string      `json:"id"`
	Code     string      `json:"code"`
	Schedule string      `json:"schedule,omitempty"`
	Steps    []JobStep   `json:"steps"`
	Targets  []JobTarget `json:"targets,omitempty"`
}

// JobStep is one step of a job with explicit dependencies on sibling steps.
type JobStep struct {
	Code      string   `json:"code"`
	Action    string   `json:"action"`
	SQL       string   `json:"sql,omitempty"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

// JobTarget points a job at a scheduler family on a target platform.
type JobTarget struct {
	PlatformCode string `json:"platformCode"`
	Scheduler    string `json:"scheduler"`
}

// Metrics is the KPI area.
type Metrics struct {
	Metrics []Metric `json:"metrics"`
}

// Metric is a canonical metric with its formula in the fixed vocabulary.
type Metric struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Formula     string `json:"formula"`
	Description string `json:"description,omitempty"`
}

// Lineage is the mapping/lineage area.
type Lineage struct {
	Edges []LineageEdge `json:"edges"`
}

// LineageEdge connects two lineage nodes. FromType/ToType discriminate the
// node kind; see the lineage package for the typed graph built from these.
type LineageEdge struct {
	FromType  string `json:"fromType"`
	FromKey   string `json:"fromKey"`
	ToType    string `json:"toType"`
	ToKey     string `json:"toKey"`
	Transform string `json:"transform,omitempty"`
}

// Mapping is the source-to-canonical mapping area.
type Mapping struct {
	Objects []MapObject `json:"objects"`
	Fields  []MapField  `json:"fields"`
}

// MapObject maps a source object onto a canonical table.
type MapObject struct {
	ID           string `json:"id"`
	SourceSystem string `json:"sourceSystem"`
	SourceObject string `json:"sourceObject"`
	TableCode    string `json:"tableCode"`
}

// MapField maps a source field onto a canonical field.
type MapField struct {
	MapObjectID string `json:"mapObjectId"`
	SourceField string `json:"sourceField"`
	FieldCode   string `json:"fieldCode"`
	Transform   string `json:"transform,omitempty"`
}
