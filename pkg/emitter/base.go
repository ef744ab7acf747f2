package emitter

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ozmeta-labs/ozmeta/internal/projection"
)

// NameStyle controls how a physical object is qualified in DDL.
type NameStyle int

const (
	// NameSchemaQualified renders schema.table; the container is the
	// database the connection is scoped to.
	NameSchemaQualified NameStyle = iota
	// NameFullyQualified renders container.schema.table.
	NameFullyQualified
	// NameDatasetQualified merges container and schema into a single
	// dataset-style namespace: container_schema.table.
	NameDatasetQualified
)

// Config is a platform emitter configuration. This is pure data; the base
// emitter reads the flags and renders accordingly. Platform packages supply
// one Config each and register the built emitter in init().
type Config struct {
	Name  string
	Quote string // identifier quote, e.g. `"` or "`"
	Style NameStyle

	// InlinePrimaryKey emits a PRIMARY KEY table constraint. PrimaryKeySuffix
	// is appended verbatim (e.g. " NOT ENFORCED" where constraints are
	// informational).
	InlinePrimaryKey bool
	PrimaryKeySuffix string

	// NotNull emits NOT NULL on non-nullable columns.
	NotNull bool

	// TableSuffix is appended to CREATE TABLE before the terminator,
	// e.g. "\nUSING DELTA".
	TableSuffix string
}

// Base renders the standard artifact tree from a Config. All five platform
// families share this machinery; divergence lives in the Config.
type Base struct {
	cfg Config
}

// New builds a base emitter from a config.
func New(cfg Config) *Base {
	if cfg.Quote == "" {
		cfg.Quote = `"`
	}
	return &Base{cfg: cfg}
}

func (b *Base) Name() string { return b.cfg.Name }

// Emit renders the projection into the fixed artifact tree:
//
//	README.md
//	sql/00_schemas.sql
//	sql/<table>.sql
//	sql/99_foreign_keys.sql    (declarative relations only)
//	rules/relations.json       (logical-only relations)
//	metrics/<code>.sql
//	jobs/<filename>
//
// Physical table names are unique per target, so the flat sql/ layout cannot
// collide. Ordering inside each group follows the projection's sort order, so
// the result is byte-stable across runs.
func (b *Base) Emit(p *projection.Projection) (*Result, error) {
	res := &Result{PlatformCode: b.cfg.Name}

	res.Artifacts = append(res.Artifacts, Artifact{
		Path:    "README.md",
		Content: []byte(b.readme(p)),
	})

	if schemas := b.schemas(p); len(schemas) > 0 {
		var sb strings.Builder
		for _, schema := range schemas {
			sb.WriteString(b.createSchema(p, schema))
		}
		res.Artifacts = append(res.Artifacts, Artifact{
			Path:    "sql/00_schemas.sql",
			Content: []byte(sb.String()),
		})
	}

	for i := range p.Objects {
		obj := &p.Objects[i]
		ddl, err := b.createTable(obj)
		if err != nil {
			return nil, err
		}
		res.Artifacts = append(res.Artifacts, Artifact{
			Path:    path.Join("sql", obj.Name+".sql"),
			Content: []byte(ddl),
		})
	}

	if fk := b.foreignKeys(p); fk != "" {
		res.Artifacts = append(res.Artifacts, Artifact{
			Path:    "sql/99_foreign_keys.sql",
			Content: []byte(fk),
		})
	}
	logical, err := b.logicalRelations(p)
	if err != nil {
		return nil, err
	}
	if logical != nil {
		res.Artifacts = append(res.Artifacts, Artifact{
			Path:    "rules/relations.json",
			Content: logical,
		})
	}

	for _, m := range p.Metrics {
		content := fmt.Sprintf("-- metric %s\n-- formula: %s\n%s\n", m.Code, m.Formula, m.Expression)
		res.Artifacts = append(res.Artifacts, Artifact{
			Path:    path.Join("metrics", m.Code+".sql"),
			Content: []byte(content),
		})
	}

	for _, j := range p.Jobs {
		res.Artifacts = append(res.Artifacts, Artifact{
			Path:    path.Join("jobs", j.Filename),
			Content: []byte(j.Content),
		})
	}

	return res, nil
}

// readme summarizes the target. Content is a pure function of the
// projection; no timestamps, no environment.
func (b *Base) readme(p *projection.Projection) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", projection.CanonicalName(p.Target, b.cfg.Name))
	fmt.Fprintf(&sb, "Platform: %s\n\n", b.cfg.Name)
	if len(p.Objects) > 0 {
		sb.WriteString("## Objects\n\n")
		for i := range p.Objects {
			obj := &p.Objects[i]
			fmt.Fprintf(&sb, "- %s.%s (%s)\n", obj.Schema, obj.Name, obj.TableCode)
		}
		sb.WriteString("\n")
	}
	if len(p.Metrics) > 0 {
		sb.WriteString("## Metrics\n\n")
		for _, m := range p.Metrics {
			fmt.Fprintf(&sb, "- %s\n", m.Code)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *Base) quote(name string) string {
	return b.cfg.Quote + name + b.cfg.Quote
}

// schemaName renders the name CREATE SCHEMA targets for a given schema.
func (b *Base) schemaName(p *projection.Projection, schema string) string {
	container := b.container(p)
	switch b.cfg.Style {
	case NameFullyQualified:
		return b.quote(container) + "." + b.quote(schema)
	case NameDatasetQualified:
		return b.quote(container + "_" + schema)
	default:
		return b.quote(schema)
	}
}

func (b *Base) objectName(p *projection.Projection, schema, name string) string {
	return b.schemaName(p, schema) + "." + b.quote(name)
}

func (b *Base) container(p *projection.Projection) string {
	if len(p.Objects) > 0 {
		return p.Objects[0].Container
	}
	return ""
}

func (b *Base) schemas(p *projection.Projection) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range p.Objects {
		s := p.Objects[i].Schema
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (b *Base) createSchema(p *projection.Projection, schema string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;\n", b.schemaName(p, schema))
}

func (b *Base) createTable(obj *projection.PhysicalObject) (string, error) {
	if len(obj.Fields) == 0 {
		return "", fmt.Errorf("table %s resolved with no fields", obj.TableCode)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "-- %s (%s)\n", obj.CanonicalName, obj.TableCode)
	fmt.Fprintf(&sb, "CREATE TABLE IF NOT EXISTS %s.%s (\n", b.quoteSchemaPart(obj), b.quote(obj.Name))

	var lines []string
	var pks []string
	for _, f := range obj.Fields {
		line := "  " + b.quote(f.Name) + " " + f.PhysicalType
		if b.cfg.NotNull && !f.Nullable {
			line += " NOT NULL"
		}
		lines = append(lines, line)
		if f.PrimaryKey {
			pks = append(pks, b.quote(f.Name))
		}
	}
	if b.cfg.InlinePrimaryKey && len(pks) > 0 {
		lines = append(lines, "  PRIMARY KEY ("+strings.Join(pks, ", ")+")"+b.cfg.PrimaryKeySuffix)
	}
	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n)")
	sb.WriteString(b.cfg.TableSuffix)
	sb.WriteString(";\n")
	return sb.String(), nil
}

// quoteSchemaPart qualifies a table's schema using the object's own container.
func (b *Base) quoteSchemaPart(obj *projection.PhysicalObject) string {
	switch b.cfg.Style {
	case NameFullyQualified:
		return b.quote(obj.Container) + "." + b.quote(obj.Schema)
	case NameDatasetQualified:
		return b.quote(obj.Container + "_" + obj.Schema)
	default:
		return b.quote(obj.Schema)
	}
}

func (b *Base) foreignKeys(p *projection.Projection) string {
	var sb strings.Builder
	for _, r := range p.Relations {
		if !r.Declarative {
			continue
		}
		fmt.Fprintf(&sb, "ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);\n",
			b.objectName(p, r.FromSchema, r.FromObject),
			b.quote(r.ConstraintName),
			b.quote(r.FromField),
			b.objectName(p, r.ToSchema, r.ToObject),
			b.quote(r.ToField),
		)
	}
	return sb.String()
}

// logicalRelation is one relation the platform cannot enforce; the drift
// validator checks these post-deployment.
type logicalRelation struct {
	Code       string `json:"code"`
	FromSchema string `json:"fromSchema"`
	FromObject string `json:"fromObject"`
	FromField  string `json:"fromField"`
	ToSchema   string `json:"toSchema"`
	ToObject   string `json:"toObject"`
	ToField    string `json:"toField"`
}

func (b *Base) logicalRelations(p *projection.Projection) ([]byte, error) {
	var rules []logicalRelation
	for _, r := range p.Relations {
		if r.Declarative {
			continue
		}
		rules = append(rules, logicalRelation{
			Code:       r.Code,
			FromSchema: r.FromSchema,
			FromObject: r.FromObject,
			FromField:  r.FromField,
			ToSchema:   r.ToSchema,
			ToObject:   r.ToObject,
			ToField:    r.ToField,
		})
	}
	if rules == nil {
		return nil, nil
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
