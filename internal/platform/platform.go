// Package platform defines physical platform descriptors: the constraint
// profile governing identifier derivation and the type-mapping profile
// resolving canonical logical types. Profiles are pure function input; the
// compiler never mutates them.
package platform

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Categories group platforms by what their DDL surface supports.
const (
	CategoryRelational = "relational"
	CategoryMPP        = "mpp"
	CategoryWarehouse  = "warehouse"
	CategoryLakehouse  = "lakehouse"
)

// Platform describes one physical deployment platform.
type Platform struct {
	Code       string             `yaml:"code"`
	Cloud      string             `yaml:"cloud"`
	Category   string             `yaml:"category"`
	Enabled    bool               `yaml:"enabled"`
	Constraint ConstraintProfile  `yaml:"constraint"`
	TypeMap    TypeMappingProfile `yaml:"types"`
}

// SupportsDeclarativeFK reports whether the platform's category can enforce
// foreign keys in DDL. Lakehouse and columnar warehouse engines take FK
// metadata informationally at best, so relations compile to logical-only
// drift rules there.
func (p *Platform) SupportsDeclarativeFK() bool {
	return p.Category == CategoryRelational || p.Category == CategoryMPP
}

// ConstraintProfile holds a platform's identifier rules.
type ConstraintProfile struct {
	MaxLength           int    `yaml:"maxLength"`
	CasePolicy          string `yaml:"casePolicy"`          // "lower" or "preserve"
	AllowedCharsPattern string `yaml:"allowedCharsPattern"` // regexp matching a single allowed rune
	NormalizeRule       string `yaml:"normalizeRule"`       // "strip" or "replace"
	ReplaceWith         string `yaml:"replaceWith"`
}

// TypeMappingProfile maps canonical logical types to hand-picked physical
// types. Lookup is exact and case-insensitive on the logical side; a missing
// entry is always a hard error, never defaulted.
type TypeMappingProfile map[string]string

// UnmappedTypeError reports a logical type with no physical rendering for a
// platform. It is fatal for the target being compiled.
type UnmappedTypeError struct {
	LogicalType  string
	PlatformCode string
}

func (e *UnmappedTypeError) Error() string {
	return fmt.Sprintf("logical type %q has no physical mapping for platform %q", e.LogicalType, e.PlatformCode)
}

// Set is a loaded profile set keyed by platform code.
type Set struct {
	platforms map[string]*Platform
}

// Get returns the platform for a code.
func (s *Set) Get(code string) (*Platform, bool) {
	p, ok := s.platforms[code]
	return p, ok
}

// Codes returns all platform codes, sorted.
func (s *Set) Codes() []string {
	codes := make([]string, 0, len(s.platforms))
	for c := range s.platforms {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// ResolveType resolves a logical type to its physical rendering on a platform.
func (s *Set) ResolveType(logicalType, platformCode string) (string, error) {
	p, ok := s.platforms[platformCode]
	if !ok {
		return "", fmt.Errorf("unknown platform %q", platformCode)
	}
	phys, ok := p.TypeMap[strings.ToLower(logicalType)]
	if !ok {
		return "", &UnmappedTypeError{LogicalType: logicalType, PlatformCode: platformCode}
	}
	return phys, nil
}

// profileFile is the YAML shape of a profile set document.
type profileFile struct {
	Platforms []Platform `yaml:"platforms"`
}

// LoadSet reads a profile set from a YAML file, layered over the builtin set:
// file entries replace builtins with the same code.
func LoadSet(path string) (*Set, error) {
	set := Builtin()
	if path == "" {
		return set, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile set %s: %w", path, err)
	}
	var doc profileFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing profile set %s: %w", path, err)
	}
	for i := range doc.Platforms {
		p := doc.Platforms[i]
		if p.Code == "" {
			return nil, fmt.Errorf("profile set %s: platform with empty code", path)
		}
		set.platforms[p.Code] = &p
	}
	return set, nil
}

// NewSet builds a profile set from explicit platforms. Used by tests and by
// callers that assemble profiles programmatically.
func NewSet(platforms ...*Platform) *Set {
	s := &Set{platforms: make(map[string]*Platform, len(platforms))}
	for _, p := range platforms {
		s.platforms[p.Code] = p
	}
	return s
}
