// Package naming derives valid physical identifiers from canonical names
// under a platform's constraint profile. Normalization is a pure function:
// the same canonical name always yields the same physical name, and the
// truncation suffix is derived from the original canonical name so two
// distinct canonical names never silently merge.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/ozmeta-labs/ozmeta/internal/platform"
)

// suffixHexLen is the number of hex chars of SHA-256(canonical name) appended
// after truncation. Together with the separator this reserves 7 chars.
// The scheme is part of the stable output contract: changing it changes every
// truncated physical name.
const suffixHexLen = 6

const suffixSep = "_"

// CollisionError reports two distinct canonical names resolving to the same
// physical name on one target platform. Unresolvable after suffixing, so
// always fatal.
type CollisionError struct {
	PhysicalName  string
	CanonicalName string
	ExistingName  string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("naming collision: canonical %q and %q both map to physical %q",
		e.CanonicalName, e.ExistingName, e.PhysicalName)
}

// Normalizer derives physical names under one constraint profile and tracks
// emitted names per target platform so collisions surface at compile time.
// Safe for concurrent use within a single target's compilation.
type Normalizer struct {
	profile platform.ConstraintProfile
	allowed *regexp.Regexp

	mu      sync.Mutex
	emitted map[string]string // namespace-scoped physical name -> canonical name
}

// NewNormalizer builds a normalizer for a constraint profile. The profile's
// AllowedCharsPattern must compile; a broken profile is a configuration error
// surfaced immediately.
func NewNormalizer(profile platform.ConstraintProfile) (*Normalizer, error) {
	re, err := regexp.Compile(profile.AllowedCharsPattern)
	if err != nil {
		return nil, fmt.Errorf("constraint profile: invalid allowedCharsPattern %q: %w",
			profile.AllowedCharsPattern, err)
	}
	return &Normalizer{
		profile: profile,
		allowed: re,
		emitted: make(map[string]string),
	}, nil
}

// Normalize derives the physical identifier for a canonical name without
// recording it. Pure and idempotent.
func (n *Normalizer) Normalize(canonicalName string) string {
	name := canonicalName

	// 1. Case policy.
	if n.profile.CasePolicy == "lower" {
		name = strings.ToLower(name)
	}

	// 2. Strip or replace disallowed runes.
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if n.allowed.MatchString(string(r)) {
			b.WriteRune(r)
			continue
		}
		if n.profile.NormalizeRule == "replace" {
			rep := n.profile.ReplaceWith
			if rep == "" {
				rep = "_"
			}
			b.WriteString(rep)
		}
	}
	name = b.String()

	// 3. Truncate with deterministic suffix from the original canonical name.
	// The suffix shrinks on tiny profiles so the result never exceeds the
	// platform's maxLength.
	if max := n.profile.MaxLength; max > 0 && len(name) > max {
		hexLen := suffixHexLen
		keep := max - len(suffixSep) - hexLen
		if keep < 1 {
			keep = 1
			hexLen = max - keep - len(suffixSep)
		}
		if hexLen < 1 {
			// No room for any hash chars; plain truncation is all that fits.
			return name[:max]
		}
		name = name[:keep] + suffixSep + Suffix(canonicalName)[:hexLen]
	}
	return name
}

// Register normalizes a canonical name and records the result in the
// per-target collision table. The namespace scopes uniqueness (table names
// collide within their schema, field names within their table). Registering
// the same canonical name twice is fine; two different canonical names
// landing on one physical name is a CollisionError.
func (n *Normalizer) Register(namespace, canonicalName string) (string, error) {
	physical := n.Normalize(canonicalName)

	key := namespace + "\x00" + physical
	n.mu.Lock()
	defer n.mu.Unlock()
	if existing, ok := n.emitted[key]; ok && existing != canonicalName {
		return "", &CollisionError{
			PhysicalName:  physical,
			CanonicalName: canonicalName,
			ExistingName:  existing,
		}
	}
	n.emitted[key] = canonicalName
	return physical, nil
}

// Suffix returns the deterministic suffix for a canonical name: the first
// suffixHexLen lowercase hex chars of its SHA-256 digest.
func Suffix(canonicalName string) string {
	sum := sha256.Sum256([]byte(canonicalName))
	return hex.EncodeToString(sum[:])[:suffixHexLen]
}
