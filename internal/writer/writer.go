// Package writer persists emitted artifacts. Output is staged into a
// temporary directory and moved into place with a single rename, so a
// half-written target directory is never observable. Every target directory
// carries a manifest.json fingerprinting its files.
package writer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ozmeta-labs/ozmeta/pkg/emitter"
)

// ManifestName is the fingerprint file written at the root of every target
// output directory.
const ManifestName = "manifest.json"

// Manifest fingerprints one target's emitted artifacts.
type Manifest struct {
	Target   string          `json:"target"`
	Platform string          `json:"platform"`
	Files    []ManifestEntry `json:"files"`
}

// ManifestEntry is one artifact's fingerprint. Entries are sorted by path so
// the manifest bytes are stable across runs.
type ManifestEntry struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Writer stages artifact trees under a root output directory.
type Writer struct {
	root string
}

// New returns a writer rooted at dir.
func New(root string) *Writer {
	return &Writer{root: root}
}

// Write persists one emitter result under root/<targetName>. The previous
// contents of the target directory, if any, are replaced atomically.
func (w *Writer) Write(targetName string, res *emitter.Result) (*Manifest, error) {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}

	staging, err := os.MkdirTemp(w.root, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	manifest := &Manifest{Target: targetName, Platform: res.PlatformCode}
	for _, a := range res.Artifacts {
		dst := filepath.Join(staging, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, fmt.Errorf("staging %s: %w", a.Path, err)
		}
		if err := os.WriteFile(dst, a.Content, 0o644); err != nil {
			return nil, fmt.Errorf("staging %s: %w", a.Path, err)
		}
		sum := sha256.Sum256(a.Content)
		manifest.Files = append(manifest.Files, ManifestEntry{
			Path:   a.Path,
			SHA256: hex.EncodeToString(sum[:]),
			Size:   int64(len(a.Content)),
		})
	}
	sort.Slice(manifest.Files, func(i, j int) bool {
		return manifest.Files[i].Path < manifest.Files[j].Path
	})

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(staging, ManifestName), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	final := filepath.Join(w.root, targetName)
	if err := os.RemoveAll(final); err != nil {
		return nil, fmt.Errorf("clearing %s: %w", final, err)
	}
	if err := os.Rename(staging, final); err != nil {
		return nil, fmt.Errorf("promoting %s: %w", final, err)
	}
	return manifest, nil
}

// Verify recomputes the fingerprints in dir's manifest and reports every file
// that is missing or whose content no longer matches. Extra files are not an
// error; the manifest binds only what was emitted.
func Verify(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	var bad []string
	for _, f := range m.Files {
		content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f.Path)))
		if err != nil {
			bad = append(bad, f.Path+": missing")
			continue
		}
		sum := sha256.Sum256(content)
		if hex.EncodeToString(sum[:]) != f.SHA256 {
			bad = append(bad, f.Path+": modified")
		}
	}
	return bad, nil
}
