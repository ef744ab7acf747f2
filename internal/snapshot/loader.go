package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads and parses a snapshot document from disk. Parse failures are
// returned as-is (file errors map to their own exit code at the CLI); the
// document is not validated here.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a snapshot document from raw JSON. Malformed JSON is invalid
// input like any failed validation, so it is reported as an InvalidError.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &InvalidError{Violations: []Violation{
			{Area: "document", Message: fmt.Sprintf("not valid snapshot JSON: %v", err)},
		}}
	}
	return &doc, nil
}
