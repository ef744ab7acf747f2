package snapshot

import (
	"fmt"
	"strings"
)

// Violation is a single structural problem found during validation.
type Violation struct {
	// Area is the objects key the violation was found under (model, jobs, ...).
	Area string
	// Path points at the offending element, e.g. "tables[TR].fields[TR_ID]".
	Path string
	// Message describes the problem.
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return fmt.Sprintf("%s: %s", v.Area, v.Message)
	}
	return fmt.Sprintf("%s: %s: %s", v.Area, v.Path, v.Message)
}

// InvalidError reports every violation found in a snapshot. Validation is
// batched: all violations are collected before failing, so one round-trip
// surfaces the complete picture.
type InvalidError struct {
	Violations []Violation
}

func (e *InvalidError) Error() string {
	if len(e.Violations) == 1 {
		return "snapshot invalid: " + e.Violations[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "snapshot invalid: %d violations:", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.String())
	}
	return b.String()
}
