// Package metrics compiles canonical metric formulas into platform-specific
// expressions. The formula vocabulary is fixed (aggregations, arithmetic,
// comparisons, IF/DIVIDE/COALESCE, field and metric references); it is not a
// general-purpose expression language. Each target language has its own
// renderer selected by code.
package metrics

import (
	"fmt"
	"strings"
)

// Expr is a node in a parsed metric formula.
type Expr interface {
	// String renders the canonical (platform-neutral) form, used in error
	// messages and dependency reports.
	String() string
}

// FieldRef references table.field in the canonical model.
type FieldRef struct {
	Table string
	Field string
}

func (r *FieldRef) String() string { return r.Table + "." + r.Field }

// MetricRef references another metric by code: [MetricCode].
type MetricRef struct {
	Code string
}

func (r *MetricRef) String() string { return "[" + r.Code + "]" }

// NumberLit is a numeric literal. The raw text is preserved so rendering is
// byte-stable regardless of float formatting.
type NumberLit struct {
	Raw string
}

func (l *NumberLit) String() string { return l.Raw }

// StringLit is a quoted string literal.
type StringLit struct {
	Value string
}

func (l *StringLit) String() string { return fmt.Sprintf("%q", l.Value) }

// AggExpr is an aggregation call: SUM(t.f), COUNTROWS(t).
type AggExpr struct {
	Func string // SUM, COUNT, AVG, MIN, MAX, DISTINCTCOUNT, COUNTROWS
	Arg  Expr   // nil only for COUNTROWS with a bare table ref
}

func (a *AggExpr) String() string {
	if a.Arg == nil {
		return a.Func + "()"
	}
	return a.Func + "(" + a.Arg.String() + ")"
}

// BinaryExpr covers arithmetic and comparison operators.
type BinaryExpr struct {
	Op    string // + - * / % = <> > < >= <=
	Left  Expr
	Right Expr
}

func (b *BinaryExpr) String() string {
	return "(" + b.Left.String() + " " + b.Op + " " + b.Right.String() + ")"
}

// CondExpr is IF(cond, then[, else]).
type CondExpr struct {
	Cond Expr
	Then Expr
	Else Expr // may be nil
}

func (c *CondExpr) String() string {
	if c.Else == nil {
		return "IF(" + c.Cond.String() + ", " + c.Then.String() + ")"
	}
	return "IF(" + c.Cond.String() + ", " + c.Then.String() + ", " + c.Else.String() + ")"
}

// DivideExpr is DIVIDE(num, den[, alternate]) with safe division semantics.
type DivideExpr struct {
	Num Expr
	Den Expr
	Alt Expr // may be nil; defaults to NULL/None per target
}

func (d *DivideExpr) String() string {
	if d.Alt == nil {
		return "DIVIDE(" + d.Num.String() + ", " + d.Den.String() + ")"
	}
	return "DIVIDE(" + d.Num.String() + ", " + d.Den.String() + ", " + d.Alt.String() + ")"
}

// CoalesceExpr is COALESCE(a, b, ...).
type CoalesceExpr struct {
	Args []Expr
}

func (c *CoalesceExpr) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return "COALESCE(" + strings.Join(parts, ", ") + ")"
}

// Dependencies returns the metric codes an expression references, in first-
// appearance order without duplicates.
func Dependencies(e Expr) []string {
	var out []string
	seen := make(map[string]bool)

	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *MetricRef:
			if !seen[n.Code] {
				seen[n.Code] = true
				out = append(out, n.Code)
			}
		case *AggExpr:
			if n.Arg != nil {
				walk(n.Arg)
			}
		case *BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		case *CondExpr:
			walk(n.Cond)
			walk(n.Then)
			if n.Else != nil {
				walk(n.Else)
			}
		case *DivideExpr:
			walk(n.Num)
			walk(n.Den)
			if n.Alt != nil {
				walk(n.Alt)
			}
		case *CoalesceExpr:
			for _, a := range n.Args {
				walk(a)
			}
		}
	}
	if e != nil {
		walk(e)
	}
	return out
}
