package metrics

import (
	"fmt"
	"sort"
	"strings"
)

// Compiled is the per-target rendering of one metric.
type Compiled struct {
	Code       string   `json:"code"`
	Formula    string   `json:"formula"`
	Target     string   `json:"target"`
	Expression string   `json:"expression"`
	DependsOn  []string `json:"dependsOn,omitempty"`
}

// Renderer turns a parsed formula into one target language.
type Renderer interface {
	Name() string
	Render(e Expr) (string, error)
}

// renderers is the fixed set of target languages. Keyed lower-case.
var renderers = map[string]Renderer{
	"tsql":   sqlRenderer{name: "tsql"},
	"spark":  sqlRenderer{name: "spark"},
	"dax":    daxRenderer{},
	"python": pythonRenderer{},
}

// Targets lists the supported target languages, sorted.
func Targets() []string {
	out := make([]string, 0, len(renderers))
	for name := range renderers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Compile parses a formula and renders it for the given target.
func Compile(code, formula, target string) (*Compiled, error) {
	r, ok := renderers[strings.ToLower(target)]
	if !ok {
		return nil, fmt.Errorf("metric %s: unknown target language %q (supported: %s)",
			code, target, strings.Join(Targets(), ", "))
	}
	expr, err := Parse(formula)
	if err != nil {
		return nil, fmt.Errorf("metric %s: %w", code, err)
	}
	rendered, err := r.Render(expr)
	if err != nil {
		return nil, fmt.Errorf("metric %s: %w", code, err)
	}
	return &Compiled{
		Code:       code,
		Formula:    formula,
		Target:     r.Name(),
		Expression: rendered,
		DependsOn:  Dependencies(expr),
	}, nil
}

// sqlRenderer covers the SQL-family targets; tsql and spark differ only in a
// few function spellings.
type sqlRenderer struct {
	name string
}

func (r sqlRenderer) Name() string { return r.name }

func (r sqlRenderer) Render(e Expr) (string, error) {
	switch n := e.(type) {
	case *FieldRef:
		if r.name == "tsql" {
			return fmt.Sprintf("[%s].[%s]", n.Table, n.Field), nil
		}
		return n.Table + "." + n.Field, nil
	case *MetricRef:
		// Metric-on-metric references render as the dependent metric's
		// placeholder; the semantic layer resolves them at materialization.
		return "{{" + n.Code + "}}", nil
	case *NumberLit:
		return n.Raw, nil
	case *StringLit:
		return "'" + strings.ReplaceAll(n.Value, "'", "''") + "'", nil
	case *AggExpr:
		return r.renderAgg(n)
	case *BinaryExpr:
		left, err := r.Render(n.Left)
		if err != nil {
			return "", err
		}
		right, err := r.Render(n.Right)
		if err != nil {
			return "", err
		}
		return "(" + left + " " + n.Op + " " + right + ")", nil
	case *CondExpr:
		return r.renderCond(n)
	case *DivideExpr:
		return r.renderDivide(n)
	case *CoalesceExpr:
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			s, err := r.Render(a)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "COALESCE(" + strings.Join(parts, ", ") + ")", nil
	}
	return "", fmt.Errorf("unsupported expression %T", e)
}

func (r sqlRenderer) renderAgg(a *AggExpr) (string, error) {
	if a.Func == "COUNTROWS" {
		return "COUNT(*)", nil
	}
	inner, err := r.Render(a.Arg)
	if err != nil {
		return "", err
	}
	if a.Func == "DISTINCTCOUNT" {
		return "COUNT(DISTINCT " + inner + ")", nil
	}
	return a.Func + "(" + inner + ")", nil
}

func (r sqlRenderer) renderCond(c *CondExpr) (string, error) {
	cond, err := r.Render(c.Cond)
	if err != nil {
		return "", err
	}
	then, err := r.Render(c.Then)
	if err != nil {
		return "", err
	}
	els := "NULL"
	if c.Else != nil {
		if els, err = r.Render(c.Else); err != nil {
			return "", err
		}
	}
	return "CASE WHEN " + cond + " THEN " + then + " ELSE " + els + " END", nil
}

func (r sqlRenderer) renderDivide(d *DivideExpr) (string, error) {
	num, err := r.Render(d.Num)
	if err != nil {
		return "", err
	}
	den, err := r.Render(d.Den)
	if err != nil {
		return "", err
	}
	alt := "NULL"
	if d.Alt != nil {
		if alt, err = r.Render(d.Alt); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("CASE WHEN %s = 0 THEN %s ELSE %s / %s END", den, alt, num, den), nil
}

// daxRenderer targets Power BI semantic models.
type daxRenderer struct{}

func (daxRenderer) Name() string { return "dax" }

func (r daxRenderer) Render(e Expr) (string, error) {
	switch n := e.(type) {
	case *FieldRef:
		return fmt.Sprintf("'%s'[%s]", n.Table, n.Field), nil
	case *MetricRef:
		return "[" + n.Code + "]", nil
	case *NumberLit:
		return n.Raw, nil
	case *StringLit:
		return `"` + n.Value + `"`, nil
	case *AggExpr:
		if n.Func == "COUNTROWS" {
			return "COUNTROWS()", nil
		}
		inner, err := r.Render(n.Arg)
		if err != nil {
			return "", err
		}
		fn := n.Func
		if fn == "AVG" {
			fn = "AVERAGE"
		}
		return fn + "(" + inner + ")", nil
	case *BinaryExpr:
		left, err := r.Render(n.Left)
		if err != nil {
			return "", err
		}
		right, err := r.Render(n.Right)
		if err != nil {
			return "", err
		}
		return "(" + left + " " + n.Op + " " + right + ")", nil
	case *CondExpr:
		cond, err := r.Render(n.Cond)
		if err != nil {
			return "", err
		}
		then, err := r.Render(n.Then)
		if err != nil {
			return "", err
		}
		if n.Else == nil {
			return "IF(" + cond + ", " + then + ")", nil
		}
		els, err := r.Render(n.Else)
		if err != nil {
			return "", err
		}
		return "IF(" + cond + ", " + then + ", " + els + ")", nil
	case *DivideExpr:
		num, err := r.Render(n.Num)
		if err != nil {
			return "", err
		}
		den, err := r.Render(n.Den)
		if err != nil {
			return "", err
		}
		if n.Alt == nil {
			return "DIVIDE(" + num + ", " + den + ")", nil
		}
		alt, err := r.Render(n.Alt)
		if err != nil {
			return "", err
		}
		return "DIVIDE(" + num + ", " + den + ", " + alt + ")", nil
	case *CoalesceExpr:
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			s, err := r.Render(a)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "COALESCE(" + strings.Join(parts, ", ") + ")", nil
	}
	return "", fmt.Errorf("unsupported expression %T", e)
}

// pythonRenderer targets pandas-style expressions for notebook pipelines.
type pythonRenderer struct{}

func (pythonRenderer) Name() string { return "python" }

func (r pythonRenderer) Render(e Expr) (string, error) {
	switch n := e.(type) {
	case *FieldRef:
		return fmt.Sprintf("df[%q]", n.Table+"."+n.Field), nil
	case *MetricRef:
		return fmt.Sprintf("metrics[%q]", n.Code), nil
	case *NumberLit:
		return n.Raw, nil
	case *StringLit:
		return fmt.Sprintf("%q", n.Value), nil
	case *AggExpr:
		if n.Func == "COUNTROWS" {
			return "len(df)", nil
		}
		inner, err := r.Render(n.Arg)
		if err != nil {
			return "", err
		}
		switch n.Func {
		case "SUM":
			return inner + ".sum()", nil
		case "COUNT":
			return inner + ".count()", nil
		case "AVG":
			return inner + ".mean()", nil
		case "MIN":
			return inner + ".min()", nil
		case "MAX":
			return inner + ".max()", nil
		case "DISTINCTCOUNT":
			return inner + ".nunique()", nil
		}
		return "", fmt.Errorf("unsupported aggregation %s", n.Func)
	case *BinaryExpr:
		left, err := r.Render(n.Left)
		if err != nil {
			return "", err
		}
		right, err := r.Render(n.Right)
		if err != nil {
			return "", err
		}
		op := n.Op
		switch op {
		case "=":
			op = "=="
		case "<>":
			op = "!="
		}
		return "(" + left + " " + op + " " + right + ")", nil
	case *CondExpr:
		cond, err := r.Render(n.Cond)
		if err != nil {
			return "", err
		}
		then, err := r.Render(n.Then)
		if err != nil {
			return "", err
		}
		els := "None"
		if n.Else != nil {
			if els, err = r.Render(n.Else); err != nil {
				return "", err
			}
		}
		return "(" + then + " if " + cond + " else " + els + ")", nil
	case *DivideExpr:
		num, err := r.Render(n.Num)
		if err != nil {
			return "", err
		}
		den, err := r.Render(n.Den)
		if err != nil {
			return "", err
		}
		alt := "None"
		if n.Alt != nil {
			if alt, err = r.Render(n.Alt); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("(%s / %s if %s != 0 else %s)", num, den, den, alt), nil
	case *CoalesceExpr:
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			s, err := r.Render(a)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "next(v for v in [" + strings.Join(parts, ", ") + "] if v is not None)", nil
	}
	return "", fmt.Errorf("unsupported expression %T", e)
}
