package metrics

import (
	"fmt"
	"strings"
	"unicode"
)

var aggFuncs = map[string]bool{
	"SUM": true, "COUNT": true, "AVG": true, "MIN": true, "MAX": true,
	"DISTINCTCOUNT": true, "COUNTROWS": true,
}

// ParseError reports a formula that does not parse. It carries the position
// to make hand-written formulas debuggable.
type ParseError struct {
	Formula string
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("metric formula parse error at %d: %s (in %q)", e.Pos, e.Message, e.Formula)
}

// Parse parses a metric formula into an expression tree.
func Parse(formula string) (Expr, error) {
	p := &parser{src: formula}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errf("unexpected trailing input %q", p.src[p.pos:])
	}
	return expr, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errf(format string, args ...any) error {
	return &ParseError{Formula: p.src, Pos: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) accept(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

// parseExpr handles comparison, the lowest-precedence tier.
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	for _, op := range []string{"<>", ">=", "<=", "=", ">", "<"} {
		if p.accept(op) {
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &BinaryExpr{Op: op, Left: left, Right: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		var op string
		switch p.peek() {
		case '+':
			op = "+"
		case '-':
			op = "-"
		default:
			return left, nil
		}
		p.pos++
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		var op string
		switch p.peek() {
		case '*':
			op = "*"
		case '/':
			op = "/"
		case '%':
			op = "%"
		default:
			return left, nil
		}
		p.pos++
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errf("unexpected end of formula")
	}

	switch c := p.src[p.pos]; {
	case c == '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.accept(")") {
			return nil, p.errf("missing closing parenthesis")
		}
		return inner, nil

	case c == '[':
		return p.parseMetricRef()

	case c == '"' || c == '\'':
		return p.parseString(c)

	case c >= '0' && c <= '9':
		return p.parseNumber()

	case isIdentStart(c):
		return p.parseIdentOrCall()
	}
	return nil, p.errf("unexpected character %q", string(p.src[p.pos]))
}

func (p *parser) parseMetricRef() (Expr, error) {
	start := p.pos
	p.pos++ // consume [
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		p.pos = start
		return nil, p.errf("unterminated metric reference")
	}
	code := p.src[p.pos : p.pos+end]
	p.pos += end + 1
	if code == "" {
		return nil, p.errf("empty metric reference")
	}
	return &MetricRef{Code: code}, nil
}

func (p *parser) parseString(quote byte) (Expr, error) {
	p.pos++ // consume opening quote
	end := strings.IndexByte(p.src[p.pos:], quote)
	if end < 0 {
		return nil, p.errf("unterminated string literal")
	}
	val := p.src[p.pos : p.pos+end]
	p.pos += end + 1
	return &StringLit{Value: val}, nil
}

func (p *parser) parseNumber() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
	}
	return &NumberLit{Raw: p.src[start:p.pos]}, nil
}

func (p *parser) parseIdentOrCall() (Expr, error) {
	ident := p.readIdent()

	p.skipSpace()
	if p.peek() != '(' {
		// Bare identifier: must be a table.field reference.
		return p.fieldRefFrom(ident)
	}
	p.pos++ // consume (

	upper := strings.ToUpper(ident)
	switch {
	case aggFuncs[upper]:
		return p.finishAgg(upper)
	case upper == "IF":
		return p.finishIf()
	case upper == "DIVIDE":
		return p.finishDivide()
	case upper == "COALESCE":
		return p.finishCoalesce()
	}
	return nil, p.errf("unknown function %q", ident)
}

func (p *parser) fieldRefFrom(ident string) (Expr, error) {
	parts := strings.Split(ident, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, p.errf("expected table.field reference, got %q", ident)
	}
	return &FieldRef{Table: parts[0], Field: parts[1]}, nil
}

func (p *parser) readIdent() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isIdentStart(c) || isDigit(c) || c == '.' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *parser) finishAgg(fn string) (Expr, error) {
	if p.accept(")") {
		if fn == "COUNTROWS" {
			return &AggExpr{Func: fn}, nil
		}
		return nil, p.errf("%s requires an argument", fn)
	}
	arg, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.accept(")") {
		return nil, p.errf("missing closing parenthesis in %s", fn)
	}
	return &AggExpr{Func: fn, Arg: arg}, nil
}

func (p *parser) finishIf() (Expr, error) {
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.accept(",") {
		return nil, p.errf("IF requires at least a condition and a then-branch")
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var els Expr
	if p.accept(",") {
		if els, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if !p.accept(")") {
		return nil, p.errf("missing closing parenthesis in IF")
	}
	return &CondExpr{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) finishDivide() (Expr, error) {
	num, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.accept(",") {
		return nil, p.errf("DIVIDE requires a numerator and denominator")
	}
	den, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var alt Expr
	if p.accept(",") {
		if alt, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if !p.accept(")") {
		return nil, p.errf("missing closing parenthesis in DIVIDE")
	}
	return &DivideExpr{Num: num, Den: den, Alt: alt}, nil
}

func (p *parser) finishCoalesce() (Expr, error) {
	var args []Expr
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.accept(",") {
			continue
		}
		break
	}
	if !p.accept(")") {
		return nil, p.errf("missing closing parenthesis in COALESCE")
	}
	if len(args) < 2 {
		return nil, p.errf("COALESCE requires at least two arguments")
	}
	return &CoalesceExpr{Args: args}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
