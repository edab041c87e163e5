package formula

import (
	"fmt"
	"math"
	"strconv"
)

// ParseError reports a formula that could not be compiled.
type ParseError struct {
	Formula string
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("formula %q: %s at position %d", e.Formula, e.Message, e.Pos)
}

// Compiled is a formula compiled to an AST, ready for repeated evaluation.
type Compiled struct {
	Source string
	root   Expr
}

// Refs returns the distinct column names the formula references, in first
// appearance order.
func (c *Compiled) Refs() []string {
	var refs []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *ColumnRef:
			if !seen[n.Name] {
				seen[n.Name] = true
				refs = append(refs, n.Name)
			}
		case *UnaryExpr:
			walk(n.Operand)
		case *BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(c.root)
	return refs
}

// Eval evaluates the formula against the lookup. NaN and infinities are
// normalized to zero so a malformed input never propagates past the cell.
func (c *Compiled) Eval(vars Lookup) float64 {
	v := c.root.Eval(vars)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Compile parses a formula into an evaluable AST.
//
// Grammar (standard precedence, left associative):
//
//	expr    = term { ("+" | "-") term }
//	term    = factor { ("*" | "/") factor }
//	factor  = NUMBER | IDENT | "-" factor | "(" expr ")"
func Compile(src string) (*Compiled, error) {
	p := &parser{formula: src, lex: NewLexer(src)}
	p.advance()

	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TokenEOF {
		return nil, p.errorf("unexpected %q", p.cur.Literal)
	}
	return &Compiled{Source: src, root: root}, nil
}

type parser struct {
	formula string
	lex     *Lexer
	cur     Token
}

func (p *parser) advance() {
	p.cur = p.lex.Next()
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{
		Formula: p.formula,
		Pos:     p.cur.Pos,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenPlus || p.cur.Type == TokenMinus {
		op := OpAdd
		if p.cur.Type == TokenMinus {
			op = OpSub
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenStar || p.cur.Type == TokenSlash {
		op := OpMul
		if p.cur.Type == TokenSlash {
			op = OpDiv
		}
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (Expr, error) {
	switch p.cur.Type {
	case TokenNumber:
		v, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", p.cur.Literal)
		}
		p.advance()
		return &NumberLit{Value: v}, nil

	case TokenIdent:
		name := p.cur.Literal
		p.advance()
		return &ColumnRef{Name: name}, nil

	case TokenMinus:
		p.advance()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Operand: operand}, nil

	case TokenLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != TokenRParen {
			return nil, p.errorf("expected ')'")
		}
		p.advance()
		return inner, nil

	case TokenEOF:
		return nil, p.errorf("unexpected end of formula")

	default:
		return nil, p.errorf("unexpected %q", p.cur.Literal)
	}
}
