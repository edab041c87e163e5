package formula

import (
	"fmt"
	"math"
)

// Lookup resolves a column reference to its current numeric value.
// Returning false means the reference is missing or non-numeric; evaluation
// treats it as zero.
type Lookup func(name string) (float64, bool)

// Expr is a node of the compiled formula AST.
type Expr interface {
	exprNode()
	// Eval computes the node's value against the given lookup.
	Eval(vars Lookup) float64
	String() string
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
}

func (*NumberLit) exprNode() {}

func (n *NumberLit) Eval(Lookup) float64 { return n.Value }

func (n *NumberLit) String() string { return trimFloat(n.Value) }

// ColumnRef references a sibling column by name.
type ColumnRef struct {
	Name string
}

func (*ColumnRef) exprNode() {}

// Eval resolves the reference; missing or non-numeric values are zero.
func (c *ColumnRef) Eval(vars Lookup) float64 {
	v, ok := vars(c.Name)
	if !ok {
		return 0
	}
	return v
}

func (c *ColumnRef) String() string { return c.Name }

// UnaryExpr is a negation.
type UnaryExpr struct {
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

func (u *UnaryExpr) Eval(vars Lookup) float64 { return -u.Operand.Eval(vars) }

func (u *UnaryExpr) String() string { return "-" + u.Operand.String() }

// BinaryOp is an arithmetic operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

// BinaryExpr combines two operands with an operator.
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// Eval applies the operator. Division by zero yields zero rather than an
// infinity so that a half-typed divisor never poisons the cell.
func (b *BinaryExpr) Eval(vars Lookup) float64 {
	l := b.Left.Eval(vars)
	r := b.Right.Eval(vars)
	switch b.Op {
	case OpAdd:
		return l + r
	case OpSub:
		return l - r
	case OpMul:
		return l * r
	case OpDiv:
		if r == 0 {
			return 0
		}
		return l / r
	default:
		return 0
	}
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
