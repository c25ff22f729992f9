package sqlexpr

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
)

// LiteralFormat selects how a constant is rendered in query text.
type LiteralFormat int

const (
	LiteralText LiteralFormat = iota
	LiteralInteger
	LiteralBool
	LiteralDecimal
	LiteralDateTime
	LiteralBytes
)

// TypeMapping ties a declared type to a store type.
type TypeMapping struct {
	StoreType string
	Type      expr.Type
	Literal   LiteralFormat
}

// TypeMappingSource finds the store mapping for a declared type.
// Returns nil when the type has no store representation.
type TypeMappingSource interface {
	FindMapping(t expr.Type) *TypeMapping
}

// Expr is a provider expression node.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	Type() expr.Type
	TypeMapping() *TypeMapping
	sqlNode()
}

// Column references a column of a table in the query source.
type Column struct {
	Table    string // table alias
	Name     string
	Typ      expr.Type
	Mapping  *TypeMapping
	Nullable bool
}

func (c *Column) Type() expr.Type           { return c.Typ }
func (c *Column) TypeMapping() *TypeMapping { return c.Mapping }
func (*Column) sqlNode()                    {}

// Constant is a literal. Value ir.IRNull is the SQL NULL literal.
type Constant struct {
	Value   ir.IRValue
	Typ     expr.Type
	Mapping *TypeMapping
}

func (c *Constant) Type() expr.Type           { return c.Typ }
func (c *Constant) TypeMapping() *TypeMapping { return c.Mapping }
func (*Constant) sqlNode()                    {}

// Function is a store function call. Instance is set for method-style calls
// (instance.NAME(args)); Niladic functions render without parentheses.
type Function struct {
	Instance Expr
	Name     string
	Args     []Expr
	Niladic  bool
	Typ      expr.Type
	Mapping  *TypeMapping
}

func (f *Function) Type() expr.Type           { return f.Typ }
func (f *Function) TypeMapping() *TypeMapping { return f.Mapping }
func (*Function) sqlNode()                    {}

// BinaryOp is a store binary operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpAnd
	OpOr
	OpConcat
)

// IsComparison reports whether op yields a boolean from two values.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEqual && op <= OpGreaterThanOrEqual
}

// IsLogical reports whether op combines two booleans.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// Binary applies a binary operator.
type Binary struct {
	Op      BinaryOp
	Left    Expr
	Right   Expr
	Typ     expr.Type
	Mapping *TypeMapping
}

func (b *Binary) Type() expr.Type           { return b.Typ }
func (b *Binary) TypeMapping() *TypeMapping { return b.Mapping }
func (*Binary) sqlNode()                    {}

// UnaryOp is a store unary operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
	OpIsNull
	OpIsNotNull
	OpCast
)

// Unary applies a unary operator. OpCast converts Operand to Mapping's
// store type.
type Unary struct {
	Op      UnaryOp
	Operand Expr
	Typ     expr.Type
	Mapping *TypeMapping
}

func (u *Unary) Type() expr.Type           { return u.Typ }
func (u *Unary) TypeMapping() *TypeMapping { return u.Mapping }
func (*Unary) sqlNode()                    {}

// CaseWhen is one WHEN Test THEN Result arm.
type CaseWhen struct {
	Test   Expr
	Result Expr
}

// Case is a searched CASE expression. Else may be nil.
type Case struct {
	Whens   []CaseWhen
	Else    Expr
	Typ     expr.Type
	Mapping *TypeMapping
}

func (c *Case) Type() expr.Type           { return c.Typ }
func (c *Case) TypeMapping() *TypeMapping { return c.Mapping }
func (*Case) sqlNode()                    {}
