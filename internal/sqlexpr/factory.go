package sqlexpr

import (
	"fmt"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
)

// Normalizer rewrites a freshly built function into its canonical form.
// It must be a pure function of the provider tree and return fn itself when
// no rewrite applies.
type Normalizer func(fn *Function) *Function

// Factory constructs provider expressions for one dialect.
//
// Thread-safety: a Factory is immutable after NewFactory and safe for
// concurrent use.
type Factory struct {
	mappings    TypeMappingSource
	normalizers []Normalizer
}

// NewFactory creates a factory over a dialect's type mappings and
// normalizers. Normalizers run in order on every function built.
func NewFactory(mappings TypeMappingSource, normalizers ...Normalizer) *Factory {
	return &Factory{
		mappings:    mappings,
		normalizers: normalizers,
	}
}

// FindMapping returns the dialect mapping for t, or nil.
func (f *Factory) FindMapping(t expr.Type) *TypeMapping {
	if f.mappings == nil {
		return nil
	}
	return f.mappings.FindMapping(t)
}

// Constant builds a literal of declared type t with the inferred mapping.
func (f *Factory) Constant(value ir.IRValue, t expr.Type) *Constant {
	mustType(t, "constant")
	return &Constant{Value: value, Typ: t, Mapping: f.FindMapping(t)}
}

// Literal builds a literal carrying an explicit mapping. The declared type
// is the mapping's type.
func (f *Factory) Literal(value ir.IRValue, mapping *TypeMapping) *Constant {
	if mapping == nil {
		panic("sqlexpr: Literal requires a type mapping")
	}
	mustType(mapping.Type, "literal")
	return &Constant{Value: value, Typ: mapping.Type, Mapping: mapping}
}

// Column builds a column reference.
func (f *Factory) Column(table, name string, t expr.Type, nullable bool) *Column {
	mustType(t, "column "+name)
	return &Column{Table: table, Name: name, Typ: t, Mapping: f.FindMapping(t), Nullable: nullable}
}

// Function builds NAME(args). A nil mapping is inferred from returnType.
func (f *Factory) Function(name string, args []Expr, returnType expr.Type, mapping *TypeMapping) Expr {
	return f.function(nil, name, args, false, returnType, mapping)
}

// InstanceFunction builds instance.NAME(args).
func (f *Factory) InstanceFunction(instance Expr, name string, args []Expr, returnType expr.Type, mapping *TypeMapping) Expr {
	return f.function(instance, name, args, false, returnType, mapping)
}

// NiladicFunction builds a function rendered without parentheses.
func (f *Factory) NiladicFunction(name string, returnType expr.Type, mapping *TypeMapping) Expr {
	return f.function(nil, name, nil, true, returnType, mapping)
}

func (f *Factory) function(instance Expr, name string, args []Expr, niladic bool, returnType expr.Type, mapping *TypeMapping) Expr {
	mustType(returnType, "function "+name)
	if mapping == nil {
		mapping = f.FindMapping(returnType)
	}
	fn := &Function{
		Instance: instance,
		Name:     name,
		Args:     args,
		Niladic:  niladic,
		Typ:      returnType,
		Mapping:  mapping,
	}
	for _, normalize := range f.normalizers {
		fn = normalize(fn)
	}
	return fn
}

// Binary builds left OP right. Comparisons and logical operators yield
// bool; arithmetic yields the left operand's type. The mapping of one side
// is inferred onto constants on the other side.
func (f *Factory) Binary(op BinaryOp, left, right Expr) *Binary {
	inferred := inferMapping(left, right)
	if inferred != nil && !op.IsLogical() {
		left = f.ApplyTypeMapping(left, inferred)
		right = f.ApplyTypeMapping(right, inferred)
	}

	resultType := left.Type()
	resultMapping := inferred
	if op.IsComparison() || op.IsLogical() {
		resultType = expr.BoolType
		resultMapping = f.FindMapping(expr.BoolType)
	}
	mustType(resultType, "binary")
	return &Binary{Op: op, Left: left, Right: right, Typ: resultType, Mapping: resultMapping}
}

// Unary builds OP operand with the given result type. IS NULL tests and NOT
// yield bool regardless of t.
func (f *Factory) Unary(op UnaryOp, operand Expr, t expr.Type) *Unary {
	switch op {
	case OpNot, OpIsNull, OpIsNotNull:
		t = expr.BoolType
	}
	mustType(t, "unary")
	return &Unary{Op: op, Operand: operand, Typ: t, Mapping: f.FindMapping(t)}
}

// Case builds a searched CASE. The result type is taken from the first arm.
func (f *Factory) Case(whens []CaseWhen, elseResult Expr) *Case {
	if len(whens) == 0 {
		panic("sqlexpr: Case requires at least one WHEN arm")
	}
	t := whens[0].Result.Type()
	mustType(t, "case")
	mapping := whens[0].Result.TypeMapping()
	if mapping == nil && elseResult != nil {
		mapping = elseResult.TypeMapping()
	}
	return &Case{Whens: whens, Else: elseResult, Typ: t, Mapping: mapping}
}

// ApplyTypeMapping returns e carrying mapping. Only constants adopt a
// foreign mapping; every other node keeps its own.
func (f *Factory) ApplyTypeMapping(e Expr, mapping *TypeMapping) Expr {
	c, ok := e.(*Constant)
	if !ok || mapping == nil || sameMapping(c.Mapping, mapping) {
		return e
	}
	return &Constant{Value: c.Value, Typ: c.Typ, Mapping: mapping}
}

// inferMapping prefers the mapping of a non-constant operand, so a literal
// compared with a column is formatted the way the column is stored.
func inferMapping(left, right Expr) *TypeMapping {
	if _, ok := left.(*Constant); !ok && left.TypeMapping() != nil {
		return left.TypeMapping()
	}
	if _, ok := right.(*Constant); !ok && right.TypeMapping() != nil {
		return right.TypeMapping()
	}
	if left.TypeMapping() != nil {
		return left.TypeMapping()
	}
	return right.TypeMapping()
}

func mustType(t expr.Type, what string) {
	if t.IsZero() {
		panic(fmt.Sprintf("sqlexpr: %s built without a declared type", what))
	}
}
