package sqlexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
)

var (
	textMapping = &TypeMapping{StoreType: "TEXT", Type: expr.StringType, Literal: LiteralText}
	intMapping  = &TypeMapping{StoreType: "INTEGER", Type: expr.IntType, Literal: LiteralInteger}
	boolMapping = &TypeMapping{StoreType: "INTEGER", Type: expr.BoolType, Literal: LiteralBool}
	ansiMapping = &TypeMapping{StoreType: "varchar(20)", Type: expr.StringType, Literal: LiteralText}
)

type mappingTable map[expr.Type]*TypeMapping

func (m mappingTable) FindMapping(t expr.Type) *TypeMapping { return m[t] }

func testMappings() mappingTable {
	return mappingTable{
		expr.StringType: textMapping,
		expr.IntType:    intMapping,
		expr.BoolType:   boolMapping,
	}
}

func TestFactory_InfersMappings(t *testing.T) {
	f := NewFactory(testMappings())

	c := f.Constant(ir.IRString("A"), expr.StringType)
	assert.Same(t, textMapping, c.Mapping)

	col := f.Column("c", "Name", expr.StringType, true)
	assert.Same(t, textMapping, col.Mapping)
	assert.True(t, col.Nullable)

	unmapped := f.Constant(ir.IRString("x"), expr.Scalar("geometry"))
	assert.Nil(t, unmapped.Mapping)
	assert.Nil(t, NewFactory(nil).FindMapping(expr.StringType))
}

func TestFactory_Literal(t *testing.T) {
	f := NewFactory(testMappings())

	lit := f.Literal(ir.IRString("A"), ansiMapping)
	assert.Equal(t, expr.StringType, lit.Type())
	assert.Same(t, ansiMapping, lit.Mapping)

	assert.Panics(t, func() { f.Literal(ir.IRString("A"), nil) })
}

func TestFactory_RequiresDeclaredType(t *testing.T) {
	f := NewFactory(testMappings())

	tests := []struct {
		name  string
		build func()
	}{
		{"constant", func() { f.Constant(ir.IRInt(1), expr.Type{}) }},
		{"column", func() { f.Column("c", "Id", expr.Type{}, false) }},
		{"function", func() { f.Function("LEN", nil, expr.Type{}, nil) }},
		{"unary", func() { f.Unary(OpNegate, f.Constant(ir.IRInt(1), expr.IntType), expr.Type{}) }},
		{"case without arms", func() { f.Case(nil, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, tt.build)
		})
	}
}

func TestFactory_BinaryPropagatesColumnMapping(t *testing.T) {
	f := NewFactory(testMappings())
	col := &Column{Table: "c", Name: "Code", Typ: expr.StringType, Mapping: ansiMapping}
	lit := f.Constant(ir.IRString("A"), expr.StringType)

	b := f.Binary(OpEqual, col, lit)

	assert.Equal(t, expr.BoolType, b.Type())
	assert.Same(t, boolMapping, b.Mapping)
	right, ok := b.Right.(*Constant)
	require.True(t, ok)
	assert.Same(t, ansiMapping, right.Mapping, "literal adopts the column's mapping")
	assert.Same(t, textMapping, lit.Mapping, "original constant is not mutated")

	// Operand order does not matter.
	flipped := f.Binary(OpEqual, lit, col)
	left, ok := flipped.Left.(*Constant)
	require.True(t, ok)
	assert.Same(t, ansiMapping, left.Mapping)
}

func TestFactory_BinaryResultTypes(t *testing.T) {
	f := NewFactory(testMappings())
	one := f.Constant(ir.IRInt(1), expr.IntType)
	yes := f.Constant(ir.IRBool(true), expr.BoolType)
	name := f.Column("c", "Name", expr.StringType, false)

	tests := []struct {
		name string
		op   BinaryOp
		l, r Expr
		want expr.Type
	}{
		{"arithmetic keeps left type", OpAdd, one, one, expr.IntType},
		{"concat keeps text", OpConcat, name, name, expr.StringType},
		{"comparison yields bool", OpLessThan, one, one, expr.BoolType},
		{"logical yields bool", OpAnd, yes, yes, expr.BoolType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Binary(tt.op, tt.l, tt.r).Type())
		})
	}
}

func TestFactory_UnaryBooleanOperators(t *testing.T) {
	f := NewFactory(testMappings())
	name := f.Column("c", "Name", expr.StringType, true)

	for _, op := range []UnaryOp{OpNot, OpIsNull, OpIsNotNull} {
		u := f.Unary(op, name, expr.StringType)
		assert.Equal(t, expr.BoolType, u.Type())
		assert.Same(t, boolMapping, u.Mapping)
	}

	neg := f.Unary(OpNegate, f.Constant(ir.IRInt(1), expr.IntType), expr.IntType)
	assert.Equal(t, expr.IntType, neg.Type())
}

func TestFactory_Case(t *testing.T) {
	f := NewFactory(testMappings())
	test := f.Unary(OpIsNull, f.Column("c", "Name", expr.StringType, true), expr.BoolType)

	c := f.Case([]CaseWhen{{Test: test, Result: f.Constant(ir.IRString("none"), expr.StringType)}}, nil)
	assert.Equal(t, expr.StringType, c.Type())
	assert.Same(t, textMapping, c.Mapping)

	untyped := &Constant{Value: ir.IRString("x"), Typ: expr.StringType}
	withElse := f.Case([]CaseWhen{{Test: test, Result: untyped}}, f.Column("c", "Name", expr.StringType, true))
	assert.Same(t, textMapping, withElse.Mapping, "falls back to the else mapping")
}

func TestFactory_NormalizersRunInOrder(t *testing.T) {
	var calls []string
	rename := func(from, to string) Normalizer {
		return func(fn *Function) *Function {
			calls = append(calls, from)
			if fn.Name != from {
				return fn
			}
			out := *fn
			out.Name = to
			return &out
		}
	}
	f := NewFactory(testMappings(), rename("A", "B"), rename("B", "C"))

	fn, ok := f.Function("A", nil, expr.IntType, nil).(*Function)
	require.True(t, ok)
	assert.Equal(t, "C", fn.Name)
	assert.Equal(t, []string{"A", "B"}, calls)
	assert.Same(t, intMapping, fn.Mapping)

	niladic, ok := f.NiladicFunction("CURRENT_TIMESTAMP", expr.DateTimeType, nil).(*Function)
	require.True(t, ok)
	assert.True(t, niladic.Niladic)
	assert.Nil(t, niladic.Args)
}

func TestFactory_ApplyTypeMapping(t *testing.T) {
	f := NewFactory(testMappings())
	lit := f.Constant(ir.IRString("A"), expr.StringType)
	col := f.Column("c", "Name", expr.StringType, false)

	assert.Same(t, lit, f.ApplyTypeMapping(lit, textMapping), "same mapping keeps node")
	assert.Same(t, lit, f.ApplyTypeMapping(lit, nil))
	assert.Same(t, col, f.ApplyTypeMapping(col, ansiMapping), "columns keep their mapping")

	applied, ok := f.ApplyTypeMapping(lit, ansiMapping).(*Constant)
	require.True(t, ok)
	assert.Same(t, ansiMapping, applied.Mapping)
}

func TestBinaryOpClassification(t *testing.T) {
	assert.True(t, OpEqual.IsComparison())
	assert.True(t, OpGreaterThanOrEqual.IsComparison())
	assert.False(t, OpAdd.IsComparison())
	assert.False(t, OpAnd.IsComparison())
	assert.True(t, OpOr.IsLogical())
	assert.False(t, OpConcat.IsLogical())
}
