package sqlexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
)

func TestEqual(t *testing.T) {
	f := NewFactory(testMappings())
	name := func() Expr { return f.Column("c", "Name", expr.StringType, false) }
	year := func(arg Expr) Expr { return f.Function("YEAR", []Expr{arg}, expr.IntType, nil) }
	created := func() Expr { return f.Column("c", "Created", expr.DateTimeType, false) }

	tests := []struct {
		name string
		a, b Expr
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", name(), nil, false},
		{"same column", name(), name(), true},
		{"different alias", name(), f.Column("o", "Name", expr.StringType, false), false},
		{"different nullability", name(), f.Column("c", "Name", expr.StringType, true), false},
		{"different mapping", name(), &Column{Table: "c", Name: "Name", Typ: expr.StringType, Mapping: ansiMapping}, false},
		{"equal constants", f.Constant(ir.IRInt(1), expr.IntType), f.Constant(ir.IRInt(1), expr.IntType), true},
		{"different constants", f.Constant(ir.IRInt(1), expr.IntType), f.Constant(ir.IRInt(2), expr.IntType), false},
		{"same function", year(created()), year(created()), true},
		{"different function name", year(created()), f.Function("MONTH", []Expr{created()}, expr.IntType, nil), false},
		{"instance function", f.InstanceFunction(name(), "STAsText", nil, expr.StringType, nil), f.InstanceFunction(name(), "STAsText", nil, expr.StringType, nil), true},
		{"niladic differs", f.NiladicFunction("NOW", expr.DateTimeType, nil), f.Function("NOW", nil, expr.DateTimeType, nil), false},
		{"same binary", f.Binary(OpEqual, name(), f.Constant(ir.IRString("A"), expr.StringType)), f.Binary(OpEqual, name(), f.Constant(ir.IRString("A"), expr.StringType)), true},
		{"different operator", f.Binary(OpEqual, name(), name()), f.Binary(OpNotEqual, name(), name()), false},
		{"same unary", f.Unary(OpIsNull, name(), expr.BoolType), f.Unary(OpIsNull, name(), expr.BoolType), true},
		{"different unary", f.Unary(OpIsNull, name(), expr.BoolType), f.Unary(OpIsNotNull, name(), expr.BoolType), false},
		{"node kinds differ", name(), f.Constant(ir.IRString("Name"), expr.StringType), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a), "symmetric")
		})
	}
}

func TestEqual_Case(t *testing.T) {
	f := NewFactory(testMappings())
	test := f.Unary(OpIsNull, f.Column("c", "Name", expr.StringType, true), expr.BoolType)
	arm := func(s string) []CaseWhen {
		return []CaseWhen{{Test: test, Result: f.Constant(ir.IRString(s), expr.StringType)}}
	}
	fallback := f.Column("c", "Name", expr.StringType, true)

	assert.True(t, Equal(f.Case(arm("x"), fallback), f.Case(arm("x"), fallback)))
	assert.False(t, Equal(f.Case(arm("x"), fallback), f.Case(arm("y"), fallback)))
	assert.False(t, Equal(f.Case(arm("x"), fallback), f.Case(arm("x"), nil)))
	assert.False(t, Equal(f.Case(arm("x"), nil), f.Case(append(arm("x"), arm("x")...), nil)))
}
