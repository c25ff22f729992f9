package translate

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/sqlexpr"
)

// Relational returns the dialect-neutral rules every provider starts with:
// equality, string null-or-empty tests, concatenation and absolute value.
func Relational(f *sqlexpr.Factory) Plugin {
	methods := []MethodRule{
		{Declaring: "object", Method: "Equals", Arity: 1, Translate: instanceEquals},
		{Declaring: "object", Method: "Equals", Arity: 2, Translate: staticEquals},
		{Declaring: "string", Method: "Equals", Arity: 1, Translate: instanceEquals},
		{Declaring: "string", Method: "IsNullOrEmpty", Arity: 1, Translate: isNullOrEmpty},
		{Declaring: "string", Method: "Concat", Arity: AnyArity, Translate: concat},
		{Declaring: "Math", Method: "Abs", Arity: 1, Translate: function("ABS")},
	}
	return NewRules(f, nil, methods).Plugin("relational")
}

// function returns a rule mapping a static call onto NAME(args).
func function(name string) func(*sqlexpr.Factory, sqlexpr.Expr, []sqlexpr.Expr, expr.Type) (sqlexpr.Expr, bool) {
	return func(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, rt expr.Type) (sqlexpr.Expr, bool) {
		if instance != nil {
			return nil, false
		}
		return f.Function(name, args, rt, nil), true
	}
}

func instanceEquals(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, _ expr.Type) (sqlexpr.Expr, bool) {
	if instance == nil {
		return nil, false
	}
	return f.Binary(sqlexpr.OpEqual, instance, args[0]), true
}

func staticEquals(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, _ expr.Type) (sqlexpr.Expr, bool) {
	if instance != nil {
		return nil, false
	}
	return f.Binary(sqlexpr.OpEqual, args[0], args[1]), true
}

func isNullOrEmpty(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, _ expr.Type) (sqlexpr.Expr, bool) {
	if instance != nil {
		return nil, false
	}
	s := args[0]
	return f.Binary(sqlexpr.OpOr,
		f.Unary(sqlexpr.OpIsNull, s, expr.BoolType),
		f.Binary(sqlexpr.OpEqual, s, f.Constant(ir.IRString(""), expr.StringType)),
	), true
}

func concat(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, _ expr.Type) (sqlexpr.Expr, bool) {
	if instance != nil || len(args) < 2 {
		return nil, false
	}
	out := args[0]
	for _, a := range args[1:] {
		out = f.Binary(sqlexpr.OpConcat, out, a)
	}
	return out, true
}
