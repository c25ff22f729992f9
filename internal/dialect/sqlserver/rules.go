package sqlserver

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/sqlexpr"
	"github.com/roach88/qshape/internal/translate"
)

func builtinRules(f *sqlexpr.Factory) translate.Plugin {
	members := []translate.MemberRule{
		{Declaring: "string", Name: "Length", Translate: wrap("LEN")},
		{Declaring: "DateTime", Name: "Year", Translate: wrap("YEAR")},
		{Declaring: "DateTime", Name: "Month", Translate: wrap("MONTH")},
		{Declaring: "DateTime", Name: "Day", Translate: wrap("DAY")},
		{Declaring: "DateTime", Name: "Now", Translate: argless("GETDATE")},
		{Declaring: "DateTime", Name: "UtcNow", Translate: argless("GETUTCDATE")},
	}
	methods := []translate.MethodRule{
		{Declaring: "string", Method: "ToUpper", Arity: 0, Translate: wrapCall("UPPER")},
		{Declaring: "string", Method: "ToLower", Arity: 0, Translate: wrapCall("LOWER")},
	}
	return translate.NewRules(f, members, methods).Plugin("sqlserver.builtin")
}

// wrap maps instance.Member onto NAME(instance).
func wrap(name string) func(*sqlexpr.Factory, sqlexpr.Expr, expr.Type) (sqlexpr.Expr, bool) {
	return func(f *sqlexpr.Factory, instance sqlexpr.Expr, rt expr.Type) (sqlexpr.Expr, bool) {
		if instance == nil {
			return nil, false
		}
		return f.Function(name, []sqlexpr.Expr{instance}, rt, nil), true
	}
}

func wrapCall(name string) func(*sqlexpr.Factory, sqlexpr.Expr, []sqlexpr.Expr, expr.Type) (sqlexpr.Expr, bool) {
	member := wrap(name)
	return func(f *sqlexpr.Factory, instance sqlexpr.Expr, _ []sqlexpr.Expr, rt expr.Type) (sqlexpr.Expr, bool) {
		return member(f, instance, rt)
	}
}

// argless maps a static member onto an argument-less call, e.g. GETDATE().
func argless(name string) func(*sqlexpr.Factory, sqlexpr.Expr, expr.Type) (sqlexpr.Expr, bool) {
	return func(f *sqlexpr.Factory, instance sqlexpr.Expr, rt expr.Type) (sqlexpr.Expr, bool) {
		if instance != nil {
			return nil, false
		}
		return f.Function(name, nil, rt, nil), true
	}
}
