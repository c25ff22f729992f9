package sqlite

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/sqlexpr"
)

// DateTimeFormat is the strftime format of a stored date-time.
const DateTimeFormat = "%Y-%m-%d %H:%M:%f"

// Strftime builds strftime(format, timestring, modifiers...). The factory's
// NormalizeStrftime pass folds a nested date-time strftime into this call.
func Strftime(f *sqlexpr.Factory, returnType expr.Type, format string, timestring sqlexpr.Expr, modifiers ...sqlexpr.Expr) sqlexpr.Expr {
	args := make([]sqlexpr.Expr, 0, 2+len(modifiers))
	args = append(args, f.Constant(ir.IRString(format), expr.StringType), timestring)
	args = append(args, modifiers...)
	return f.Function("strftime", args, returnType, nil)
}

// DateTimeValue builds the canonical stored form of a date-time computed by
// strftime: rtrim(rtrim(strftime(DateTimeFormat, timestring, modifiers...),
// '0'), '.'), which drops trailing fractional zeros.
func DateTimeValue(f *sqlexpr.Factory, timestring sqlexpr.Expr, modifiers ...sqlexpr.Expr) sqlexpr.Expr {
	inner := Strftime(f, expr.DateTimeType, DateTimeFormat, timestring, modifiers...)
	trimZeros := f.Function("rtrim", []sqlexpr.Expr{inner, f.Constant(ir.IRString("0"), expr.StringType)}, expr.DateTimeType, nil)
	return f.Function("rtrim", []sqlexpr.Expr{trimZeros, f.Constant(ir.IRString("."), expr.StringType)}, expr.DateTimeType, nil)
}

// NormalizeStrftime folds
//
//	strftime(fmt, rtrim(rtrim(strftime(dt, x, m1...), '0'), '.'), m2...)
//	strftime(fmt, strftime(DateTimeFormat, x, m1...), m2...)
//
// into strftime(fmt, x, m1..., m2...). Any other function is returned
// unchanged.
func NormalizeStrftime(fn *sqlexpr.Function) *sqlexpr.Function {
	if fn.Name != "strftime" || fn.Instance != nil || len(fn.Args) < 2 {
		return fn
	}
	inner, ok := innerStrftime(fn.Args[1])
	if !ok {
		return fn
	}
	args := make([]sqlexpr.Expr, 0, len(fn.Args)+len(inner.Args)-2)
	args = append(args, fn.Args[0], inner.Args[1])
	args = append(args, inner.Args[2:]...)
	args = append(args, fn.Args[2:]...)
	return &sqlexpr.Function{
		Name:    fn.Name,
		Args:    args,
		Typ:     fn.Typ,
		Mapping: fn.Mapping,
	}
}

func innerStrftime(timestring sqlexpr.Expr) (*sqlexpr.Function, bool) {
	if outer, ok := rtrim(timestring); ok {
		if trimmed, ok := rtrim(outer.Args[0]); ok {
			inner, ok := trimmed.Args[0].(*sqlexpr.Function)
			if ok && inner.Name == "strftime" && inner.Instance == nil && len(inner.Args) > 1 {
				return inner, true
			}
		}
		return nil, false
	}
	inner, ok := timestring.(*sqlexpr.Function)
	if !ok || inner.Name != "strftime" || inner.Instance != nil || len(inner.Args) < 2 {
		return nil, false
	}
	format, ok := inner.Args[0].(*sqlexpr.Constant)
	if !ok || !ir.Equal(format.Value, ir.IRString(DateTimeFormat)) {
		return nil, false
	}
	return inner, true
}

func rtrim(e sqlexpr.Expr) (*sqlexpr.Function, bool) {
	fn, ok := e.(*sqlexpr.Function)
	if !ok || fn.Name != "rtrim" || fn.Instance != nil || len(fn.Args) != 2 {
		return nil, false
	}
	return fn, true
}
