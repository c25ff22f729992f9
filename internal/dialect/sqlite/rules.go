package sqlite

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/sqlexpr"
	"github.com/roach88/qshape/internal/translate"
)

type memberFunc = func(*sqlexpr.Factory, sqlexpr.Expr, expr.Type) (sqlexpr.Expr, bool)

type methodFunc = func(*sqlexpr.Factory, sqlexpr.Expr, []sqlexpr.Expr, expr.Type) (sqlexpr.Expr, bool)

var datePartFormats = map[string]string{
	"Year":      "%Y",
	"Month":     "%m",
	"Day":       "%d",
	"Hour":      "%H",
	"Minute":    "%M",
	"Second":    "%S",
	"DayOfYear": "%j",
	"DayOfWeek": "%w",
}

var dateAddUnits = map[string]string{
	"AddYears":   " years",
	"AddMonths":  " months",
	"AddDays":    " days",
	"AddHours":   " hours",
	"AddMinutes": " minutes",
	"AddSeconds": " seconds",
}

func dateTimeRules(f *sqlexpr.Factory) translate.Plugin {
	var members []translate.MemberRule
	for name, format := range datePartFormats {
		members = append(members, translate.MemberRule{Declaring: "DateTime", Name: name, Translate: datePart(format)})
	}
	members = append(members,
		translate.MemberRule{Declaring: "DateTime", Name: "Date", Translate: startOfDay},
		translate.MemberRule{Declaring: "DateTime", Name: "Now", Translate: now("localtime")},
		translate.MemberRule{Declaring: "DateTime", Name: "UtcNow", Translate: now("")},
	)

	var methods []translate.MethodRule
	for name, unit := range dateAddUnits {
		methods = append(methods, translate.MethodRule{Declaring: "DateTime", Method: name, Arity: 1, Translate: dateAdd(unit)})
	}
	return translate.NewRules(f, members, methods).Plugin("sqlite.datetime")
}

// datePart reads one component of a date-time as an integer.
func datePart(format string) memberFunc {
	return func(f *sqlexpr.Factory, instance sqlexpr.Expr, rt expr.Type) (sqlexpr.Expr, bool) {
		if instance == nil {
			return nil, false
		}
		return f.Unary(sqlexpr.OpCast, Strftime(f, expr.StringType, format, instance), rt), true
	}
}

func startOfDay(f *sqlexpr.Factory, instance sqlexpr.Expr, _ expr.Type) (sqlexpr.Expr, bool) {
	if instance == nil {
		return nil, false
	}
	return DateTimeValue(f, instance, text(f, "start of day")), true
}

func now(modifier string) memberFunc {
	return func(f *sqlexpr.Factory, instance sqlexpr.Expr, _ expr.Type) (sqlexpr.Expr, bool) {
		if instance != nil {
			return nil, false
		}
		var modifiers []sqlexpr.Expr
		if modifier != "" {
			modifiers = append(modifiers, text(f, modifier))
		}
		return DateTimeValue(f, text(f, "now"), modifiers...), true
	}
}

// dateAdd shifts a date-time by CAST(n AS TEXT) || unit.
func dateAdd(unit string) methodFunc {
	return func(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, _ expr.Type) (sqlexpr.Expr, bool) {
		if instance == nil {
			return nil, false
		}
		modifier := f.Binary(sqlexpr.OpConcat, f.Unary(sqlexpr.OpCast, args[0], expr.StringType), text(f, unit))
		return DateTimeValue(f, instance, modifier), true
	}
}

func stringRules(f *sqlexpr.Factory) translate.Plugin {
	members := []translate.MemberRule{
		{Declaring: "string", Name: "Length", Translate: func(f *sqlexpr.Factory, instance sqlexpr.Expr, rt expr.Type) (sqlexpr.Expr, bool) {
			if instance == nil {
				return nil, false
			}
			return f.Function("length", []sqlexpr.Expr{instance}, rt, nil), true
		}},
	}
	methods := []translate.MethodRule{
		{Declaring: "string", Method: "ToUpper", Arity: 0, Translate: instanceFunction("upper")},
		{Declaring: "string", Method: "ToLower", Arity: 0, Translate: instanceFunction("lower")},
		{Declaring: "string", Method: "Trim", Arity: 0, Translate: instanceFunction("trim")},
		{Declaring: "string", Method: "Replace", Arity: 2, Translate: instanceFunction("replace")},
		{Declaring: "string", Method: "Substring", Arity: 2, Translate: substring},
		{Declaring: "string", Method: "Contains", Arity: 1, Translate: contains},
		{Declaring: "string", Method: "StartsWith", Arity: 1, Translate: startsWith},
	}
	return translate.NewRules(f, members, methods).Plugin("sqlite.string")
}

// instanceFunction maps instance.Method(args) onto name(instance, args).
func instanceFunction(name string) methodFunc {
	return func(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, rt expr.Type) (sqlexpr.Expr, bool) {
		if instance == nil {
			return nil, false
		}
		return f.Function(name, append([]sqlexpr.Expr{instance}, args...), rt, nil), true
	}
}

// substring converts the zero-based start index to substr's one-based one.
func substring(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, rt expr.Type) (sqlexpr.Expr, bool) {
	if instance == nil {
		return nil, false
	}
	start := f.Binary(sqlexpr.OpAdd, args[0], f.Constant(ir.IRInt(1), expr.IntType))
	return f.Function("substr", []sqlexpr.Expr{instance, start, args[1]}, rt, nil), true
}

func contains(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, _ expr.Type) (sqlexpr.Expr, bool) {
	if instance == nil {
		return nil, false
	}
	instr := f.Function("instr", []sqlexpr.Expr{instance, args[0]}, expr.IntType, nil)
	return f.Binary(sqlexpr.OpGreaterThan, instr, f.Constant(ir.IRInt(0), expr.IntType)), true
}

func startsWith(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, _ expr.Type) (sqlexpr.Expr, bool) {
	if instance == nil {
		return nil, false
	}
	prefix := args[0]
	length := f.Function("length", []sqlexpr.Expr{prefix}, expr.IntType, nil)
	head := f.Function("substr", []sqlexpr.Expr{instance, f.Constant(ir.IRInt(1), expr.IntType), length}, expr.StringType, nil)
	return f.Binary(sqlexpr.OpEqual, head, prefix), true
}

func mathRules(f *sqlexpr.Factory) translate.Plugin {
	methods := []translate.MethodRule{
		{Declaring: "Math", Method: "Round", Arity: 1, Translate: staticFunction("round")},
		{Declaring: "Math", Method: "Round", Arity: 2, Translate: staticFunction("round")},
		{Declaring: "Math", Method: "Max", Arity: 2, Translate: staticFunction("max")},
		{Declaring: "Math", Method: "Min", Arity: 2, Translate: staticFunction("min")},
	}
	return translate.NewRules(f, nil, methods).Plugin("sqlite.math")
}

func staticFunction(name string) methodFunc {
	return func(f *sqlexpr.Factory, instance sqlexpr.Expr, args []sqlexpr.Expr, rt expr.Type) (sqlexpr.Expr, bool) {
		if instance != nil {
			return nil, false
		}
		return f.Function(name, args, rt, nil), true
	}
}

func text(f *sqlexpr.Factory, s string) sqlexpr.Expr {
	return f.Constant(ir.IRString(s), expr.StringType)
}
