package sqlserver

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/sqlexpr"
	"github.com/roach88/qshape/internal/translate"
)

// geometryRules translates spatial members to geometry instance methods.
func geometryRules(f *sqlexpr.Factory) translate.Plugin {
	members := []translate.MemberRule{
		{Declaring: "GeometryCollection", Name: "Count", Translate: instanceMethod("STNumGeometries")},
		{Declaring: "Geometry", Name: "Area", Translate: instanceMethod("STArea")},
		{Declaring: "Geometry", Name: "IsEmpty", Translate: instanceMethod("STIsEmpty")},
		{Declaring: "Geometry", Name: "Length", Translate: instanceMethod("STLength")},
	}
	return translate.NewRules(f, members, nil).Plugin("sqlserver.geometry")
}

// instanceMethod maps instance.Member onto instance.NAME().
func instanceMethod(name string) func(*sqlexpr.Factory, sqlexpr.Expr, expr.Type) (sqlexpr.Expr, bool) {
	return func(f *sqlexpr.Factory, instance sqlexpr.Expr, rt expr.Type) (sqlexpr.Expr, bool) {
		if instance == nil {
			return nil, false
		}
		return f.InstanceFunction(instance, name, nil, rt, nil), true
	}
}
