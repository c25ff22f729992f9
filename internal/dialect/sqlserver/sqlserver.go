// Package sqlserver is the SQL Server store dialect, including the spatial
// translations over the geometry type.
package sqlserver

import (
	"strings"

	"github.com/roach88/qshape/internal/dialect"
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/sqlexpr"
	"github.com/roach88/qshape/internal/translate"
)

// Name is the dialect name.
const Name = "sqlserver"

var (
	GeometryType           = expr.Scalar(ir.TypeGeometry)
	GeometryCollectionType = expr.Scalar(ir.TypeGeometryCollection)
)

// Mappings are SQL Server's store types.
var Mappings = dialect.Mappings{
	ir.TypeString:             {StoreType: "nvarchar(max)", Type: expr.StringType, Literal: sqlexpr.LiteralText},
	ir.TypeInt:                {StoreType: "int", Type: expr.IntType, Literal: sqlexpr.LiteralInteger},
	ir.TypeBool:               {StoreType: "bit", Type: expr.BoolType, Literal: sqlexpr.LiteralBool},
	ir.TypeDecimal:            {StoreType: "decimal(18,2)", Type: expr.DecimalType, Literal: sqlexpr.LiteralDecimal},
	ir.TypeDateTime:           {StoreType: "datetime2", Type: expr.DateTimeType, Literal: sqlexpr.LiteralDateTime},
	ir.TypeBytes:              {StoreType: "varbinary(max)", Type: expr.BytesType, Literal: sqlexpr.LiteralBytes},
	ir.TypeGeometry:           {StoreType: "geometry", Type: GeometryType, Literal: sqlexpr.LiteralBytes},
	ir.TypeGeometryCollection: {StoreType: "geometry", Type: GeometryCollectionType, Literal: sqlexpr.LiteralBytes},
}

// New assembles the SQL Server provider.
func New() *dialect.Provider {
	f := sqlexpr.NewFactory(Mappings)
	return &dialect.Provider{
		Name:     Name,
		Factory:  f,
		Registry: translate.NewRegistry(translate.Relational(f), builtinRules(f), geometryRules(f)),
		SQL:      SQL{},
	}
}

// SQL is SQL Server's query text dialect.
type SQL struct{}

// Name implements querysql.Dialect.
func (SQL) Name() string { return Name }

// QuoteIdentifier implements querysql.Dialect.
func (SQL) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// ConcatOperator implements querysql.Dialect.
func (SQL) ConcatOperator() string { return "+" }

// Paging implements querysql.Dialect. The statement always carries an
// ORDER BY, which OFFSET ... FETCH requires. The offset placeholder comes
// first.
func (SQL) Paging(limit, offset func() string) string {
	switch {
	case limit == nil && offset == nil:
		return ""
	case offset == nil:
		return "OFFSET 0 ROWS FETCH NEXT " + limit() + " ROWS ONLY"
	case limit == nil:
		return "OFFSET " + offset() + " ROWS"
	default:
		o := offset()
		return "OFFSET " + o + " ROWS FETCH NEXT " + limit() + " ROWS ONLY"
	}
}
