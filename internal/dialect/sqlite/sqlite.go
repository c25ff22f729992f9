// Package sqlite is the SQLite store dialect.
package sqlite

import (
	"strings"

	"github.com/roach88/qshape/internal/dialect"
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/sqlexpr"
	"github.com/roach88/qshape/internal/translate"
)

// Name is the dialect name.
const Name = "sqlite"

// Mappings are SQLite's store types. Date-times and decimals are stored as
// text.
var Mappings = dialect.Mappings{
	ir.TypeString:   {StoreType: "TEXT", Type: expr.StringType, Literal: sqlexpr.LiteralText},
	ir.TypeInt:      {StoreType: "INTEGER", Type: expr.IntType, Literal: sqlexpr.LiteralInteger},
	ir.TypeBool:     {StoreType: "INTEGER", Type: expr.BoolType, Literal: sqlexpr.LiteralBool},
	ir.TypeDecimal:  {StoreType: "TEXT", Type: expr.DecimalType, Literal: sqlexpr.LiteralDecimal},
	ir.TypeDateTime: {StoreType: "TEXT", Type: expr.DateTimeType, Literal: sqlexpr.LiteralDateTime},
	ir.TypeBytes:    {StoreType: "BLOB", Type: expr.BytesType, Literal: sqlexpr.LiteralBytes},
}

// New assembles the SQLite provider.
func New() *dialect.Provider {
	f := sqlexpr.NewFactory(Mappings, NormalizeStrftime)
	return &dialect.Provider{
		Name:     Name,
		Factory:  f,
		Registry: translate.NewRegistry(translate.Relational(f), dateTimeRules(f), stringRules(f), mathRules(f)),
		SQL:      SQL{},
	}
}

// SQL is SQLite's query text dialect.
type SQL struct{}

// Name implements querysql.Dialect.
func (SQL) Name() string { return Name }

// QuoteIdentifier implements querysql.Dialect.
func (SQL) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ConcatOperator implements querysql.Dialect.
func (SQL) ConcatOperator() string { return "||" }

// Paging implements querysql.Dialect. SQLite needs a LIMIT to accept an
// OFFSET; -1 means unbounded.
func (SQL) Paging(limit, offset func() string) string {
	switch {
	case limit == nil && offset == nil:
		return ""
	case offset == nil:
		return "LIMIT " + limit()
	case limit == nil:
		return "LIMIT -1 OFFSET " + offset()
	default:
		l := limit()
		return "LIMIT " + l + " OFFSET " + offset()
	}
}
