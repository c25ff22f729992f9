package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/query"
	"github.com/roach88/qshape/internal/sqlexpr"
)

// Dialect supplies the store-specific pieces of query text.
type Dialect interface {
	// Name identifies the dialect ("sqlite", "sqlserver").
	Name() string

	// QuoteIdentifier quotes a table, alias or column name.
	QuoteIdentifier(name string) string

	// ConcatOperator is the string concatenation operator.
	ConcatOperator() string

	// Paging renders the row-limiting clause. limit and offset bind their
	// value and return its placeholder, so the dialect must call them in
	// the order the placeholders appear. Either is nil when absent.
	Paging(limit, offset func() string) string
}

// Statement is generated query text with its bound values.
type Statement struct {
	SQL         string
	Params      []any
	Fingerprint string
	Layout      *query.Layout
}

// Generator renders selects for one dialect.
type Generator struct {
	dialect Dialect
}

// NewGenerator creates a generator for d.
func NewGenerator(d Dialect) *Generator {
	return &Generator{dialect: d}
}

// Generate renders sel. An empty projection renders as SELECT 1.
func (g *Generator) Generate(sel *query.Select) (*Statement, error) {
	if sel == nil {
		return nil, fmt.Errorf("cannot generate nil select")
	}
	w := &writer{dialect: g.dialect}
	layout := sel.ApplyProjection()

	w.write("SELECT ")
	if len(layout.Columns) == 0 {
		w.write("1")
	}
	for i, col := range layout.Columns {
		if i > 0 {
			w.write(", ")
		}
		if err := w.expr(col); err != nil {
			return nil, fmt.Errorf("compile projection %d: %w", i, err)
		}
	}

	if err := w.from(sel.Tables()); err != nil {
		return nil, err
	}

	if p := sel.Predicate(); p != nil {
		w.write(" WHERE ")
		if err := w.expr(p); err != nil {
			return nil, fmt.Errorf("compile predicate: %w", err)
		}
	}

	if groups := sel.GroupBy(); len(groups) > 0 {
		w.write(" GROUP BY ")
		for i, e := range groups {
			if i > 0 {
				w.write(", ")
			}
			if err := w.expr(e); err != nil {
				return nil, fmt.Errorf("compile group by: %w", err)
			}
		}
	}

	if err := w.orderBy(sel); err != nil {
		return nil, err
	}

	var limit, offset func() string
	if n, ok := sel.Limit(); ok {
		limit = func() string { return w.bind(int64(n)) }
	}
	if n, ok := sel.Offset(); ok {
		offset = func() string { return w.bind(int64(n)) }
	}
	if clause := g.dialect.Paging(limit, offset); clause != "" {
		w.write(" ")
		w.write(clause)
	}

	text := w.sb.String()
	return &Statement{
		SQL:         text,
		Params:      w.params,
		Fingerprint: ir.QueryFingerprint(text),
		Layout:      layout,
	}, nil
}

// Expression renders a single provider expression.
func (g *Generator) Expression(e sqlexpr.Expr) (string, []any, error) {
	w := &writer{dialect: g.dialect}
	if err := w.expr(e); err != nil {
		return "", nil, err
	}
	return w.sb.String(), w.params, nil
}

type writer struct {
	dialect Dialect
	sb      strings.Builder
	params  []any
}

func (w *writer) write(s string) {
	w.sb.WriteString(s)
}

func (w *writer) bind(v any) string {
	w.params = append(w.params, v)
	return "?"
}

func (w *writer) from(tables []query.TableRef) error {
	for i, t := range tables {
		switch t.Join {
		case query.JoinNone:
			if i > 0 {
				return fmt.Errorf("table %s: only the first table may be unjoined", t.Alias)
			}
			w.write(" FROM ")
		case query.JoinLeft:
			w.write(" LEFT JOIN ")
		default:
			return fmt.Errorf("table %s: unknown join kind %d", t.Alias, t.Join)
		}
		w.write(w.dialect.QuoteIdentifier(t.Entity.Table))
		w.write(" AS ")
		w.write(w.dialect.QuoteIdentifier(t.Alias))
		if t.Join != query.JoinNone {
			if t.On == nil {
				return fmt.Errorf("table %s: join without ON predicate", t.Alias)
			}
			w.write(" ON ")
			if err := w.expr(t.On); err != nil {
				return fmt.Errorf("compile join %s: %w", t.Alias, err)
			}
		}
	}
	return nil
}

// orderBy writes explicit orderings followed by the root key columns not
// already ordered on.
func (w *writer) orderBy(sel *query.Select) error {
	orderings := sel.Orderings()
	root := sel.Root()
	for _, key := range root.Entity.Key {
		col, ok := root.BindProperty(key)
		if !ok {
			return fmt.Errorf("entity %s: key property %q is not mapped", root.Entity.Name, key)
		}
		if !ordered(orderings, col) {
			orderings = append(orderings, query.Ordering{Expr: col, Ascending: true})
		}
	}
	if len(orderings) == 0 {
		return nil
	}
	w.write(" ORDER BY ")
	for i, o := range orderings {
		if i > 0 {
			w.write(", ")
		}
		if err := w.expr(o.Expr); err != nil {
			return fmt.Errorf("compile ordering %d: %w", i, err)
		}
		if o.Ascending {
			w.write(" ASC")
		} else {
			w.write(" DESC")
		}
	}
	return nil
}

func ordered(orderings []query.Ordering, e sqlexpr.Expr) bool {
	for _, o := range orderings {
		if sqlexpr.Equal(o.Expr, e) {
			return true
		}
	}
	return false
}

var binaryOperators = map[sqlexpr.BinaryOp]string{
	sqlexpr.OpAdd:                "+",
	sqlexpr.OpSubtract:           "-",
	sqlexpr.OpMultiply:           "*",
	sqlexpr.OpDivide:             "/",
	sqlexpr.OpModulo:             "%",
	sqlexpr.OpEqual:              "=",
	sqlexpr.OpNotEqual:           "<>",
	sqlexpr.OpLessThan:           "<",
	sqlexpr.OpLessThanOrEqual:    "<=",
	sqlexpr.OpGreaterThan:        ">",
	sqlexpr.OpGreaterThanOrEqual: ">=",
	sqlexpr.OpAnd:                "AND",
	sqlexpr.OpOr:                 "OR",
}

func (w *writer) expr(e sqlexpr.Expr) error {
	switch e := e.(type) {
	case *sqlexpr.Column:
		w.write(w.dialect.QuoteIdentifier(e.Table))
		w.write(".")
		w.write(w.dialect.QuoteIdentifier(e.Name))
		return nil

	case *sqlexpr.Constant:
		param, err := constantToParam(e)
		if err != nil {
			return err
		}
		if param == nil {
			w.write("NULL")
			return nil
		}
		w.write(w.bind(param))
		return nil

	case *sqlexpr.Function:
		return w.function(e)

	case *sqlexpr.Binary:
		op := binaryOperators[e.Op]
		if e.Op == sqlexpr.OpConcat {
			op = w.dialect.ConcatOperator()
		}
		if op == "" {
			return fmt.Errorf("unsupported binary operator %d", e.Op)
		}
		w.write("(")
		if err := w.expr(e.Left); err != nil {
			return err
		}
		w.write(" " + op + " ")
		if err := w.expr(e.Right); err != nil {
			return err
		}
		w.write(")")
		return nil

	case *sqlexpr.Unary:
		return w.unary(e)

	case *sqlexpr.Case:
		w.write("CASE")
		for _, when := range e.Whens {
			w.write(" WHEN ")
			if err := w.expr(when.Test); err != nil {
				return err
			}
			w.write(" THEN ")
			if err := w.expr(when.Result); err != nil {
				return err
			}
		}
		if e.Else != nil {
			w.write(" ELSE ")
			if err := w.expr(e.Else); err != nil {
				return err
			}
		}
		w.write(" END")
		return nil

	case nil:
		return fmt.Errorf("cannot compile nil expression")
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
}

func (w *writer) function(fn *sqlexpr.Function) error {
	if fn.Instance != nil {
		if err := w.expr(fn.Instance); err != nil {
			return err
		}
		w.write(".")
	}
	w.write(fn.Name)
	if fn.Niladic {
		return nil
	}
	w.write("(")
	for i, a := range fn.Args {
		if i > 0 {
			w.write(", ")
		}
		if err := w.expr(a); err != nil {
			return err
		}
	}
	w.write(")")
	return nil
}

func (w *writer) unary(u *sqlexpr.Unary) error {
	switch u.Op {
	case sqlexpr.OpNot:
		w.write("NOT (")
		if err := w.expr(u.Operand); err != nil {
			return err
		}
		w.write(")")
	case sqlexpr.OpNegate:
		w.write("-(")
		if err := w.expr(u.Operand); err != nil {
			return err
		}
		w.write(")")
	case sqlexpr.OpIsNull, sqlexpr.OpIsNotNull:
		w.write("(")
		if err := w.expr(u.Operand); err != nil {
			return err
		}
		if u.Op == sqlexpr.OpIsNull {
			w.write(" IS NULL)")
		} else {
			w.write(" IS NOT NULL)")
		}
	case sqlexpr.OpCast:
		if u.Mapping == nil {
			return fmt.Errorf("cast to %s has no store type", u.Typ)
		}
		w.write("CAST(")
		if err := w.expr(u.Operand); err != nil {
			return err
		}
		w.write(" AS " + u.Mapping.StoreType + ")")
	default:
		return fmt.Errorf("unsupported unary operator %d", u.Op)
	}
	return nil
}

// constantToParam converts a literal to a driver value using its mapping's
// literal format. A nil result renders as NULL.
func constantToParam(c *sqlexpr.Constant) (any, error) {
	format := sqlexpr.LiteralText
	if c.Mapping != nil {
		format = c.Mapping.Literal
	}
	switch v := c.Value.(type) {
	case ir.IRNull:
		return nil, nil
	case ir.IRString:
		return string(v), nil
	case ir.IRInt:
		if format == sqlexpr.LiteralBool {
			return v != 0, nil
		}
		return int64(v), nil
	case ir.IRBool:
		if format == sqlexpr.LiteralInteger {
			if v {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return bool(v), nil
	case ir.IRBytes:
		return []byte(v), nil
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", c.Value)
	}
}
