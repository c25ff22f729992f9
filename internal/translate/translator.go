package translate

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/query"
	"github.com/roach88/qshape/internal/sqlexpr"
)

// SQLTranslator translates input sub-expressions into provider expressions
// in the context of one query source.
type SQLTranslator struct {
	registry *Registry
	factory  *sqlexpr.Factory
}

// NewSQLTranslator creates a translator over a dialect's registry and
// factory.
func NewSQLTranslator(registry *Registry, factory *sqlexpr.Factory) *SQLTranslator {
	return &SQLTranslator{registry: registry, factory: factory}
}

// Registry returns the translator's rule registry.
func (t *SQLTranslator) Registry() *Registry {
	return t.registry
}

// Factory returns the translator's expression factory.
func (t *SQLTranslator) Factory() *sqlexpr.Factory {
	return t.factory
}

// Translate returns the provider equivalent of n, or false when n has none.
// Translation is pure: it neither mutates sel nor records anything.
func (t *SQLTranslator) Translate(sel *query.Select, n expr.Node) (sqlexpr.Expr, bool) {
	switch n := n.(type) {
	case *expr.Constant:
		return t.constant(n)
	case *expr.Member:
		return t.member(sel, n)
	case *expr.Call:
		return t.call(sel, n)
	case *expr.Unary:
		return t.unary(sel, n)
	case *expr.Binary:
		return t.binary(sel, n)
	case *expr.Conditional:
		return t.conditional(sel, n)
	case *expr.ProjectionBinding:
		p, err := sel.Resolve(n)
		if err != nil {
			return nil, false
		}
		e, ok := p.(sqlexpr.Expr)
		return e, ok
	default:
		// Parameters, constructors, shapers, includes, collection
		// materializations and runtime parameter reads have no scalar
		// provider form.
		return nil, false
	}
}

func (t *SQLTranslator) constant(c *expr.Constant) (sqlexpr.Expr, bool) {
	typ := c.Typ
	if typ.IsZero() {
		typ = inferType(c.Value)
	}
	if typ.IsZero() || typ.Collection {
		return nil, false
	}
	return t.factory.Constant(c.Value, typ), true
}

func (t *SQLTranslator) member(sel *query.Select, m *expr.Member) (sqlexpr.Expr, bool) {
	if shaper, ok := entityOf(m.Instance); ok {
		return t.property(sel, shaper, m.Name)
	}
	if m.Typ.IsZero() {
		return nil, false
	}
	var instance sqlexpr.Expr
	if m.Instance != nil {
		var ok bool
		if instance, ok = t.Translate(sel, m.Instance); !ok {
			return nil, false
		}
	}
	return t.registry.TranslateMember(instance, m)
}

// property binds a mapped property of the entity behind shaper to its
// column. Navigations and unmapped names do not translate. The shaper's
// binding is expected to be verified by the caller; one that does not
// resolve does not translate either.
func (t *SQLTranslator) property(sel *query.Select, shaper *expr.EntityShaper, name string) (sqlexpr.Expr, bool) {
	binding, ok := shaper.ValueBuffer.(*expr.ProjectionBinding)
	if !ok {
		return nil, false
	}
	p, err := sel.Resolve(binding)
	if err != nil {
		return nil, false
	}
	ep, ok := p.(*query.EntityProjection)
	if !ok {
		return nil, false
	}
	col, ok := ep.BindProperty(name)
	if !ok {
		return nil, false
	}
	return col, true
}

func (t *SQLTranslator) call(sel *query.Select, c *expr.Call) (sqlexpr.Expr, bool) {
	if c.Typ.IsZero() {
		return nil, false
	}
	var instance sqlexpr.Expr
	if c.Object != nil {
		var ok bool
		if instance, ok = t.Translate(sel, c.Object); !ok {
			return nil, false
		}
	}
	args := make([]sqlexpr.Expr, len(c.Args))
	for i, a := range c.Args {
		e, ok := t.Translate(sel, a)
		if !ok {
			return nil, false
		}
		args[i] = e
	}
	return t.registry.TranslateCall(instance, c, args)
}

func (t *SQLTranslator) unary(sel *query.Select, u *expr.Unary) (sqlexpr.Expr, bool) {
	operand, ok := t.Translate(sel, u.Operand)
	if !ok {
		return nil, false
	}
	switch u.Op {
	case expr.OpNot:
		return t.factory.Unary(sqlexpr.OpNot, operand, expr.BoolType), true
	case expr.OpNegate:
		if u.Typ.IsZero() {
			return nil, false
		}
		return t.factory.Unary(sqlexpr.OpNegate, operand, u.Typ), true
	case expr.OpConvert:
		if u.Typ.IsZero() {
			return nil, false
		}
		if operand.Type() == u.Typ {
			return operand, true
		}
		if t.factory.FindMapping(u.Typ) == nil {
			return nil, false
		}
		return t.factory.Unary(sqlexpr.OpCast, operand, u.Typ), true
	}
	return nil, false
}

var binaryOps = map[expr.BinaryOp]sqlexpr.BinaryOp{
	expr.OpAdd:                sqlexpr.OpAdd,
	expr.OpSubtract:           sqlexpr.OpSubtract,
	expr.OpMultiply:           sqlexpr.OpMultiply,
	expr.OpDivide:             sqlexpr.OpDivide,
	expr.OpModulo:             sqlexpr.OpModulo,
	expr.OpEqual:              sqlexpr.OpEqual,
	expr.OpNotEqual:           sqlexpr.OpNotEqual,
	expr.OpLessThan:           sqlexpr.OpLessThan,
	expr.OpLessThanOrEqual:    sqlexpr.OpLessThanOrEqual,
	expr.OpGreaterThan:        sqlexpr.OpGreaterThan,
	expr.OpGreaterThanOrEqual: sqlexpr.OpGreaterThanOrEqual,
	expr.OpAndAlso:            sqlexpr.OpAnd,
	expr.OpOrElse:             sqlexpr.OpOr,
}

func (t *SQLTranslator) binary(sel *query.Select, b *expr.Binary) (sqlexpr.Expr, bool) {
	left, ok := t.Translate(sel, b.Left)
	if !ok {
		return nil, false
	}
	right, ok := t.Translate(sel, b.Right)
	if !ok {
		return nil, false
	}

	switch b.Op {
	case expr.OpCoalesce:
		if b.Typ.IsZero() {
			return nil, false
		}
		return t.factory.Function("COALESCE", []sqlexpr.Expr{left, right}, b.Typ, nil), true
	case expr.OpEqual, expr.OpNotEqual:
		if operand, isNull := nullTest(left, right); isNull {
			op := sqlexpr.OpIsNull
			if b.Op == expr.OpNotEqual {
				op = sqlexpr.OpIsNotNull
			}
			return t.factory.Unary(op, operand, expr.BoolType), true
		}
	case expr.OpAdd:
		if left.Type() == expr.StringType && right.Type() == expr.StringType {
			return t.factory.Binary(sqlexpr.OpConcat, left, right), true
		}
	}

	op, ok := binaryOps[b.Op]
	if !ok {
		return nil, false
	}
	return t.factory.Binary(op, left, right), true
}

func (t *SQLTranslator) conditional(sel *query.Select, c *expr.Conditional) (sqlexpr.Expr, bool) {
	test, ok := t.Translate(sel, c.Test)
	if !ok {
		return nil, false
	}
	ifTrue, ok := t.Translate(sel, c.IfTrue)
	if !ok {
		return nil, false
	}
	ifFalse, ok := t.Translate(sel, c.IfFalse)
	if !ok {
		return nil, false
	}
	return t.factory.Case([]sqlexpr.CaseWhen{{Test: test, Result: ifTrue}}, ifFalse), true
}

// entityOf unwraps includes down to the entity shaper they decorate.
func entityOf(n expr.Node) (*expr.EntityShaper, bool) {
	for {
		switch v := n.(type) {
		case *expr.EntityShaper:
			return v, true
		case *expr.Include:
			n = v.Entity
		default:
			return nil, false
		}
	}
}

// nullTest reports whether one side is a null literal and returns the
// other side.
func nullTest(left, right sqlexpr.Expr) (sqlexpr.Expr, bool) {
	if isNullConstant(right) {
		return left, true
	}
	if isNullConstant(left) {
		return right, true
	}
	return nil, false
}

func isNullConstant(e sqlexpr.Expr) bool {
	c, ok := e.(*sqlexpr.Constant)
	if !ok {
		return false
	}
	_, null := c.Value.(ir.IRNull)
	return null
}

func inferType(v ir.IRValue) expr.Type {
	switch v.(type) {
	case ir.IRString:
		return expr.StringType
	case ir.IRInt:
		return expr.IntType
	case ir.IRBool:
		return expr.BoolType
	case ir.IRBytes:
		return expr.BytesType
	}
	return expr.Type{}
}
