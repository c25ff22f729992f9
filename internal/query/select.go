package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/sqlexpr"
)

// JoinKind selects how a table enters the FROM clause. Navigation joins
// are always LEFT: a missing related row leaves the outer row in place with
// NULL columns.
type JoinKind int

const (
	JoinNone JoinKind = iota // the root table
	JoinLeft
)

// TableRef is one table of the FROM clause.
type TableRef struct {
	Entity *ir.EntityType
	Alias  string
	Join   JoinKind
	On     sqlexpr.Expr // nil for the root table
}

// Ordering is one ORDER BY term.
type Ordering struct {
	Expr      sqlexpr.Expr
	Ascending bool
}

// Select is the query source for one compilation.
type Select struct {
	id      string
	factory *sqlexpr.Factory

	tables    []TableRef
	joins     map[string]*EntityProjection // outer alias + navigation → joined projection
	predicate sqlexpr.Expr
	groupBy   []sqlexpr.Expr
	orderings []Ordering
	limit     *int
	offset    *int

	root       *EntityProjection
	projection []Projectable
	mapping    *ProjectionMapping
}

// NewSelect creates a Select reading entity's table. The root slot is
// mapped to the entity's projection, so a shape rooted at
// EntityShaper(BindMember(sel, root)) materializes whole rows.
func NewSelect(f *sqlexpr.Factory, entity *ir.EntityType, ids IDGenerator) *Select {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	s := &Select{
		id:      ids.Generate(),
		factory: f,
		joins:   make(map[string]*EntityProjection),
		mapping: NewProjectionMapping(),
	}
	alias := s.newAlias(entity.Table)
	s.tables = append(s.tables, TableRef{Entity: entity, Alias: alias, Join: JoinNone})
	s.root = newEntityProjection(f, entity, alias, false)
	s.mapping.Set(expr.ProjectionMember{}, s.root)
	return s
}

// SourceID implements expr.Source.
func (s *Select) SourceID() string {
	return s.id
}

// ID returns the select identifier.
func (s *Select) ID() string {
	return s.id
}

// Factory returns the provider expression factory this select builds with.
func (s *Select) Factory() *sqlexpr.Factory {
	return s.factory
}

// Root returns the projection of the root table.
func (s *Select) Root() *EntityProjection {
	return s.root
}

// Tables returns the FROM clause tables, root first.
func (s *Select) Tables() []TableRef {
	out := make([]TableRef, len(s.tables))
	copy(out, s.tables)
	return out
}

// AddNavigationJoin LEFT JOINs the target of nav onto outer and maps member
// to the joined entity projection. Joining the same navigation from the
// same outer projection twice reuses the first join, so both members share
// one backing projection.
func (s *Select) AddNavigationJoin(outer *EntityProjection, nav ir.Navigation, target *ir.EntityType, member expr.ProjectionMember) (*EntityProjection, error) {
	joinKey := outer.Table + "\x00" + nav.Name
	if inner, ok := s.joins[joinKey]; ok {
		s.mapping.Set(member, inner)
		return inner, nil
	}

	alias := s.newAlias(target.Table)
	inner := newEntityProjection(s.factory, target, alias, true)

	// Collection navigations carry the foreign key on the dependent (inner)
	// side; reference navigations carry it on the outer side.
	principal, dependent := inner, outer
	if nav.Collection {
		principal, dependent = outer, inner
	}
	if len(nav.ForeignKey) != len(principal.Entity.Key) {
		return nil, fmt.Errorf("navigation %s.%s: foreign key %v does not match key of %s", outer.Entity.Name, nav.Name, nav.ForeignKey, principal.Entity.Name)
	}

	var on sqlexpr.Expr
	for i, fk := range nav.ForeignKey {
		fkCol, ok := dependent.BindProperty(fk)
		if !ok {
			return nil, fmt.Errorf("navigation %s.%s: %s has no property %q", outer.Entity.Name, nav.Name, dependent.Entity.Name, fk)
		}
		keyCol, ok := principal.BindProperty(principal.Entity.Key[i])
		if !ok {
			return nil, fmt.Errorf("navigation %s.%s: %s has no key property %q", outer.Entity.Name, nav.Name, principal.Entity.Name, principal.Entity.Key[i])
		}
		eq := s.factory.Binary(sqlexpr.OpEqual, fkCol, keyCol)
		if on == nil {
			on = eq
		} else {
			on = s.factory.Binary(sqlexpr.OpAnd, on, eq)
		}
	}

	s.tables = append(s.tables, TableRef{Entity: target, Alias: alias, Join: JoinLeft, On: on})
	s.joins[joinKey] = inner
	s.mapping.Set(member, inner)
	return inner, nil
}

// newAlias derives a table alias from the first letter of the table name,
// suffixing a counter on collision ("b", "b0", "b1", ...).
func (s *Select) newAlias(table string) string {
	r, _ := utf8.DecodeRuneInString(table)
	base := "t"
	if r != utf8.RuneError && unicode.IsLetter(r) {
		base = strings.ToLower(string(r))
	}
	used := func(a string) bool {
		for _, t := range s.tables {
			if t.Alias == a {
				return true
			}
		}
		return false
	}
	if !used(base) {
		return base
	}
	for n := 0; ; n++ {
		candidate := base + strconv.Itoa(n)
		if !used(candidate) {
			return candidate
		}
	}
}

// SetPredicate ANDs e into the WHERE clause.
func (s *Select) SetPredicate(e sqlexpr.Expr) {
	if s.predicate == nil {
		s.predicate = e
		return
	}
	s.predicate = s.factory.Binary(sqlexpr.OpAnd, s.predicate, e)
}

// Predicate returns the WHERE clause, or nil.
func (s *Select) Predicate() sqlexpr.Expr {
	return s.predicate
}

// AddGroupBy appends a GROUP BY term.
func (s *Select) AddGroupBy(e sqlexpr.Expr) {
	s.groupBy = append(s.groupBy, e)
}

// GroupBy returns the GROUP BY terms.
func (s *Select) GroupBy() []sqlexpr.Expr {
	return append([]sqlexpr.Expr(nil), s.groupBy...)
}

// AddOrdering appends an ORDER BY term.
func (s *Select) AddOrdering(e sqlexpr.Expr, ascending bool) {
	s.orderings = append(s.orderings, Ordering{Expr: e, Ascending: ascending})
}

// Orderings returns the ORDER BY terms.
func (s *Select) Orderings() []Ordering {
	return append([]Ordering(nil), s.orderings...)
}

// SetLimit sets the row limit.
func (s *Select) SetLimit(n int) {
	s.limit = &n
}

// SetOffset sets the number of rows skipped.
func (s *Select) SetOffset(n int) {
	s.offset = &n
}

// Limit returns the row limit, if set.
func (s *Select) Limit() (int, bool) {
	if s.limit == nil {
		return 0, false
	}
	return *s.limit, true
}

// Offset returns the row offset, if set.
func (s *Select) Offset() (int, bool) {
	if s.offset == nil {
		return 0, false
	}
	return *s.offset, true
}

// AddToProjection appends p to the projection list and returns its index.
// An entry already present (same entity projection, or structurally equal
// scalar) is not duplicated; its existing index is returned.
func (s *Select) AddToProjection(p Projectable) int {
	for i, existing := range s.projection {
		if sameProjectable(existing, p) {
			return i
		}
	}
	s.projection = append(s.projection, p)
	return len(s.projection) - 1
}

// Projection returns the projection-list entry at index.
func (s *Select) Projection(index int) (Projectable, error) {
	if index < 0 || index >= len(s.projection) {
		return nil, NewInvariantError(ErrCodeProjectionIndex,
			"projection index out of range",
			"select", s.id, "index", strconv.Itoa(index), "len", strconv.Itoa(len(s.projection)))
	}
	return s.projection[index], nil
}

// Projections returns the projection list.
func (s *Select) Projections() []Projectable {
	out := make([]Projectable, len(s.projection))
	copy(out, s.projection)
	return out
}

// MappedProjection returns the projectable registered at member in the
// current mapping.
func (s *Select) MappedProjection(member expr.ProjectionMember) (Projectable, error) {
	p, ok := s.mapping.Get(member)
	if !ok {
		return nil, NewInvariantError(ErrCodeUnmappedMember,
			"no projection mapped to member",
			"select", s.id, "member", member.String())
	}
	return p, nil
}

// ProjectionMapping returns a copy of the current mapping.
func (s *Select) ProjectionMapping() *ProjectionMapping {
	return s.mapping.Clone()
}

// ReplaceProjectionMapping discards the current mapping and installs m.
func (s *Select) ReplaceProjectionMapping(m *ProjectionMapping) {
	s.mapping = m.Clone()
}

// VerifySource fails with ErrCodeForeignSource unless b points into s.
func (s *Select) VerifySource(b *expr.ProjectionBinding) error {
	if b.Source != expr.Source(s) {
		other := "<nil>"
		if b.Source != nil {
			other = b.Source.SourceID()
		}
		return NewInvariantError(ErrCodeForeignSource,
			"projection binding refers to a different query source",
			"select", s.id, "binding_source", other)
	}
	return nil
}

// Resolve returns the projectable a binding into s refers to.
func (s *Select) Resolve(b *expr.ProjectionBinding) (Projectable, error) {
	if err := s.VerifySource(b); err != nil {
		return nil, err
	}
	if b.ByIndex {
		return s.Projection(b.Index)
	}
	return s.MappedProjection(b.Member)
}
