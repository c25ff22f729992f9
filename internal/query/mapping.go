package query

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/sqlexpr"
)

// Projectable is a projection-list or mapping entry: either a scalar
// sqlexpr.Expr or an *EntityProjection.
type Projectable interface {
	Type() expr.Type
}

// ProjectionMapping maps slot keys to projectables, in registration order.
type ProjectionMapping struct {
	members []expr.ProjectionMember
	values  []Projectable
	index   map[string]int
}

// NewProjectionMapping creates an empty mapping.
func NewProjectionMapping() *ProjectionMapping {
	return &ProjectionMapping{index: make(map[string]int)}
}

// Set registers p at member, replacing any previous entry in place.
func (m *ProjectionMapping) Set(member expr.ProjectionMember, p Projectable) {
	key := member.Key()
	if i, ok := m.index[key]; ok {
		m.values[i] = p
		return
	}
	m.index[key] = len(m.members)
	m.members = append(m.members, member)
	m.values = append(m.values, p)
}

// Has reports whether member is registered.
func (m *ProjectionMapping) Has(member expr.ProjectionMember) bool {
	_, ok := m.index[member.Key()]
	return ok
}

// Get returns the projectable registered at member.
func (m *ProjectionMapping) Get(member expr.ProjectionMember) (Projectable, bool) {
	i, ok := m.index[member.Key()]
	if !ok {
		return nil, false
	}
	return m.values[i], true
}

// Len returns the number of registered slots.
func (m *ProjectionMapping) Len() int {
	return len(m.members)
}

// Members returns the registered slot keys in registration order.
func (m *ProjectionMapping) Members() []expr.ProjectionMember {
	out := make([]expr.ProjectionMember, len(m.members))
	copy(out, m.members)
	return out
}

// Each calls fn for every slot in registration order.
func (m *ProjectionMapping) Each(fn func(expr.ProjectionMember, Projectable)) {
	for i, member := range m.members {
		fn(member, m.values[i])
	}
}

// Clone returns an independent copy.
func (m *ProjectionMapping) Clone() *ProjectionMapping {
	c := NewProjectionMapping()
	m.Each(c.Set)
	return c
}

// sameProjectable reports whether two entries denote the same projected
// value: entity projections by identity, scalars structurally.
func sameProjectable(a, b Projectable) bool {
	switch x := a.(type) {
	case *EntityProjection:
		y, ok := b.(*EntityProjection)
		return ok && x == y
	case sqlexpr.Expr:
		y, ok := b.(sqlexpr.Expr)
		return ok && sqlexpr.Equal(x, y)
	default:
		return false
	}
}
