package query

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/sqlexpr"
)

// Layout is the flattened SELECT list of a Select and where each slot and
// projection-list entry landed in it. Entity projections expand to one
// column per property.
type Layout struct {
	Columns []sqlexpr.Expr
	Slots   []SlotLayout
	Entries [][]int
}

// SlotLayout gives the column positions computing one mapped slot.
type SlotLayout struct {
	Member  expr.ProjectionMember
	Columns []int
}

// ApplyProjection flattens the mapping (in registration order) and then
// the projection list into distinct columns.
func (s *Select) ApplyProjection() *Layout {
	l := &Layout{}
	s.mapping.Each(func(member expr.ProjectionMember, p Projectable) {
		l.Slots = append(l.Slots, SlotLayout{Member: member, Columns: l.add(p)})
	})
	for _, p := range s.projection {
		l.Entries = append(l.Entries, l.add(p))
	}
	return l
}

func (l *Layout) add(p Projectable) []int {
	switch v := p.(type) {
	case *EntityProjection:
		indexes := make([]int, 0, len(v.columns))
		for _, col := range v.columns {
			indexes = append(indexes, l.addColumn(col))
		}
		return indexes
	case sqlexpr.Expr:
		return []int{l.addColumn(v)}
	default:
		return nil
	}
}

func (l *Layout) addColumn(e sqlexpr.Expr) int {
	for i, existing := range l.Columns {
		if sqlexpr.Equal(existing, e) {
			return i
		}
	}
	l.Columns = append(l.Columns, e)
	return len(l.Columns) - 1
}
