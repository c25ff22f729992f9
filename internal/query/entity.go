package query

import (
	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/sqlexpr"
)

// EntityProjection is the row fragment backing one entity instance: one
// column per mapped property of Entity, read from the table aliased Table.
//
// Identity matters: two slots holding the same *EntityProjection are backed
// by the same row, and the entity shaper shares one descriptor for them.
type EntityProjection struct {
	Entity   *ir.EntityType
	Table    string
	Nullable bool

	columns []*sqlexpr.Column
}

func newEntityProjection(f *sqlexpr.Factory, entity *ir.EntityType, alias string, nullable bool) *EntityProjection {
	ep := &EntityProjection{Entity: entity, Table: alias, Nullable: nullable}
	for _, p := range entity.Properties {
		ep.columns = append(ep.columns, f.Column(alias, p.Column, expr.Scalar(p.Type), p.Nullable || nullable))
	}
	return ep
}

// Type implements Projectable.
func (p *EntityProjection) Type() expr.Type {
	return expr.Scalar(p.Entity.Name)
}

// BindProperty returns the column storing the named property.
func (p *EntityProjection) BindProperty(name string) (*sqlexpr.Column, bool) {
	for i, prop := range p.Entity.Properties {
		if prop.Name == name {
			return p.columns[i], true
		}
	}
	return nil, false
}

// Columns returns the property columns in property declaration order.
func (p *EntityProjection) Columns() []*sqlexpr.Column {
	out := make([]*sqlexpr.Column, len(p.columns))
	copy(out, p.columns)
	return out
}
