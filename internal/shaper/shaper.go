// Package shaper builds entity materialization descriptors.
//
// A Shaper lives for one compilation. Descriptors are deduplicated by the
// identity of their backing entity projection: however many places in the
// output shape reference the same backing row, they share one *Descriptor,
// so at most one instance per backing row is in flight during
// materialization.
package shaper

import (
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/query"
)

// Descriptor describes how to materialize one entity instance.
type Descriptor struct {
	Entity   *ir.EntityType
	Backing  *query.EntityProjection
	Includes []IncludeDescriptor
}

// IncludeDescriptor attaches an eagerly loaded relation.
type IncludeDescriptor struct {
	Navigation ir.Navigation
	Collection bool
	Target     *Descriptor
}

// Include finds the include for a navigation name.
func (d *Descriptor) Include(navigation string) (IncludeDescriptor, bool) {
	for _, inc := range d.Includes {
		if inc.Navigation.Name == navigation {
			return inc, true
		}
	}
	return IncludeDescriptor{}, false
}

// IncludeTree is the eager-load request for one relation of an entity.
type IncludeTree struct {
	Navigation ir.Navigation
	Entity     *ir.EntityType
	Backing    *query.EntityProjection
	Includes   []IncludeTree
}

// Shaper binds descriptors. Not safe for concurrent use.
type Shaper struct {
	byBacking map[*query.EntityProjection]*Descriptor
	order     []*Descriptor
}

// New creates an empty shaper.
func New() *Shaper {
	return &Shaper{byBacking: make(map[*query.EntityProjection]*Descriptor)}
}

// Bind returns the descriptor for backing, creating it on first use, and
// binds each include recursively. Rebinding a known backing merges
// includes whose navigation it does not carry yet.
func (s *Shaper) Bind(entity *ir.EntityType, backing *query.EntityProjection, includes []IncludeTree) *Descriptor {
	d, ok := s.byBacking[backing]
	if !ok {
		d = &Descriptor{Entity: entity, Backing: backing}
		s.byBacking[backing] = d
		s.order = append(s.order, d)
	}
	for _, inc := range includes {
		target := s.Bind(inc.Entity, inc.Backing, inc.Includes)
		if _, exists := d.Include(inc.Navigation.Name); exists {
			continue
		}
		d.Includes = append(d.Includes, IncludeDescriptor{
			Navigation: inc.Navigation,
			Collection: inc.Navigation.Collection,
			Target:     target,
		})
	}
	return d
}

// Lookup returns the descriptor bound to backing.
func (s *Shaper) Lookup(backing *query.EntityProjection) (*Descriptor, bool) {
	d, ok := s.byBacking[backing]
	return d, ok
}

// Descriptors lists bound descriptors in bind order.
func (s *Shaper) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports the number of distinct descriptors.
func (s *Shaper) Len() int {
	return len(s.order)
}
