package ir

import "fmt"

// Scalar type names understood by every dialect's type-mapping source.
const (
	TypeString             = "string"
	TypeInt                = "int"
	TypeBool               = "bool"
	TypeDecimal            = "decimal"
	TypeDateTime           = "datetime"
	TypeBytes              = "bytes"
	TypeGeometry           = "geometry"
	TypeGeometryCollection = "geometrycollection"
)

// Model is the compiled entity metadata for one data context.
// Immutable once built by NewModel; safe for concurrent reads.
type Model struct {
	Context          string        `json:"context"`
	DefaultContainer string        `json:"default_container"`
	Entities         []*EntityType `json:"entities"`

	byName map[string]*EntityType
}

// EntityType describes one mapped entity.
type EntityType struct {
	Name        string       `json:"name"`
	Table       string       `json:"table"`
	Container   string       `json:"container"`
	Key         []string     `json:"key"`
	Properties  []Property   `json:"properties"`
	Navigations []Navigation `json:"navigations,omitempty"`
}

// Property is a scalar attribute stored in a column.
type Property struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Column   string `json:"column"`
	Nullable bool   `json:"nullable,omitempty"`
}

// Navigation is a relation from one entity type to another.
type Navigation struct {
	Name       string   `json:"name"`
	Target     string   `json:"target"`
	Collection bool     `json:"collection,omitempty"`
	ForeignKey []string `json:"foreign_key,omitempty"`
}

// NewModel indexes entities and applies naming conventions:
//   - the default container is the context name
//   - an entity's table defaults to its name
//   - an entity's container defaults to the model's default container
//   - a property's column defaults to its name
//
// Returns error on duplicate entity names or navigations to unknown types.
func NewModel(context string, entities ...*EntityType) (*Model, error) {
	m := &Model{
		Context:          context,
		DefaultContainer: context,
		byName:           make(map[string]*EntityType, len(entities)),
	}

	for _, e := range entities {
		if _, dup := m.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate entity type %q", e.Name)
		}
		if e.Table == "" {
			e.Table = e.Name
		}
		if e.Container == "" {
			e.Container = m.DefaultContainer
		}
		for i := range e.Properties {
			if e.Properties[i].Column == "" {
				e.Properties[i].Column = e.Properties[i].Name
			}
		}
		m.byName[e.Name] = e
		m.Entities = append(m.Entities, e)
	}

	for _, e := range m.Entities {
		for _, nav := range e.Navigations {
			if _, ok := m.byName[nav.Target]; !ok {
				return nil, fmt.Errorf("entity %q: navigation %q targets unknown entity %q", e.Name, nav.Name, nav.Target)
			}
		}
	}

	return m, nil
}

// Entity looks up an entity type by name.
func (m *Model) Entity(name string) (*EntityType, bool) {
	e, ok := m.byName[name]
	return e, ok
}

// Property looks up a property by name.
func (e *EntityType) Property(name string) (Property, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Navigation looks up a navigation by name.
func (e *EntityType) Navigation(name string) (Navigation, bool) {
	for _, n := range e.Navigations {
		if n.Name == name {
			return n, true
		}
	}
	return Navigation{}, false
}
