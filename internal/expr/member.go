package expr

import (
	"slices"
	"strconv"
	"strings"
)

// ProjectionMember is a slot key: the ordered path of member identifiers
// from the root of the output shape to a leaf. The zero value is the root.
//
// ProjectionMember is immutable; Append returns a new path.
type ProjectionMember struct {
	path []string
}

// NewProjectionMember builds a member from an explicit path.
func NewProjectionMember(path ...string) ProjectionMember {
	return ProjectionMember{path: slices.Clone(path)}
}

// PositionalMember is the identifier of the i-th argument of a positional
// constructor.
func PositionalMember(i int) string {
	return "#" + strconv.Itoa(i)
}

// Append returns the path extended by id.
func (m ProjectionMember) Append(id string) ProjectionMember {
	path := make([]string, len(m.path)+1)
	copy(path, m.path)
	path[len(m.path)] = id
	return ProjectionMember{path: path}
}

// Path returns a copy of the identifiers, root first.
func (m ProjectionMember) Path() []string {
	return slices.Clone(m.path)
}

// Len returns the path depth. The root has depth 0.
func (m ProjectionMember) Len() int {
	return len(m.path)
}

// IsRoot reports whether m is the empty path.
func (m ProjectionMember) IsRoot() bool {
	return len(m.path) == 0
}

// Equal reports element-wise path equality.
func (m ProjectionMember) Equal(other ProjectionMember) bool {
	return slices.Equal(m.path, other.path)
}

// IsPrefixOf reports whether m is an ancestor of other or equal to it.
func (m ProjectionMember) IsPrefixOf(other ProjectionMember) bool {
	if len(m.path) > len(other.path) {
		return false
	}
	return slices.Equal(m.path, other.path[:len(m.path)])
}

// Parent returns the path without its last identifier.
// Returns false for the root.
func (m ProjectionMember) Parent() (ProjectionMember, bool) {
	if len(m.path) == 0 {
		return m, false
	}
	return ProjectionMember{path: m.path[:len(m.path)-1]}, true
}

// Key returns an injective string encoding usable as a map key.
func (m ProjectionMember) Key() string {
	var b strings.Builder
	for _, id := range m.path {
		b.WriteString(strconv.Quote(id))
		b.WriteByte('/')
	}
	return b.String()
}

func (m ProjectionMember) String() string {
	if len(m.path) == 0 {
		return "<root>"
	}
	return strings.Join(m.path, ".")
}
