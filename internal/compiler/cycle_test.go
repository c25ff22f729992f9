package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qshape/internal/ir"
)

func entity(name string, navs ...ir.Navigation) *ir.EntityType {
	return &ir.EntityType{
		Name:        name,
		Key:         []string{"Id"},
		Properties:  []ir.Property{{Name: "Id", Type: ir.TypeInt}},
		Navigations: navs,
	}
}

func ref(name, target string) ir.Navigation {
	return ir.Navigation{Name: name, Target: target, ForeignKey: []string{name + "Id"}}
}

func many(name, target string) ir.Navigation {
	return ir.Navigation{Name: name, Target: target, Collection: true, ForeignKey: []string{"Id"}}
}

func TestAnalyzeCycles_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(nil))
	assert.Empty(t, AnalyzeCycles(&ir.Model{}))
}

func TestAnalyzeCycles(t *testing.T) {
	tests := []struct {
		name     string
		entities []*ir.EntityType
		want     []CycleWarning
	}{
		{
			name:     "dag",
			entities: []*ir.EntityType{entity("Blog", many("Posts", "Post")), entity("Post", many("Tags", "Tag")), entity("Tag")},
		},
		{
			name:     "self reference",
			entities: []*ir.EntityType{entity("Employee", ref("Manager", "Employee"))},
			want: []CycleWarning{{
				Path:    []string{"Employee", "Employee"},
				Message: "Self-referencing entity detected: Employee → Employee",
				Level:   "warning",
			}},
		},
		{
			name:     "inverse pair",
			entities: []*ir.EntityType{entity("Blog", many("Posts", "Post")), entity("Post", ref("Blog", "Blog"))},
			want: []CycleWarning{{
				Path:    []string{"Blog", "Post", "Blog"},
				Message: "Navigation cycle detected: Blog → Post → Blog",
				Level:   "info",
			}},
		},
		{
			name:     "two references",
			entities: []*ir.EntityType{entity("Husband", ref("Wife", "Wife")), entity("Wife", ref("Husband", "Husband"))},
			want: []CycleWarning{{
				Path:    []string{"Husband", "Wife", "Husband"},
				Message: "Navigation cycle detected: Husband → Wife → Husband",
				Level:   "warning",
			}},
		},
		{
			name: "three entity cycle",
			entities: []*ir.EntityType{
				entity("A", ref("B", "B")),
				entity("B", ref("C", "C")),
				entity("C", ref("A", "A")),
			},
			want: []CycleWarning{{
				Path:    []string{"A", "B", "C", "A"},
				Message: "Navigation cycle detected: A → B → C → A",
				Level:   "warning",
			}},
		},
		{
			name: "sorted by first entity",
			entities: []*ir.EntityType{
				entity("Zone", ref("Parent", "Zone")),
				entity("Area", ref("Parent", "Area")),
			},
			want: []CycleWarning{
				{Path: []string{"Area", "Area"}, Message: "Self-referencing entity detected: Area → Area", Level: "warning"},
				{Path: []string{"Zone", "Zone"}, Message: "Self-referencing entity detected: Zone → Zone", Level: "warning"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ir.NewModel("Test", tt.entities...)
			require.NoError(t, err)

			got := AnalyzeCycles(m)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
