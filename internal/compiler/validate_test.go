package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qshape/internal/ir"
)

func idProp() ir.Property {
	return ir.Property{Name: "Id", Type: ir.TypeInt, Column: "Id"}
}

func codes(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateEntity(t *testing.T) {
	tests := []struct {
		name   string
		entity *ir.EntityType
		want   []string
	}{
		{
			name:   "valid",
			entity: &ir.EntityType{Name: "Tag", Key: []string{"Id"}, Properties: []ir.Property{idProp()}},
		},
		{
			name:   "no properties",
			entity: &ir.EntityType{Name: "Tag"},
			want:   []string{ErrEntityNoProperties, ErrEntityNoKey},
		},
		{
			name:   "unknown key",
			entity: &ir.EntityType{Name: "Tag", Key: []string{"Code"}, Properties: []ir.Property{idProp()}},
			want:   []string{ErrUnknownKeyProperty},
		},
		{
			name: "nullable key",
			entity: &ir.EntityType{Name: "Tag", Key: []string{"Id"}, Properties: []ir.Property{
				{Name: "Id", Type: ir.TypeInt, Column: "Id", Nullable: true},
			}},
			want: []string{ErrNullableKeyProperty},
		},
		{
			name: "invalid and float types",
			entity: &ir.EntityType{Name: "Tag", Key: []string{"Id"}, Properties: []ir.Property{
				idProp(),
				{Name: "Uid", Type: "uuid", Column: "Uid"},
				{Name: "Weight", Type: "float64", Column: "Weight"},
			}},
			want: []string{ErrInvalidFieldType, ErrFloatTypeForbidden},
		},
		{
			name: "duplicate column ignores case",
			entity: &ir.EntityType{Name: "Tag", Key: []string{"Id"}, Properties: []ir.Property{
				idProp(),
				{Name: "Label", Type: ir.TypeString, Column: "ID"},
			}},
			want: []string{ErrDuplicateName},
		},
		{
			name: "navigation shadows property",
			entity: &ir.EntityType{
				Name:        "Tag",
				Key:         []string{"Id"},
				Properties:  []ir.Property{idProp(), {Name: "Parent", Type: ir.TypeInt, Column: "Parent"}},
				Navigations: []ir.Navigation{{Name: "Parent", Target: "Tag", ForeignKey: []string{"Parent"}}},
			},
			want: []string{ErrNavigationShadowsProp},
		},
		{
			name: "navigation without foreign key",
			entity: &ir.EntityType{
				Name:        "Tag",
				Key:         []string{"Id"},
				Properties:  []ir.Property{idProp()},
				Navigations: []ir.Navigation{{Name: "Parent", Target: "Tag"}},
			},
			want: []string{ErrNoForeignKey},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(Validate(tt.entity)))
		})
	}
}

func TestValidateModelNavigations(t *testing.T) {
	newModel := func(t *testing.T, nav ir.Navigation) *ir.Model {
		t.Helper()
		m, err := ir.NewModel("Blogging",
			&ir.EntityType{
				Name:        "Blog",
				Key:         []string{"Id"},
				Properties:  []ir.Property{idProp()},
				Navigations: []ir.Navigation{nav},
			},
			&ir.EntityType{
				Name:       "Post",
				Key:        []string{"Id"},
				Properties: []ir.Property{idProp(), {Name: "BlogId", Type: ir.TypeInt}, {Name: "Slot", Type: ir.TypeInt}},
			},
		)
		require.NoError(t, err)
		return m
	}

	tests := []struct {
		name string
		nav  ir.Navigation
		want []string
	}{
		{"collection fk on target", ir.Navigation{Name: "Posts", Target: "Post", Collection: true, ForeignKey: []string{"BlogId"}}, nil},
		{"collection fk missing on target", ir.Navigation{Name: "Posts", Target: "Post", Collection: true, ForeignKey: []string{"Owner"}}, []string{ErrUnknownForeignKey}},
		{"reference fk on declaring entity", ir.Navigation{Name: "Pinned", Target: "Post", ForeignKey: []string{"BlogId"}}, []string{ErrUnknownForeignKey}},
		{"fk arity", ir.Navigation{Name: "Posts", Target: "Post", Collection: true, ForeignKey: []string{"BlogId", "Slot"}}, []string{ErrForeignKeyArity}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(Validate(newModel(t, tt.nav))))
		})
	}
}

func TestValidateUnknownNavigationTarget(t *testing.T) {
	// A model assembled without NewModel has no index, so every target is
	// unknown.
	m := &ir.Model{Entities: []*ir.EntityType{{
		Name:        "Post",
		Key:         []string{"Id"},
		Properties:  []ir.Property{idProp()},
		Navigations: []ir.Navigation{{Name: "Blog", Target: "Blog", ForeignKey: []string{"BlogId"}}},
	}}}

	errs := Validate(m)
	assert.Equal(t, []string{ErrUnknownNavTarget}, codes(errs))
	assert.Equal(t, "entity.Post.navigations[0].target", errs[0].Field)
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("not a model")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedIRType, errs[0].Code)
}

func TestValidationErrorFormat(t *testing.T) {
	tests := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Field: "entity.Tag.key", Message: "entity must have a key", Code: ErrEntityNoKey}, "[E102] entity.Tag.key: entity must have a key"},
		{ValidationError{Field: "entity.Tag.key", Message: "entity must have a key", Code: ErrEntityNoKey, Line: 7}, "[E102] line 7: entity.Tag.key: entity must have a key"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}
