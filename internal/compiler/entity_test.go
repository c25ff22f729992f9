package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qshape/internal/ir"
)

func compileString(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v
}

func TestCompileModel(t *testing.T) {
	v := compileString(t, `
context: "Shop"

entity: Customer: {
	properties: {
		Id:    int
		Name:  string
		Email: {type: "string", column: "email_address", nullable: true}
		Photo: bytes
	}
	navigations: Orders: {target: "Order", collection: true, foreign_key: ["CustomerId"]}
}

entity: Order: {
	table: "Orders"
	container: "sales"
	key: ["Number"]
	properties: {
		Number:     int
		CustomerId: int
		Shipped:    bool
		Placed:     {type: "datetime"}
	}
	navigations: Customer: {target: "Customer", foreign_key: ["CustomerId"]}
}
`)

	m, err := CompileModel(v)
	require.NoError(t, err)
	assert.Equal(t, "Shop", m.Context)
	require.Len(t, m.Entities, 2)
	assert.Equal(t, "Customer", m.Entities[0].Name, "declaration order is kept")

	customer := m.Entities[0]
	assert.Equal(t, "Customer", customer.Table)
	assert.Equal(t, "Shop", customer.Container)
	assert.Equal(t, []string{"Id"}, customer.Key, "Id is the default key")
	assert.Equal(t, []ir.Property{
		{Name: "Id", Type: ir.TypeInt, Column: "Id"},
		{Name: "Name", Type: ir.TypeString, Column: "Name"},
		{Name: "Email", Type: ir.TypeString, Column: "email_address", Nullable: true},
		{Name: "Photo", Type: ir.TypeBytes, Column: "Photo"},
	}, customer.Properties)
	assert.Equal(t, []ir.Navigation{
		{Name: "Orders", Target: "Order", Collection: true, ForeignKey: []string{"CustomerId"}},
	}, customer.Navigations)

	order := m.Entities[1]
	assert.Equal(t, "Orders", order.Table)
	assert.Equal(t, "sales", order.Container)
	assert.Equal(t, []string{"Number"}, order.Key)
	placed, ok := order.Property("Placed")
	require.True(t, ok)
	assert.Equal(t, ir.TypeDateTime, placed.Type)

	assert.Empty(t, Validate(m))
}

func TestCompileModelErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
	}{
		{
			name:  "missing context",
			src:   `entity: Tag: properties: Id: int`,
			field: "context",
			msg:   "context name is required",
		},
		{
			name:  "no entities",
			src:   `context: "Empty"`,
			field: "entity",
			msg:   "at least one entity is required",
		},
		{
			name:  "no properties",
			src:   `context: "X", entity: Tag: {table: "tags"}`,
			field: "properties",
			msg:   "entity Tag must declare at least one property",
		},
		{
			name:  "property without type",
			src:   `context: "X", entity: Tag: properties: Id: {column: "id"}`,
			field: "type",
			msg:   "property Id: type is required",
		},
		{
			name:  "unknown type",
			src:   `context: "X", entity: Tag: properties: Id: {type: "uuid"}`,
			field: "type",
			msg:   `property Id: unknown type "uuid"`,
		},
		{
			name:  "bare float",
			src:   `context: "X", entity: Tag: properties: {Id: int, Weight: float}`,
			field: "type",
			msg:   "float types are forbidden",
		},
		{
			name:  "bare number",
			src:   `context: "X", entity: Tag: properties: {Id: int, Weight: number}`,
			field: "type",
			msg:   "float types are forbidden",
		},
		{
			name:  "navigation without target",
			src:   `context: "X", entity: Tag: {properties: Id: int, navigations: Parent: {foreign_key: ["Id"]}}`,
			field: "navigations",
			msg:   "navigation Parent: target is required",
		},
		{
			name:  "unknown navigation target",
			src:   `context: "X", entity: Tag: {properties: Id: int, navigations: Parent: {target: "Group", foreign_key: ["Id"]}}`,
			field: "entity",
			msg:   `targets unknown entity "Group"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileModel(compileString(t, tt.src))
			require.Error(t, err)

			var compileErr *CompileError
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, tt.field, compileErr.Field)
			assert.Contains(t, compileErr.Message, tt.msg)
		})
	}
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "type", Message: "float types are forbidden"}
	assert.Equal(t, "type: float types are forbidden", err.Error())
}
