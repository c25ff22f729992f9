package sqlserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/sqlexpr"
)

func TestNew(t *testing.T) {
	p := New()
	assert.Equal(t, "sqlserver", p.Name)
	assert.Equal(t, []string{"relational", "sqlserver.builtin", "sqlserver.geometry"}, p.Registry.Plugins())
	assert.Equal(t, "geometry", p.Factory.FindMapping(GeometryType).StoreType)
	assert.Equal(t, "nvarchar(max)", p.Factory.FindMapping(expr.StringType).StoreType)
}

func TestTranslateMember(t *testing.T) {
	p := New()
	f := p.Factory
	shape := f.Column("s", "Shape", GeometryType, false)
	parts := f.Column("s", "Parts", GeometryCollectionType, false)
	created := f.Column("o", "Created", expr.DateTimeType, false)
	name := f.Column("c", "Name", expr.StringType, false)

	tests := []struct {
		name      string
		instance  sqlexpr.Expr
		declaring string
		member    string
		typ       expr.Type
		want      string
	}{
		{"geometry area", shape, "Geometry", "Area", expr.IntType, "[s].[Shape].STArea()"},
		{"geometry is empty", shape, "Geometry", "IsEmpty", expr.BoolType, "[s].[Shape].STIsEmpty()"},
		{"geometry length", shape, "Geometry", "Length", expr.IntType, "[s].[Shape].STLength()"},
		{"collection count", parts, "GeometryCollection", "Count", expr.IntType, "[s].[Parts].STNumGeometries()"},
		{"year", created, "DateTime", "Year", expr.IntType, "YEAR([o].[Created])"},
		{"month", created, "DateTime", "Month", expr.IntType, "MONTH([o].[Created])"},
		{"day", created, "DateTime", "Day", expr.IntType, "DAY([o].[Created])"},
		{"now", nil, "DateTime", "Now", expr.DateTimeType, "GETDATE()"},
		{"utc now", nil, "DateTime", "UtcNow", expr.DateTimeType, "GETUTCDATE()"},
		{"string length", name, "string", "Length", expr.IntType, "LEN([c].[Name])"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := p.Registry.TranslateMember(tt.instance, &expr.Member{Declaring: tt.declaring, Name: tt.member, Typ: tt.typ})
			require.True(t, ok)
			sql, params, err := p.Generator().Expression(out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
			assert.Empty(t, params)
			assert.Equal(t, tt.typ, out.Type())
		})
	}
}

func TestTranslateMember_Unmatched(t *testing.T) {
	p := New()
	shape := p.Factory.Column("s", "Shape", GeometryType, false)

	tests := []struct {
		name     string
		instance sqlexpr.Expr
		member   *expr.Member
	}{
		{"static geometry member", nil, &expr.Member{Declaring: "Geometry", Name: "Area", Typ: expr.IntType}},
		{"instance now", shape, &expr.Member{Declaring: "DateTime", Name: "Now", Typ: expr.DateTimeType}},
		{"unknown member", shape, &expr.Member{Declaring: "Geometry", Name: "Centroid", Typ: GeometryType}},
		{"sqlite-only member", shape, &expr.Member{Declaring: "DateTime", Name: "DayOfYear", Typ: expr.IntType}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := p.Registry.TranslateMember(tt.instance, tt.member)
			assert.False(t, ok)
		})
	}
}

func TestTranslateCall(t *testing.T) {
	p := New()
	f := p.Factory
	name := f.Column("c", "Name", expr.StringType, false)

	out, ok := p.Registry.TranslateCall(name, &expr.Call{Declaring: "string", Method: "ToUpper", Typ: expr.StringType}, nil)
	require.True(t, ok)
	sql, _, err := p.Generator().Expression(out)
	require.NoError(t, err)
	assert.Equal(t, "UPPER([c].[Name])", sql)

	out, ok = p.Registry.TranslateCall(nil, &expr.Call{Declaring: "string", Method: "Concat", Typ: expr.StringType},
		[]sqlexpr.Expr{name, f.Constant(ir.IRString("!"), expr.StringType)})
	require.True(t, ok)
	sql, params, err := p.Generator().Expression(out)
	require.NoError(t, err)
	assert.Equal(t, "([c].[Name] + ?)", sql)
	assert.Equal(t, []any{"!"}, params)
}

func TestSQL(t *testing.T) {
	d := SQL{}
	assert.Equal(t, "[Order]", d.QuoteIdentifier("Order"))
	assert.Equal(t, "[a]]b]", d.QuoteIdentifier("a]b"))
	assert.Equal(t, "+", d.ConcatOperator())

	tests := []struct {
		limit, offset bool
		want          string
		wantOrder     []string
	}{
		{false, false, "", nil},
		{true, false, "OFFSET 0 ROWS FETCH NEXT $limit ROWS ONLY", []string{"limit"}},
		{false, true, "OFFSET $offset ROWS", []string{"offset"}},
		{true, true, "OFFSET $offset ROWS FETCH NEXT $limit ROWS ONLY", []string{"offset", "limit"}},
	}
	for _, tt := range tests {
		var order []string
		placeholder := func(name string) func() string {
			return func() string {
				order = append(order, name)
				return "$" + name
			}
		}
		var limit, offset func() string
		if tt.limit {
			limit = placeholder("limit")
		}
		if tt.offset {
			offset = placeholder("offset")
		}
		assert.Equal(t, tt.want, d.Paging(limit, offset), "limit=%v offset=%v", tt.limit, tt.offset)
		assert.Equal(t, tt.wantOrder, order, "placeholders bind in text order")
	}
}
