package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qshape/internal/expr"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/sqlexpr"
)

func str(s string) sqlexpr.Expr {
	return &sqlexpr.Constant{Value: ir.IRString(s), Typ: expr.StringType}
}

func fn(name string, args ...sqlexpr.Expr) *sqlexpr.Function {
	return &sqlexpr.Function{Name: name, Args: args, Typ: expr.StringType}
}

func TestNormalizeStrftime(t *testing.T) {
	col := &sqlexpr.Column{Table: "c", Name: "Created", Typ: expr.DateTimeType}

	tests := []struct {
		name string
		in   *sqlexpr.Function
		want *sqlexpr.Function // nil means unchanged
	}{
		{
			name: "other function",
			in:   fn("rtrim", col, str("0")),
		},
		{
			name: "plain timestring",
			in:   fn("strftime", str("%Y"), col),
		},
		{
			name: "direct stored-format strftime",
			in:   fn("strftime", str("%Y"), fn("strftime", str(DateTimeFormat), col, str("+1 days")), str("start of month")),
			want: fn("strftime", str("%Y"), col, str("+1 days"), str("start of month")),
		},
		{
			name: "trimmed date-time value",
			in:   fn("strftime", str("%m"), fn("rtrim", fn("rtrim", fn("strftime", str(DateTimeFormat), col, str("start of day")), str("0")), str("."))),
			want: fn("strftime", str("%m"), col, str("start of day")),
		},
		{
			name: "inner strftime with another format",
			in:   fn("strftime", str("%Y"), fn("strftime", str("%Y-%m"), col)),
		},
		{
			name: "single rtrim is not a date-time value",
			in:   fn("strftime", str("%Y"), fn("rtrim", fn("strftime", str(DateTimeFormat), col), str("0"))),
		},
		{
			name: "instance strftime",
			in:   &sqlexpr.Function{Instance: col, Name: "strftime", Args: []sqlexpr.Expr{str("%Y"), col}, Typ: expr.StringType},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeStrftime(tt.in)
			if tt.want == nil {
				assert.Same(t, tt.in, got)
				return
			}
			assert.True(t, sqlexpr.Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestStrftime_FoldsThroughFactory(t *testing.T) {
	f := sqlexpr.NewFactory(Mappings, NormalizeStrftime)
	col := f.Column("c", "Created", expr.DateTimeType, false)

	nested := Strftime(f, expr.StringType, "%Y", DateTimeValue(f, DateTimeValue(f, col, str("start of day")), str("+1 days")))
	flat := Strftime(f, expr.StringType, "%Y", col, str("start of day"), str("+1 days"))

	require.IsType(t, &sqlexpr.Function{}, nested)
	assert.True(t, sqlexpr.Equal(flat, nested), "nested date-time arithmetic collapses to one strftime call")
	assert.Len(t, nested.(*sqlexpr.Function).Args, 4)
}
