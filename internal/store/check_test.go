package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.ApplyModel(ctx, createTestModel(t)))

	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{
			name:  "projection with join",
			query: `SELECT "c"."Name", "o"."Placed" FROM "Customer" AS "c" LEFT JOIN "Orders" AS "o" ON ("c"."Id" = "o"."CustomerId") ORDER BY "c"."Id" ASC`,
		},
		{
			name:  "bound parameters",
			query: `SELECT "c"."Id" FROM "Customer" AS "c" WHERE ("c"."Name" = ?) ORDER BY "c"."Id" ASC LIMIT ?`,
		},
		{
			name:  "strftime",
			query: `SELECT CAST(strftime('%Y', "o"."Placed") AS INTEGER) FROM "Orders" AS "o"`,
		},
		{
			name:    "unknown column",
			query:   `SELECT "c"."Missing" FROM "Customer" AS "c"`,
			wantErr: true,
		},
		{
			name:    "unknown table",
			query:   `SELECT 1 FROM "Nope"`,
			wantErr: true,
		},
		{
			name:    "syntax error",
			query:   `SELEC 1`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Check(ctx, tt.query)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var checkErr *CheckError
			require.True(t, errors.As(err, &checkErr))
			assert.Equal(t, tt.query, checkErr.SQL)
			assert.NotNil(t, errors.Unwrap(err))
		})
	}
}
