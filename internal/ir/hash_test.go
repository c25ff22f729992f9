package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFingerprint(t *testing.T) {
	sql := `SELECT "c"."Name" FROM "Customer" AS "c" ORDER BY "c"."Id" ASC`

	want := sha256.Sum256([]byte(DomainQueryText + "\x00" + sql))
	assert.Equal(t, hex.EncodeToString(want[:]), QueryFingerprint(sql))
	assert.Len(t, QueryFingerprint(sql), 64)
}

func TestQueryFingerprintDeterminism(t *testing.T) {
	sql := `SELECT [r].[Boundary].STArea() FROM [Region] AS [r] ORDER BY [r].[Id] ASC`
	first := QueryFingerprint(sql)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, QueryFingerprint(sql))
	}
}

func TestQueryFingerprintChangesWithText(t *testing.T) {
	a := QueryFingerprint(`SELECT "c"."Name" FROM "Customer" AS "c"`)
	b := QueryFingerprint(`SELECT "c"."Name" FROM "Customer" AS "c" `)
	assert.NotEqual(t, a, b)
}

func TestDomainSeparation(t *testing.T) {
	// The same bytes under different domains never share a hash.
	data := []byte(`"x"`)
	assert.NotEqual(t, hashWithDomain(DomainQueryText, data), hashWithDomain(DomainPlan, data))
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	// Without the separator, ("ab", "c") and ("a", "bc") would collide.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestPlanFingerprint(t *testing.T) {
	a, err := PlanFingerprint(map[string]any{"mode": "mixed", "projections": 3})
	require.NoError(t, err)
	b, err := PlanFingerprint(map[string]any{"projections": 3, "mode": "mixed"})
	require.NoError(t, err)
	assert.Equal(t, a, b, "key order must not matter")

	_, err = PlanFingerprint(map[string]any{"ratio": 0.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PlanFingerprint")
}

func TestDomainConstants(t *testing.T) {
	assert.Equal(t, "qshape/query/v1", DomainQueryText)
	assert.Equal(t, "qshape/plan/v1", DomainPlan)
}
