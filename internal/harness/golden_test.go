package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qshape/internal/ir"
)

// TestRunWithGolden_Scenarios compares every scenario report with its
// golden file. To regenerate:
//
//	go test ./internal/harness -run TestRunWithGolden_Scenarios -update
func TestRunWithGolden_Scenarios(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "scenario name must match its file name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalReport_Canonical(t *testing.T) {
	r := &Report{
		Scenario:    "s",
		Dialect:     "sqlite",
		Mode:        "server_only",
		Passes:      []string{"server_only"},
		Slots:       []SlotReport{{Slot: "Name", Columns: []int{0}}},
		SQL:         `SELECT "c"."Name" FROM "Customer" AS "c" WHERE ("c"."Photo" = ?)`,
		Params:      []any{[]byte{0xca, 0xfe}},
		Fingerprint: "f",
		Checked:     true,
	}

	data, err := MarshalReport(r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"checked":true,"dialect":"sqlite","fingerprint":"f","mode":"server_only","params":["cafe"],"passes":["server_only"],"projections":0,"scenario":"s","slots":[{"columns":[0],"slot":"Name"}],"sql":"SELECT \"c\".\"Name\" FROM \"Customer\" AS \"c\" WHERE (\"c\".\"Photo\" = ?)"}`,
		string(data))
}

func TestMarshalReport_ErrorReport(t *testing.T) {
	data, err := MarshalReport(&Report{Scenario: "bad", Dialect: "sqlite", Error: "AMBIGUOUS_SLOT"})
	require.NoError(t, err)
	assert.Equal(t, `{"dialect":"sqlite","error":"AMBIGUOUS_SLOT","projections":0,"scenario":"bad"}`, string(data))
}

func TestMarshalReport_Stable(t *testing.T) {
	r := &Report{
		Scenario:   "s",
		Dialect:    "sqlite",
		Parameters: map[string]string{"b": "2", "a": `"x"`},
		Entities: []EntityReport{
			{Entity: "Customer", Table: "c", Includes: []string{"Orders"}},
			{Entity: "Order", Table: "o"},
		},
	}

	first, err := MarshalReport(r)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalReport(r)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
	assert.Contains(t, string(first), `"parameters":{"a":"\"x\"","b":"2"}`)
	assert.Contains(t, string(first), `"entities":[{"entity":"Customer","includes":["Orders"],"table":"c"},{"entity":"Order","table":"o"}]`)
}

func TestGolden_FingerprintMatchesSQL(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/entity_paging.yaml")
	require.NoError(t, err)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, ir.QueryFingerprint(result.Report.SQL), result.Report.Fingerprint)
}
