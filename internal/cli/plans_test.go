package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qshape/internal/store"
)

// seedPlans translates scenarios into a fresh plan cache.
func seedPlans(t *testing.T, names ...string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "plans.db")
	for _, name := range names {
		_, _, err := execute(NewTranslateCommand(&RootOptions{Format: "text"}), scenarioPath(name), "--db", dbPath)
		require.NoError(t, err)
	}
	return dbPath
}

func TestPlansList(t *testing.T) {
	dbPath := seedPlans(t, "server_only_record", "sqlserver_geometry")

	out, _, err := execute(NewPlansCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "#1 ")
	assert.Contains(t, out, "[sqlite, server_only]")
	assert.Contains(t, out, "#2 ")
	assert.Contains(t, out, "[sqlserver, server_only]")
	assert.Contains(t, out, "2 plan(s)")
}

func TestPlansListJSON(t *testing.T) {
	dbPath := seedPlans(t, "entity_paging")

	out, _, err := execute(NewPlansCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   []PlanView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(1), resp.Data[0].Seq)
	assert.JSONEq(t, `[1,"A","A",10,5]`, string(resp.Data[0].Params))
	assert.Empty(t, resp.Data[0].Report, "listing omits reports")
}

func TestPlansShowFingerprint(t *testing.T) {
	dbPath := seedPlans(t, "mixed_fallback")

	list, _, err := execute(NewPlansCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.NoError(t, err)
	var listed struct {
		Data []PlanView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(list), &listed))
	require.Len(t, listed.Data, 1)
	fp := listed.Data[0].Fingerprint

	out, _, err := execute(NewPlansCommand(&RootOptions{Format: "json"}), "--db", dbPath, "--fingerprint", fp)
	require.NoError(t, err)

	var resp struct {
		Data        PlanView `json:"data"`
		Fingerprint string   `json:"fingerprint"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, fp, resp.Fingerprint)
	assert.Equal(t, "mixed", resp.Data.Mode)

	var report map[string]any
	require.NoError(t, json.Unmarshal(resp.Data.Report, &report))
	assert.Equal(t, "mixed_fallback", report["scenario"])
	assert.Equal(t, "Program.ComputeTag(x)", report["fallback"])
}

func TestPlansEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "plans.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(NewPlansCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No plans cached.")
}

func TestPlansErrors(t *testing.T) {
	dbPath := seedPlans(t, "root_scalar")

	tests := []struct {
		name     string
		args     []string
		exitCode int
		code     string
	}{
		{"missing_database", []string{"--db", filepath.Join(t.TempDir(), "missing.db")}, ExitCommandError, ErrCodeDatabase},
		{"unknown_fingerprint", []string{"--db", dbPath, "--fingerprint", "deadbeef"}, ExitFailure, ErrCodePlanMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(NewPlansCommand(&RootOptions{Format: "json"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestShortFingerprint(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortFingerprint("0123456789abcdef"))
	assert.Equal(t, "abc", shortFingerprint("abc"))
}
