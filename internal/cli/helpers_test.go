package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const (
	shopModelDir = "../harness/testdata/models/shop"
	scenariosDir = "../harness/testdata/scenarios"
)

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeCUE writes a single-file model into a fresh directory.
func writeCUE(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.cue"), []byte(content), 0644))
	return dir
}

// writeScenario writes a scenario over the shop model into dir.
func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	model, err := filepath.Abs(shopModelDir)
	require.NoError(t, err)

	path := filepath.Join(dir, name+".yaml")
	content := "name: " + name + "\nmodel: " + model + "\n" + body
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const customerNames = `root: Customer
shape:
  new: Row
  fields:
    Name: {member: Name, of: {entity: Customer}}
expect:
  mode: server_only
  sql: 'SELECT "c"."Name" FROM "Customer" AS "c" ORDER BY "c"."Id" ASC'
`
