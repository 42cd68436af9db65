package cmd

import (
	"bytes"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestParseCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	out, err := runCLI(t, "parse", "browser:Chrome", "--db", db, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, `filter "browser:Chrome" [0:14]`)
	assert.Contains(t, out, "1 filter(s)")
	assert.Contains(t, out, "valid")

	out, err = runCLI(t, "parse", "count:abc", "--db", db, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "! INVALID_NUMBER")
	assert.Contains(t, out, "1 problem(s)")
}

func TestParseCommand_Table(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	out, err := runCLI(t, "parse", "a:1 b:2", "--db", db, "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "filter:0")
	assert.Contains(t, out, "filter:1")
}

func TestParseCommand_TooDeep(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	deep := ""
	for i := 0; i < 100; i++ {
		deep += "("
	}
	deep += "a"
	for i := 0; i < 100; i++ {
		deep += ")"
	}

	_, err := runCLI(t, "parse", deep, "--db", db, "--format", "text")
	assert.Error(t, err)
}

func TestEditCommand_Session(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	out, err := runCLI(t, "edit", "level:error", "--db", db, "--format", "text",
		"--session", "new", "--action", "toggle_filter_value", "--item", "filter:0", "--text", "fatal")
	require.NoError(t, err)
	assert.Contains(t, out, "level:[error,fatal]\n")

	m := regexp.MustCompile(`session: (\S+)`).FindStringSubmatch(out)
	require.Len(t, m, 2)
	id := m[1]

	out, err = runCLI(t, "edit", "--db", db, "--format", "text",
		"--session", id, "--action", "delete_last_value", "--item", "filter:0")
	require.NoError(t, err)
	assert.Contains(t, out, "level:error\n")
	assert.Contains(t, out, "session: "+id)
}

func TestSavedSearchCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	out, err := runCLI(t, "save", "chrome", "browser:Chrome", "--db", db, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved: chrome")

	_, err = runCLI(t, "save", "broken", "count:abc", "--db", db, "--format", "text")
	assert.Error(t, err)

	out, err = runCLI(t, "list", "--db", db, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "chrome: browser:Chrome")
	assert.Contains(t, out, "unresolved: is:unresolved")
	assert.NotContains(t, out, "broken")

	out, err = runCLI(t, "show", "chrome", "--db", db, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Query:   browser:Chrome")

	out, err = runCLI(t, "delete", "chrome", "--db", db, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted: chrome")

	_, err = runCLI(t, "show", "chrome", "--db", db, "--format", "text")
	assert.Error(t, err)
}

func TestValuesCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	out, err := runCLI(t, "values", "2gb", "--kind", "size", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, `"unit": "gb"`)

	_, err = runCLI(t, "values", "maybe", "--kind", "boolean", "--db", db)
	assert.Error(t, err)
}
