package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zate/searchbar/internal/db"
	"github.com/zate/searchbar/internal/search"
)

func setupMCPTest(t *testing.T) {
	t.Helper()
	dbPath = filepath.Join(t.TempDir(), "test.db")
	profilePath = ""
	// Open once to run migrations
	d, err := db.Open(dbPath)
	require.NoError(t, err)
	d.Close()
}

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return result.Content[0].(mcp.TextContent).Text
}

func TestHandleParse(t *testing.T) {
	setupMCPTest(t)

	result, err := handleParse(context.Background(), makeReq(map[string]interface{}{
		"query": "browser:Chrome age:-24h",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, "| # | type |")
	assert.Contains(t, text, "Valid query: 2 filter(s)")
}

func TestHandleParse_Problems(t *testing.T) {
	setupMCPTest(t)

	result, err := handleParse(context.Background(), makeReq(map[string]interface{}{
		"query":  "timesSeen:abc",
		"format": "text",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, string(search.InvalidNumber))
	assert.Contains(t, text, "1 problem(s)")
}

func TestHandleParse_JSON(t *testing.T) {
	setupMCPTest(t)

	result, err := handleParse(context.Background(), makeReq(map[string]interface{}{
		"query":  "level:error",
		"format": "json",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, `"tokens"`)
	assert.Contains(t, text, `"summary"`)
}

func TestHandleParse_MissingQuery(t *testing.T) {
	setupMCPTest(t)

	result, err := handleParse(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleEdit(t *testing.T) {
	setupMCPTest(t)

	result, err := handleEdit(context.Background(), makeReq(map[string]interface{}{
		"query":  "browser:Chrome level:error",
		"action": "delete_token",
		"item":   "filter:0",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, "Query: level:error\n")
	assert.Contains(t, text, "- filter:0: level:error")
}

func TestHandleEdit_Toggle(t *testing.T) {
	setupMCPTest(t)

	result, err := handleEdit(context.Background(), makeReq(map[string]interface{}{
		"query":  "level:error",
		"action": "toggle_filter_value",
		"item":   "filter:0",
		"text":   "fatal",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Query: level:[error,fatal]")
}

func TestHandleEdit_Errors(t *testing.T) {
	setupMCPTest(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing action", map[string]interface{}{"query": "a:b"}},
		{"unknown action", map[string]interface{}{"query": "a:b", "action": "explode"}},
		{"unknown item", map[string]interface{}{"query": "a:b", "action": "delete_token", "item": "filter:3"}},
		{"bad operator", map[string]interface{}{"query": "a:b", "action": "update_filter_op", "item": "filter:0", "operator": "~"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := handleEdit(context.Background(), makeReq(tc.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestHandleValues(t *testing.T) {
	setupMCPTest(t)

	result, err := handleValues(context.Background(), makeReq(map[string]interface{}{
		"raw": `a, "b,c", d*`,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, `"value": "b,c"`)
	assert.Contains(t, text, `"wildcard": "trailing"`)

	result, err = handleValues(context.Background(), makeReq(map[string]interface{}{
		"raw":  "500k",
		"kind": "number",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"parsed": 500000`)
}

func TestHandleValues_Invalid(t *testing.T) {
	setupMCPTest(t)

	result, err := handleValues(context.Background(), makeReq(map[string]interface{}{
		"raw": `"open`,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = handleValues(context.Background(), makeReq(map[string]interface{}{
		"raw":  "1",
		"kind": "colour",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSave_Saved_Delete(t *testing.T) {
	setupMCPTest(t)

	result, err := handleSave(context.Background(), makeReq(map[string]interface{}{
		"name":        "chrome-errors",
		"query":       "browser:Chrome level:error",
		"description": "Chrome errors",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Saved search chrome-errors")

	// Saving the same name replaces the query
	result, err = handleSave(context.Background(), makeReq(map[string]interface{}{
		"name":  "chrome-errors",
		"query": "browser:Chrome level:fatal",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	result, err = handleSaved(context.Background(), makeReq(map[string]interface{}{
		"id": "chrome-errors",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, "level:fatal")
	assert.Contains(t, text, "Chrome errors")

	result, err = handleSaved(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text = resultText(t, result)
	assert.Contains(t, text, "**chrome-errors**")
	assert.Contains(t, text, "**"+db.DefaultSearchName+"**")

	result, err = handleDelete(context.Background(), makeReq(map[string]interface{}{
		"id": "chrome-errors",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	result, err = handleSaved(context.Background(), makeReq(map[string]interface{}{
		"id": "chrome-errors",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSave_Invalid(t *testing.T) {
	setupMCPTest(t)

	result, err := handleSave(context.Background(), makeReq(map[string]interface{}{
		"name":  "has space",
		"query": "level:error",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = handleSave(context.Background(), makeReq(map[string]interface{}{
		"name": "no-query",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"single", []string{"single"}},
		{"", nil},
		{",,,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, splitAndTrim(tt.input))
		})
	}
}
