package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/zate/searchbar/internal/builder"
	"github.com/zate/searchbar/internal/db"
	"github.com/zate/searchbar/internal/search"
	"github.com/zate/searchbar/internal/view"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server for MCP clients",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	s := server.NewMCPServer(
		"searchbar",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	registerTools(s)

	return server.ServeStdio(s)
}

func mcpOpenDB() (*db.DB, error) {
	path := dbPath
	if envDB := os.Getenv("SEARCHBAR_DB"); envDB != "" && path == "" {
		path = envDB
	}
	return db.Open(path)
}

func registerTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("search_parse",
		mcp.WithDescription("Tokenize a search bar query and report invalid tokens. Example: 'browser:Chrome age:-24h !level:[error,fatal]'"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithString("format",
			mcp.Description("Output format (default: markdown)"),
			mcp.Enum("markdown", "text", "json"),
		),
	), handleParse)

	s.AddTool(mcp.NewTool("search_edit",
		mcp.WithDescription("Apply a query builder action to a query and return the new query. Tokens are addressed by item key such as 'filter:0' (see search_parse with format json, or the item list in the result)."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Current query"),
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Builder action"),
			mcp.Enum(builder.Commands()...),
		),
		mcp.WithString("item",
			mcp.Description("Target item key"),
		),
		mcp.WithString("items",
			mcp.Description("Comma-separated target item keys"),
		),
		mcp.WithString("text",
			mcp.Description("Text argument: new query, key, value or free text"),
		),
		mcp.WithString("operator",
			mcp.Description("Operator for update_filter_op (gt, >=, ne, ...)"),
		),
		mcp.WithString("focus",
			mcp.Description("Focus override item key"),
		),
	), handleEdit)

	s.AddTool(mcp.NewTool("search_values",
		mcp.WithDescription("Parse a single filter value with one of the value grammars"),
		mcp.WithString("raw",
			mcp.Required(),
			mcp.Description("Raw value text, e.g. 'a, \"b,c\", d*' or '500k'"),
		),
		mcp.WithString("kind",
			mcp.Description("Value grammar (default: multiselect)"),
			mcp.Enum(valueKinds...),
		),
	), handleValues)

	s.AddTool(mcp.NewTool("search_saved",
		mcp.WithDescription("List saved searches, or show one by ID, ID prefix or name"),
		mcp.WithString("id",
			mcp.Description("Saved search ID, prefix or name (omit to list)"),
		),
		mcp.WithString("prefix",
			mcp.Description("Only list names starting with this prefix"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results to return (default: 20)"),
		),
	), handleSaved)

	s.AddTool(mcp.NewTool("search_save",
		mcp.WithDescription("Save a query under a name, replacing the query of an existing search with that name"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Search name (no whitespace)"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithString("description",
			mcp.Description("Optional description"),
		),
	), handleSave)

	s.AddTool(mcp.NewTool("search_delete",
		mcp.WithDescription("Delete a saved search by ID, ID prefix or name"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Saved search ID, prefix or name"),
		),
	), handleDelete)
}

func handleParse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cfg, err := parserConfig()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("profile error: %v", err)), nil
	}
	tokens, err := search.Parse(query, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse error: %v", err)), nil
	}
	summary := view.Compose(query, tokens)

	switch req.GetString("format", "markdown") {
	case "json":
		data, _ := json.MarshalIndent(map[string]any{
			"tokens":  tokens,
			"summary": summary,
		}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	case "text":
		return mcp.NewToolResultText(view.RenderTokens(tokens, "text") + problemSummary(summary)), nil
	default:
		return mcp.NewToolResultText(view.RenderTokens(tokens, "markdown") + "\n" + problemSummary(summary)), nil
	}
}

func problemSummary(s *view.Summary) string {
	if s.Valid() {
		return fmt.Sprintf("Valid query: %d filter(s), %d free text.\n", s.Filters, s.FreeText)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d problem(s):\n", len(s.Problems))
	for _, p := range s.Problems {
		fmt.Fprintf(&b, "- %q at %d: %s\n", p.Text, p.Offset, p.Message)
	}
	return b.String()
}

func handleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reducer, err := newReducer()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("profile error: %v", err)), nil
	}

	command := builder.Command{
		Action:   action,
		Item:     req.GetString("item", ""),
		Items:    splitAndTrim(req.GetString("items", "")),
		Text:     req.GetString("text", ""),
		Operator: req.GetString("operator", ""),
		Focus:    req.GetString("focus", ""),
	}

	b := builder.New(query, reducer)
	state, err := b.Apply(command)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("edit error: %v", err)), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Query: %s\n", state.Query)
	if state.FocusOverride != nil {
		fmt.Fprintf(&out, "Focus: %s\n", state.FocusOverride.ItemKey)
	}
	out.WriteString("\nItems:\n")
	for _, item := range b.Items() {
		if item.Token.Type() == search.TokenSpaces {
			continue
		}
		fmt.Fprintf(&out, "- %s: %s\n", item.Key, item.Token.Text())
	}
	return mcp.NewToolResultText(out.String()), nil
}

func handleValues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("raw")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cfg, err := parserConfig()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("profile error: %v", err)), nil
	}
	v, err := parseValue(req.GetString("kind", "multiselect"), raw, cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func handleSaved(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := mcpOpenDB()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("database error: %v", err)), nil
	}
	defer d.Close()

	if ref := req.GetString("id", ""); ref != "" {
		saved, err := resolveSearch(d, ref)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, _ := json.MarshalIndent(saved, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}

	searches, err := d.ListSearches(db.ListOptions{
		NamePrefix: req.GetString("prefix", ""),
		Limit:      req.GetInt("limit", 20),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list error: %v", err)), nil
	}

	return mcp.NewToolResultText(view.RenderSearches(searches, "markdown")), nil
}

func handleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cfg, err := parserConfig()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("profile error: %v", err)), nil
	}
	if _, err := search.Parse(query, cfg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse error: %v", err)), nil
	}

	d, err := mcpOpenDB()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("database error: %v", err)), nil
	}
	defer d.Close()

	var desc *string
	if s := req.GetString("description", ""); s != "" {
		desc = &s
	}

	saved, err := upsertSearch(d, name, query, desc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save search: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved search %s (%s): %s", saved.Name, saved.ID, saved.Query)), nil
}

func handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := mcpOpenDB()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("database error: %v", err)), nil
	}
	defer d.Close()

	saved, err := resolveSearch(d, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := d.DeleteSearch(saved.ID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete error: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted saved search %s (%s)", saved.Name, saved.ID)), nil
}

// helpers

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
