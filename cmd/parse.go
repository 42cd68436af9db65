package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/zate/searchbar/internal/builder"
	"github.com/zate/searchbar/internal/search"
	"github.com/zate/searchbar/internal/view"
)

var (
	parseFlatten bool
	parseStrict  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <query>",
	Short: "Tokenize a search query",
	Long: `Tokenize a search query and report problems.

Formats: text (token tree), markdown (token table), json (tokens and summary),
table (builder items with their keys, as used by "edit").`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseFlatten, "flatten", false, "Emit parentheses as separate tokens instead of groups")
	parseCmd.Flags().BoolVar(&parseStrict, "strict", false, "Exit with an error when any token is invalid")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := parserConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("flatten") {
		cfg.FlattenParenGroups = parseFlatten
	}

	query := args[0]
	tokens, err := search.Parse(query, cfg)
	if err != nil {
		return err
	}
	summary := view.Compose(query, tokens)

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, _ := json.MarshalIndent(map[string]any{
			"tokens":  tokens,
			"summary": summary,
		}, "", "  ")
		fmt.Fprintln(out, string(data))
	case "markdown":
		fmt.Fprint(out, view.RenderTokens(tokens, "markdown"))
	case "table":
		writeItemTable(out, builder.New(query, builder.Reducer{Config: cfg}))
	default:
		writeColoredTree(out, view.RenderTokens(tokens, "text"))
		writeSummary(out, summary)
	}

	if parseStrict && !summary.Valid() {
		return fmt.Errorf("query has %d problem(s)", len(summary.Problems))
	}
	return nil
}

// writeColoredTree highlights the invalid (!) and warning (~) lines of a
// rendered token tree.
func writeColoredTree(w io.Writer, tree string) {
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	for _, line := range strings.SplitAfter(tree, "\n") {
		switch trimmed := strings.TrimSpace(line); {
		case strings.HasPrefix(trimmed, "! "):
			fmt.Fprint(w, red(line))
		case strings.HasPrefix(trimmed, "~ "):
			fmt.Fprint(w, yellow(line))
		default:
			fmt.Fprint(w, line)
		}
	}
}

func writeSummary(w io.Writer, s *view.Summary) {
	line := fmt.Sprintf("%d filter(s), %d free text, %d boolean(s), %d group(s)",
		s.Filters, s.FreeText, s.Booleans, s.Groups)
	if s.Valid() {
		fmt.Fprintln(w, color.GreenString("%s: valid", line))
		return
	}
	fmt.Fprintln(w, color.RedString("%s: %d problem(s)", line, len(s.Problems)))
}

func writeItemTable(w io.Writer, b *builder.Builder) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Item", "Type", "Text", "Location", "Problem"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, item := range b.Items() {
		loc := item.Token.Location()
		problem := ""
		if inv := search.InvalidOf(item.Token); inv != nil {
			problem = string(inv.Type)
		}
		table.Append([]string{
			item.Key,
			string(item.Token.Type()),
			fmt.Sprintf("%q", item.Token.Text()),
			fmt.Sprintf("%d-%d", loc.Start.Offset, loc.End.Offset),
			problem,
		})
	}
	table.Render()
}
