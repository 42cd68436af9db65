package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zate/searchbar/internal/search"
	"github.com/zate/searchbar/internal/view"
)

var showTokens bool

var showCmd = &cobra.Command{
	Use:   "show <id|prefix|name>",
	Short: "Show a saved search",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showTokens, "tokens", false, "Include the parsed token tree")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	saved, err := resolveSearch(d, args[0])
	if err != nil {
		return err
	}

	var tokens []search.Token
	if showTokens {
		cfg, err := parserConfig()
		if err != nil {
			return err
		}
		if tokens, err = search.Parse(saved.Query, cfg); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		result := map[string]any{
			"id":         saved.ID,
			"name":       saved.Name,
			"query":      saved.Query,
			"created_at": saved.CreatedAt,
			"updated_at": saved.UpdatedAt,
		}
		if saved.Description != nil {
			result["description"] = *saved.Description
		}
		if showTokens {
			result["tokens"] = tokens
			result["summary"] = view.Compose(saved.Query, tokens)
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(out, string(data))
	default:
		fmt.Fprintf(out, "ID:      %s\n", saved.ID)
		fmt.Fprintf(out, "Name:    %s\n", saved.Name)
		fmt.Fprintf(out, "Query:   %s\n", saved.Query)
		if saved.Description != nil {
			fmt.Fprintf(out, "About:   %s\n", *saved.Description)
		}
		fmt.Fprintf(out, "Created: %s\n", saved.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Updated: %s\n", saved.UpdatedAt.Format("2006-01-02 15:04:05"))
		if showTokens {
			fmt.Fprintln(out, "Tokens:")
			fmt.Fprint(out, view.RenderTokens(tokens, "text"))
		}
	}
	return nil
}
