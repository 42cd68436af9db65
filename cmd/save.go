package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zate/searchbar/internal/db"
	"github.com/zate/searchbar/internal/search"
	"github.com/zate/searchbar/internal/view"
)

var (
	saveDescription string
	saveForce       bool
)

var saveCmd = &cobra.Command{
	Use:   "save <name> <query>",
	Short: "Save a search query under a name",
	Long: `Save a search query under a name. The query must parse; queries with
invalid tokens are rejected unless --force is given.

Saving under an existing name replaces that search's query.`,
	Args: cobra.ExactArgs(2),
	RunE: runSave,
}

func init() {
	saveCmd.Flags().StringVar(&saveDescription, "description", "", "Optional description")
	saveCmd.Flags().BoolVar(&saveForce, "force", false, "Save even if the query has invalid tokens")
	rootCmd.AddCommand(saveCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	name, query := args[0], args[1]

	cfg, err := parserConfig()
	if err != nil {
		return err
	}
	tokens, err := search.Parse(query, cfg)
	if err != nil {
		return err
	}
	if summary := view.Compose(query, tokens); !summary.Valid() && !saveForce {
		p := summary.Problems[0]
		return fmt.Errorf("query has %d problem(s), first: %q at %d: %s (use --force to save anyway)",
			len(summary.Problems), p.Text, p.Offset, p.Message)
	}

	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	var desc *string
	if cmd.Flags().Changed("description") {
		desc = &saveDescription
	}

	saved, err := upsertSearch(d, name, query, desc)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		data, _ := json.MarshalIndent(saved, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s (%s)\n", saved.Name, saved.ID)
	}
	return nil
}

// upsertSearch creates the named search or replaces the query of an
// existing one.
func upsertSearch(d db.Store, name, query string, desc *string) (*db.SavedSearch, error) {
	existing, err := d.FindSearchByName(name)
	if errors.Is(err, db.ErrNotFound) {
		return d.CreateSearch(db.CreateSearchInput{Name: name, Query: query, Description: desc})
	}
	if err != nil {
		return nil, err
	}
	return d.UpdateSearch(existing.ID, db.UpdateSearchInput{Query: &query, Description: desc})
}
