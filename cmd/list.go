package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/zate/searchbar/internal/db"
	"github.com/zate/searchbar/internal/view"
)

var (
	listPrefix string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved searches",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listPrefix, "prefix", "", "Only names starting with this prefix")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Limit results")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	searches, err := d.ListSearches(db.ListOptions{NamePrefix: listPrefix, Limit: listLimit})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		if searches == nil {
			searches = []*db.SavedSearch{}
		}
		data, _ := json.MarshalIndent(searches, "", "  ")
		fmt.Fprintln(out, string(data))
	case "table":
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"ID", "Name", "Query", "Updated"})
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetBorder(false)
		for _, s := range searches {
			table.Append([]string{s.ID, s.Name, s.Query, s.UpdatedAt.Format("2006-01-02 15:04")})
		}
		table.Render()
	case "markdown":
		fmt.Fprint(out, view.RenderSearches(searches, "markdown"))
	default:
		if len(searches) == 0 {
			fmt.Fprintln(out, "No saved searches.")
			return nil
		}
		fmt.Fprint(out, view.RenderSearches(searches, "text"))
	}
	return nil
}
