package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id|prefix|name>",
	Short: "Delete a saved search",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	saved, err := resolveSearch(d, args[0])
	if err != nil {
		return err
	}

	if err := d.DeleteSearch(saved.ID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s (%s)\n", saved.Name, saved.ID)
	return nil
}
