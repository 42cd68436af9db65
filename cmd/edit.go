package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zate/searchbar/internal/builder"
	"github.com/zate/searchbar/internal/db"
)

var (
	editAction   string
	editItem     string
	editItems    []string
	editText     string
	editOperator string
	editFocus    string
	editSession  string
)

var editCmd = &cobra.Command{
	Use:   "edit [query]",
	Short: "Apply a query builder action to a query",
	Long: `Apply one query builder action and print the resulting query.

Tokens are addressed by item key (for example filter:0 or freeText:1); run
"searchbar parse --format table <query>" to list them.

With --session the query is loaded from, and written back to, a stored
builder session. Pass --session new to start one from [query].

Actions: ` + strings.Join(builder.Commands(), ", "),
	Example: `  searchbar edit 'browser:Chrome age:-24h' --action update_filter_op --item filter:1 --operator '>'
  searchbar edit 'browser:[a,b]' --action toggle_filter_value --item filter:0 --text b
  searchbar edit --session 3f2a... --action delete_token --item filter:0`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editAction, "action", "", "Builder action (required)")
	editCmd.Flags().StringVar(&editItem, "item", "", "Target item key")
	editCmd.Flags().StringSliceVar(&editItems, "items", nil, "Target item keys (comma-separated)")
	editCmd.Flags().StringVar(&editText, "text", "", "Text argument (query, key, value)")
	editCmd.Flags().StringVar(&editOperator, "operator", "", "Operator for update_filter_op (gt, >=, ne, ...)")
	editCmd.Flags().StringVar(&editFocus, "focus", "", "Focus override item key")
	editCmd.Flags().StringVar(&editSession, "session", "", "Builder session ID, or \"new\"")
	_ = editCmd.MarkFlagRequired("action")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	reducer, err := newReducer()
	if err != nil {
		return err
	}

	command := builder.Command{
		Action:   editAction,
		Item:     editItem,
		Items:    editItems,
		Text:     editText,
		Operator: editOperator,
		Focus:    editFocus,
	}

	if editSession == "" {
		if len(args) == 0 {
			return fmt.Errorf("a query argument or --session is required")
		}
		b := builder.New(args[0], reducer)
		state, err := b.Apply(command)
		if err != nil {
			return err
		}
		return printState(cmd.OutOrStdout(), "", state)
	}

	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	sess, err := loadSession(d, editSession, args)
	if err != nil {
		return err
	}

	b := builder.Restore(builder.StateOf(sess), reducer)
	state, err := b.Apply(command)
	if err != nil {
		return err
	}
	builder.Record(sess, state)
	if err := d.SaveSession(sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	zap.S().Debugw("session updated", "session", sess.ID, "action", command.Action)

	return printState(cmd.OutOrStdout(), sess.ID, state)
}

func loadSession(d db.Store, id string, args []string) (*db.Session, error) {
	if id != "new" {
		if len(args) > 0 {
			return nil, fmt.Errorf("a query argument cannot be combined with an existing --session")
		}
		return d.GetSession(id)
	}
	sess := &db.Session{}
	if len(args) > 0 {
		sess.Query = args[0]
	}
	return sess, nil
}

func printState(w io.Writer, sessionID string, state builder.State) error {
	if format == "json" {
		out := map[string]any{"query": state.Query, "focusOverride": state.FocusOverride}
		if sessionID != "" {
			out["session"] = sessionID
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(w, string(data))
		return nil
	}

	fmt.Fprintln(w, state.Query)
	if state.FocusOverride != nil {
		fmt.Fprintf(w, "focus: %s\n", state.FocusOverride.ItemKey)
	}
	if sessionID != "" {
		fmt.Fprintf(w, "session: %s\n", sessionID)
	}
	return nil
}
