package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zate/searchbar/internal/search"
)

var valuesKind string

// valueKinds are the sub-grammars "values" can parse on their own.
var valueKinds = []string{
	"multiselect", "number", "duration", "size", "percentage", "boolean", "date", "numberlist",
}

var valuesCmd = &cobra.Command{
	Use:   "values <raw>",
	Short: "Parse a single filter value",
	Long: `Parse raw text with one of the value grammars, as a filter value
editor would. Prints the parsed value as JSON.

Kinds: ` + strings.Join(valueKinds, ", "),
	Example: `  searchbar values 'a, "b,c", d*' --kind multiselect
  searchbar values 500k --kind number
  searchbar values -24h --kind date`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := parserConfig()
		if err != nil {
			return err
		}
		v, err := parseValue(valuesKind, args[0], cfg)
		if err != nil {
			return err
		}
		data, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	valuesCmd.Flags().StringVar(&valuesKind, "kind", "multiselect", "Value grammar: "+strings.Join(valueKinds, ", "))
	rootCmd.AddCommand(valuesCmd)
}

// parseValue dispatches raw to the value parser for kind. Each parser
// returns a typed nil on failure, so the checks stay per case.
func parseValue(kind, raw string, cfg search.Config) (any, error) {
	switch kind {
	case "multiselect":
		if v := search.ParseMultiSelectValue(raw); v != nil {
			return v, nil
		}
	case "number":
		if v := search.ParseNumberValue(raw, cfg); v != nil {
			return v, nil
		}
	case "duration":
		if v := search.ParseDurationValue(raw, cfg); v != nil {
			return v, nil
		}
	case "size":
		if v := search.ParseSizeValue(raw, cfg); v != nil {
			return v, nil
		}
	case "percentage":
		if v := search.ParsePercentageValue(raw, cfg); v != nil {
			return v, nil
		}
	case "boolean":
		if v := search.ParseBooleanValue(raw); v != nil {
			return v, nil
		}
	case "date":
		if v := search.ParseDateValue(raw, cfg); v != nil {
			return v, nil
		}
	case "numberlist":
		if v := search.ParseNumberListValue(raw, cfg); v != nil {
			return v, nil
		}
	default:
		return nil, fmt.Errorf("unknown value kind %q (want one of: %s)", kind, strings.Join(valueKinds, ", "))
	}
	return nil, fmt.Errorf("%q is not a valid %s value", raw, kind)
}
