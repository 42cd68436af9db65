package view

import (
	"fmt"
	"strings"

	"github.com/zate/searchbar/internal/db"
)

// RenderSearches renders saved searches as markdown (for MCP clients) or as
// one line per search.
func RenderSearches(searches []*db.SavedSearch, format string) string {
	var b strings.Builder
	if format == "markdown" {
		if len(searches) == 0 {
			return "_No saved searches._\n"
		}
		b.WriteString("## Saved searches\n\n")
		for _, s := range searches {
			fmt.Fprintf(&b, "- **%s** [%s] `%s`\n", s.Name, shortID(s.ID), s.Query)
			if s.Description != nil && *s.Description != "" {
				fmt.Fprintf(&b, "  - %s\n", *s.Description)
			}
		}
		return b.String()
	}

	for _, s := range searches {
		fmt.Fprintf(&b, "[%s] %s: %s\n", shortID(s.ID), s.Name, s.Query)
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
