package view

import (
	"fmt"
	"strings"

	"github.com/zate/searchbar/internal/search"
)

// RenderTokens renders a token tree using a named template: "markdown" for
// a table, anything else for an indented text tree. Whitespace-only spaces
// tokens are skipped.
func RenderTokens(tokens []search.Token, templateName string) string {
	switch templateName {
	case "markdown":
		return renderMarkdownTemplate(tokens)
	default:
		return renderTextTemplate(tokens)
	}
}

func renderTextTemplate(tokens []search.Token) string {
	var b strings.Builder
	writeTree(&b, tokens, 0)
	return b.String()
}

func writeTree(b *strings.Builder, tokens []search.Token, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, tok := range tokens {
		if skip(tok) {
			continue
		}
		loc := tok.Location()
		fmt.Fprintf(b, "%s%s %q [%d:%d]", indent, tok.Type(), tok.Text(), loc.Start.Offset, loc.End.Offset)
		if d := detail(tok); d != "" {
			fmt.Fprintf(b, " %s", d)
		}
		b.WriteString("\n")

		if inv := search.InvalidOf(tok); inv != nil {
			fmt.Fprintf(b, "%s  ! %s: %s\n", indent, inv.Type, inv.Reason)
		}
		if f, ok := tok.(*search.Filter); ok && f.Warning != "" {
			fmt.Fprintf(b, "%s  ~ %s\n", indent, f.Warning)
		}
		if g, ok := tok.(*search.LogicGroup); ok {
			writeTree(b, g.Inner, depth+1)
		}
	}
}

func renderMarkdownTemplate(tokens []search.Token) string {
	var b strings.Builder
	b.WriteString("| # | type | text | detail | problem |\n")
	b.WriteString("|---|------|------|--------|---------|\n")
	n := 0
	var walk func([]search.Token, int)
	walk = func(tokens []search.Token, depth int) {
		for _, tok := range tokens {
			if skip(tok) {
				continue
			}
			problem := ""
			if inv := search.InvalidOf(tok); inv != nil {
				problem = string(inv.Type)
			} else if f, ok := tok.(*search.Filter); ok && f.Warning != "" {
				problem = "warning: " + f.Warning
			}
			fmt.Fprintf(&b, "| %d | %s%s | `%s` | %s | %s |\n",
				n, strings.Repeat("↳", depth), tok.Type(), cell(tok.Text()), cell(detail(tok)), cell(problem))
			n++
			if g, ok := tok.(*search.LogicGroup); ok {
				walk(g.Inner, depth+1)
			}
		}
	}
	walk(tokens, 0)
	return b.String()
}

func skip(tok search.Token) bool {
	sp, ok := tok.(*search.Spaces)
	return ok && strings.TrimSpace(sp.Value) == ""
}

// detail is a one-line description of a token's parsed fields.
func detail(tok search.Token) string {
	switch t := tok.(type) {
	case *search.Filter:
		parts := []string{string(t.FilterType), "key=" + t.KeyName()}
		if t.Negated {
			parts = append(parts, "negated")
		}
		if t.Operator != search.OpDefault {
			parts = append(parts, "op="+string(t.Operator))
		}
		if t.Value != nil {
			parts = append(parts, fmt.Sprintf("value=%s%s", t.Value.Type(), valueDetail(t.Value)))
		}
		return strings.Join(parts, " ")
	case *search.LogicBoolean:
		return string(t.Value)
	case *search.FreeText:
		if t.Quoted {
			return "quoted"
		}
	}
	return ""
}

func valueDetail(tok search.Token) string {
	switch v := tok.(type) {
	case *search.ValueText:
		if v.Wildcard != search.WildcardNone && v.Wildcard != "" {
			return "(" + string(v.Wildcard) + " wildcard)"
		}
	case *search.ValueTextList:
		return fmt.Sprintf("(%d items)", len(v.Items))
	case *search.ValueNumberList:
		return fmt.Sprintf("(%d items)", len(v.Items))
	case *search.ValueNumber:
		return parsedFloat(v.Parsed, "")
	case *search.ValueDuration:
		return parsedFloat(v.Parsed, "ms")
	case *search.ValueSize:
		return parsedFloat(v.Parsed, "B")
	case *search.ValuePercentage:
		return parsedFloat(v.Parsed, "")
	case *search.ValueISO8601Date:
		if v.Parsed != nil {
			return "(" + v.Parsed.UTC().Format("2006-01-02T15:04:05Z") + ")"
		}
	case *search.ValueRelativeDate:
		if v.Parsed != nil {
			return "(" + v.Parsed.UTC().Format("2006-01-02T15:04:05Z") + ")"
		}
	}
	return ""
}

func parsedFloat(f *float64, unit string) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("(%g%s)", *f, unit)
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
