package builder

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/zate/searchbar/internal/search"
)

// joinParts trims every part, drops the empty ones and joins the rest with
// a single space.
func joinParts(parts ...string) string {
	return strings.Join(lo.FilterMap(parts, func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, part != ""
	}), " ")
}

// span returns the smallest range covering tokens. ok is false when tokens
// is empty or a span lies outside query.
func span(query string, tokens []search.Token) (start, end int, ok bool) {
	if len(tokens) == 0 {
		return 0, 0, false
	}
	start, end = len(query), 0
	for _, tok := range tokens {
		if tok == nil || !inBounds(query, tok) {
			return 0, 0, false
		}
		loc := tok.Location()
		start = min(start, loc.Start.Offset)
		end = max(end, loc.End.Offset)
	}
	return start, end, true
}

func inBounds(query string, tok search.Token) bool {
	loc := tok.Location()
	return loc.Start.Offset >= 0 && loc.Start.Offset <= loc.End.Offset && loc.End.Offset <= len(query)
}

// replaceToken swaps the text under tok for text, leaving whitespace alone.
func replaceToken(query string, tok search.Token, text string) (string, bool) {
	if tok == nil || !inBounds(query, tok) {
		return query, false
	}
	loc := tok.Location()
	return query[:loc.Start.Offset] + text + query[loc.End.Offset:], true
}

// replaceTokensWithPadding swaps the text covered by tokens for text and
// normalises the whitespace where the pieces meet.
func replaceTokensWithPadding(query string, tokens []search.Token, text string) (string, bool) {
	start, end, ok := span(query, tokens)
	if !ok {
		return query, false
	}
	return joinParts(query[:start], text, query[end:]), true
}

// removeTokens deletes every token's text. The remaining pieces are joined
// with single spaces.
func removeTokens(query string, tokens []search.Token) (string, bool) {
	if len(tokens) == 0 {
		return query, false
	}
	for _, tok := range tokens {
		if tok == nil || !inBounds(query, tok) {
			return query, false
		}
	}

	sorted := slices.Clone(tokens)
	slices.SortFunc(sorted, func(a, b search.Token) int {
		return a.Location().Start.Offset - b.Location().Start.Offset
	})

	var parts []string
	cursor := 0
	for _, tok := range sorted {
		loc := tok.Location()
		if loc.Start.Offset < cursor {
			// Overlapping tokens, e.g. a group and one of its children.
			cursor = max(cursor, loc.End.Offset)
			continue
		}
		parts = append(parts, query[cursor:loc.Start.Offset])
		cursor = loc.End.Offset
	}
	parts = append(parts, query[cursor:])
	return joinParts(parts...), true
}

// escapeFilterValue quotes value when it could not be read back as a single
// unquoted value.
func escapeFilterValue(value string) string {
	if !strings.ContainsAny(value, " \t\n\",()[]") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}
