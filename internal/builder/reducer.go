package builder

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/zate/searchbar/internal/search"
)

// Reducer derives a new State from the current one and an Action. It is a
// pure function of its inputs; actions that do not apply return the state
// unchanged.
type Reducer struct {
	Config search.Config
	// Now is used when a relative date has to be pinned to an absolute one.
	Now func() time.Time
}

func (r Reducer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Tokens parses query the way the editor displays it: parentheses flat and
// whitespace folded into the surrounding free text. It returns nil when the
// query cannot be parsed.
func (r Reducer) Tokens(query string) []search.Token {
	cfg := r.Config
	cfg.FlattenParenGroups = true
	tokens, err := search.Parse(query, cfg)
	if err != nil {
		return nil
	}
	return search.MergeFreeText(query, tokens)
}

// ItemKey names tokens[i] by its type and its index among tokens of the
// same type, e.g. "filter:2".
func ItemKey(tokens []search.Token, i int) string {
	n := 0
	for _, tok := range tokens[:i] {
		if tok.Type() == tokens[i].Type() {
			n++
		}
	}
	return MakeItemKey(tokens[i].Type(), n)
}

func MakeItemKey(t search.TokenType, index int) string {
	return fmt.Sprintf("%s:%d", t, index)
}

func (r Reducer) Reduce(state State, action Action) State {
	switch a := action.(type) {
	case Clear:
		return State{Query: "", FocusOverride: &FocusOverride{ItemKey: MakeItemKey(search.TokenFreeText, 0)}}
	case UpdateQuery:
		return State{Query: a.Query, FocusOverride: a.Focus}
	case ResetFocusOverride:
		return State{Query: state.Query}
	case DeleteToken:
		return r.withQuery(state, func(q string) (string, bool) {
			return removeTokens(q, []search.Token{a.Token})
		})
	case DeleteTokens:
		return r.withQuery(state, func(q string) (string, bool) {
			return removeTokens(q, a.Tokens)
		})
	case UpdateFreeText:
		query, ok := replaceTokensWithPadding(state.Query, a.Tokens, a.Text)
		if !ok {
			return state
		}
		return State{Query: query, FocusOverride: a.Focus}
	case PasteFreeText:
		return r.pasteFreeText(state, a)
	case UpdateFilterKey:
		if a.Token == nil || a.Key == "" {
			return state
		}
		return r.withQuery(state, func(q string) (string, bool) {
			return replaceToken(q, a.Token.Key, a.Key)
		})
	case UpdateFilterOp:
		if a.Token == nil {
			return state
		}
		return r.withQuery(state, func(q string) (string, bool) {
			return r.updateFilterOp(q, a.Token, a.Op)
		})
	case UpdateTokenValue:
		if a.Token == nil {
			return state
		}
		return r.withQuery(state, func(q string) (string, bool) {
			return r.updateTokenValue(q, a.Token, a.Value)
		})
	case ToggleFilterValue:
		if a.Token == nil || a.Token.Value == nil || !acceptsValueList(a.Token) {
			return state
		}
		return r.withQuery(state, func(q string) (string, bool) {
			values := filterValues(a.Token)
			value := escapeFilterValue(a.Value)
			if lo.Contains(values, value) {
				values = lo.Without(values, value)
			} else {
				values = append(values, value)
			}
			return replaceToken(q, a.Token.Value, serializeValues(values))
		})
	case DeleteLastMultiSelectFilterValue:
		if a.Token == nil || a.Token.Value == nil || !acceptsValueList(a.Token) {
			return state
		}
		return r.withQuery(state, func(q string) (string, bool) {
			values := filterValues(a.Token)
			if len(values) == 0 {
				return q, false
			}
			// Dropping the last of two values leaves a bare value, so the
			// first entry takes over the filter on its own.
			return replaceToken(q, a.Token.Value, serializeValues(values[:len(values)-1]))
		})
	}
	return state
}

// withQuery applies edit to the query and keeps the focus override.
func (r Reducer) withQuery(state State, edit func(string) (string, bool)) State {
	query, ok := edit(state.Query)
	if !ok {
		return state
	}
	return State{Query: query, FocusOverride: state.FocusOverride}
}

// pasteFreeText splices the pasted text in and focuses the first free text
// item that starts at or after the end of the pasted text.
func (r Reducer) pasteFreeText(state State, a PasteFreeText) State {
	start, end, ok := span(state.Query, a.Tokens)
	if !ok {
		return state
	}
	query := joinParts(state.Query[:start], a.Text, state.Query[end:])
	cursor := len(joinParts(state.Query[:start], a.Text))

	next := State{Query: query}
	tokens := r.Tokens(query)
	for i, tok := range tokens {
		if tok.Type() == search.TokenFreeText && tok.Location().Start.Offset >= cursor {
			next.FocusOverride = &FocusOverride{ItemKey: ItemKey(tokens, i)}
			break
		}
	}
	return next
}

// updateFilterOp rewrites the filter with op. Choosing != negates the filter
// and clears the operator; any other operator clears the negation.
func (r Reducer) updateFilterOp(query string, f *search.Filter, op search.TermOperator) (string, bool) {
	if f.IsDate() {
		if text, ok := r.dateFilterWithOp(f, op); ok {
			return replaceToken(query, f, text)
		}
	}

	if op == search.OpNotEqual {
		return replaceToken(query, f, filterText(f, true, search.OpDefault, valueText(f)))
	}
	// Text-like grammars have no comparison operators to write; the filter
	// still loses its negation.
	if !f.AcceptsOperator() {
		op = search.OpDefault
	}
	return replaceToken(query, f, filterText(f, false, op, valueText(f)))
}

func (r Reducer) updateTokenValue(query string, f *search.Filter, value string) (string, bool) {
	if f.IsDate() {
		return r.updateDateValue(query, f, value)
	}
	if f.Value == nil {
		return query, false
	}
	return replaceToken(query, f.Value, value)
}

// filterText renders a filter from its parts, keeping the key as written.
func filterText(f *search.Filter, negated bool, op search.TermOperator, value string) string {
	var b strings.Builder
	if negated {
		b.WriteByte('!')
	}
	b.WriteString(f.Key.Text())
	b.WriteByte(':')
	b.WriteString(string(op))
	b.WriteString(value)
	return b.String()
}

func valueText(f *search.Filter) string {
	if f.Value == nil {
		return ""
	}
	return f.Value.Text()
}

// acceptsValueList reports whether the filter's grammar reads a bracketed
// list back as a list.
func acceptsValueList(f *search.Filter) bool {
	switch f.FilterType {
	case search.FilterText, search.FilterTextIn, search.FilterNumericIn:
		return true
	case search.FilterNumeric:
		return f.Operator == search.OpDefault
	}
	return false
}

// filterValues lists the written values of a single or multi-value filter.
func filterValues(f *search.Filter) []string {
	switch v := f.Value.(type) {
	case *search.ValueTextList:
		return lo.Map(v.Items, func(item search.ListItem[*search.ValueText], _ int) string {
			return item.Value.Text()
		})
	case *search.ValueNumberList:
		return lo.Map(v.Items, func(item search.ListItem[*search.ValueNumber], _ int) string {
			return item.Value.Text()
		})
	}
	return lo.Compact([]string{f.Value.Text()})
}

// serializeValues writes values back as a filter value: nothing, a bare
// value, or a bracketed list.
func serializeValues(values []string) string {
	values = lo.Uniq(lo.Compact(values))
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	}
	return "[" + strings.Join(values, ",") + "]"
}
