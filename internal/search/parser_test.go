package search

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinText(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Text())
	}
	return b.String()
}

// terms drops spaces tokens.
func terms(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		if tok.Type() != TokenSpaces {
			out = append(out, tok)
		}
	}
	return out
}

func types(tokens []Token) []TokenType {
	out := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Type())
	}
	return out
}

func parseOne(t *testing.T, query string, cfg Config) *Filter {
	t.Helper()
	tokens, err := Parse(query, cfg)
	require.NoError(t, err)
	ts := terms(tokens)
	require.Len(t, ts, 1)
	f, ok := ts[0].(*Filter)
	require.True(t, ok, "expected filter, got %s", ts[0].Type())
	return f
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"foo",
		"foo bar  baz ",
		"foo:bar",
		"!foo:bar test",
		`browser:"Chrome 120" OR os:linux`,
		"(a:b OR c:d) AND e",
		"((a)",
		"a))",
		"tags[browser.name]:Chrome",
		"p95(transaction.duration):>1.5s",
		`count_if(a, "b c"):>10`,
		"browser:[Chrome, \"Firefox, ESR\", Safari*]",
		"age:-24h timestamp:>=2024-01-02T10:00:00Z",
		`"unterminated quote`,
		"\tfoo\nbar\r\n",
		"a:b\"c",
		"::: !!! )( ][",
		"héllo wörld:ünïcode",
	}

	for _, cfg := range []Config{{}, {FlattenParenGroups: true}, {Parse: true, ValidateKeys: true}} {
		for _, input := range inputs {
			tokens, err := Parse(input, cfg)
			require.NoError(t, err, input)
			assert.Equal(t, input, joinText(tokens), "input %q", input)
			require.NotEmpty(t, tokens)
			assert.Equal(t, TokenSpaces, tokens[0].Type())
			assertGroupsRoundTrip(t, tokens)
		}
	}
}

func assertGroupsRoundTrip(t *testing.T, tokens []Token) {
	t.Helper()
	for _, tok := range tokens {
		if g, ok := tok.(*LogicGroup); ok {
			assert.Equal(t, g.Text(), "("+joinText(g.Inner)+")")
			assertGroupsRoundTrip(t, g.Inner)
		}
	}
}

func TestParseLocations(t *testing.T) {
	query := "foo:bar (baz)"
	tokens, err := Parse(query, Config{})
	require.NoError(t, err)

	var walk func([]Token)
	walk = func(ts []Token) {
		for _, tok := range ts {
			loc := tok.Location()
			assert.Equal(t, tok.Text(), query[loc.Start.Offset:loc.End.Offset])
			if g, ok := tok.(*LogicGroup); ok {
				walk(g.Inner)
			}
		}
	}
	walk(tokens)
}

func TestParseDisallowedLogicalOperator(t *testing.T) {
	tokens, err := Parse("foo:bar OR AND", Config{
		DisallowedLogicalOperators: map[BooleanOperator]bool{BooleanOr: true},
	})
	require.NoError(t, err)
	require.Len(t, tokens, 7)

	assert.Equal(t, []TokenType{
		TokenSpaces, TokenFilter, TokenSpaces, TokenLogicBoolean, TokenSpaces, TokenLogicBoolean, TokenSpaces,
	}, types(tokens))

	or := tokens[3].(*LogicBoolean)
	require.NotNil(t, or.Invalid)
	assert.Equal(t, InvalidLogicalOrNotAllowed, or.Invalid.Type)

	and := tokens[5].(*LogicBoolean)
	assert.Nil(t, and.Invalid)
}

func TestParseBooleanIsCaseSensitiveWord(t *testing.T) {
	tokens, err := Parse("a and b ANDROID OR", Config{})
	require.NoError(t, err)
	assert.Equal(t, []TokenType{
		TokenFreeText, TokenFreeText, TokenFreeText, TokenFreeText, TokenLogicBoolean,
	}, types(terms(tokens)))
}

func TestParseParenGroups(t *testing.T) {
	t.Run("flattened", func(t *testing.T) {
		tokens, err := Parse("(foo)", Config{FlattenParenGroups: true})
		require.NoError(t, err)
		assert.Equal(t, []TokenType{TokenLParen, TokenFreeText, TokenRParen}, types(terms(tokens)))
	})

	t.Run("grouped", func(t *testing.T) {
		tokens, err := Parse("(foo)", Config{})
		require.NoError(t, err)
		ts := terms(tokens)
		require.Len(t, ts, 1)
		group, ok := ts[0].(*LogicGroup)
		require.True(t, ok)
		inner := terms(group.Inner)
		require.Len(t, inner, 1)
		assert.Equal(t, "foo", inner[0].(*FreeText).Value)
	})

	t.Run("nested", func(t *testing.T) {
		tokens, err := Parse("(a:b OR (c:d))", Config{})
		require.NoError(t, err)
		outer := terms(tokens)[0].(*LogicGroup)
		assert.Equal(t, []TokenType{TokenFilter, TokenLogicBoolean, TokenLogicGroup}, types(terms(outer.Inner)))
	})

	t.Run("unmatched open is free text", func(t *testing.T) {
		tokens, err := Parse("(foo", Config{})
		require.NoError(t, err)
		ts := terms(tokens)
		require.Len(t, ts, 2)
		assert.Equal(t, "(", ts[0].(*FreeText).Value)
		assert.Equal(t, "foo", ts[1].(*FreeText).Value)
	})

	t.Run("unmatched close is free text", func(t *testing.T) {
		tokens, err := Parse("foo)", Config{})
		require.NoError(t, err)
		ts := terms(tokens)
		require.Len(t, ts, 2)
		assert.Equal(t, ")", ts[1].(*FreeText).Value)
	})

	t.Run("inner group of unmatched outer", func(t *testing.T) {
		tokens, err := Parse("((a)", Config{})
		require.NoError(t, err)
		assert.Equal(t, []TokenType{TokenFreeText, TokenLogicGroup}, types(terms(tokens)))
	})

	t.Run("disallowed", func(t *testing.T) {
		tokens, err := Parse("(a)", Config{DisallowParens: true})
		require.NoError(t, err)
		g := terms(tokens)[0].(*LogicGroup)
		require.NotNil(t, g.Invalid)
		assert.Equal(t, InvalidParensNotAllowed, g.Invalid.Type)
	})
}

func TestParseDepthLimit(t *testing.T) {
	tokens, err := Parse("(((a)))", Config{MaxDepth: 2})
	require.Error(t, err)
	assert.Nil(t, tokens)

	var pe ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Message, "nested deeper than 2")

	_, err = Parse("(((a)))", Config{MaxDepth: 3})
	assert.NoError(t, err)

	_, err = Parse(strings.Repeat("(", 200)+"a"+strings.Repeat(")", 200), Config{FlattenParenGroups: true})
	assert.NoError(t, err)
}

func TestParseUnclosedParensPastDepthLimit(t *testing.T) {
	inputs := []string{
		strings.Repeat("(", 65),
		strings.Repeat("f(x ", 100),
		strings.Repeat("(", 64) + strings.Repeat("a ", 5000),
		strings.Repeat("(", 3) + "((a))",
	}
	for _, input := range inputs {
		tokens, err := Parse(input, Config{})
		require.NoError(t, err, input)
		assert.Equal(t, input, joinText(tokens))
		assertGroupsRoundTrip(t, tokens)
	}

	// The closed pair survives once the unclosed run ahead of it is text.
	tokens, err := Parse("((("+"(a)", Config{MaxDepth: 2})
	require.NoError(t, err)
	ts := terms(tokens)
	require.Len(t, ts, 4)
	assert.Equal(t, TokenLogicGroup, ts[3].Type())
	assert.Equal(t, "(a)", ts[3].Text())

	_, err = Parse(strings.Repeat("(", 3)+"a"+strings.Repeat(")", 3)+"(", Config{MaxDepth: 2})
	assert.Error(t, err)
}

func TestParseFreeText(t *testing.T) {
	tokens, err := Parse(`"hello \"big\" world" plain`, Config{})
	require.NoError(t, err)
	ts := terms(tokens)
	require.Len(t, ts, 2)

	quoted := ts[0].(*FreeText)
	assert.True(t, quoted.Quoted)
	assert.Equal(t, `hello "big" world`, quoted.Value)
	assert.Equal(t, "plain", ts[1].(*FreeText).Value)

	tokens, err = Parse("hello", Config{DisallowFreeText: true})
	require.NoError(t, err)
	ft := terms(tokens)[0].(*FreeText)
	require.NotNil(t, ft.Invalid)
	assert.Equal(t, InvalidFreeTextNotAllowed, ft.Invalid.Type)
}

func TestParseFilterKeys(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		f := parseOne(t, "!browser:Chrome", Config{})
		assert.True(t, f.Negated)
		assert.Equal(t, "browser", f.KeyName())
		assert.Equal(t, FilterText, f.FilterType)
		assert.Equal(t, "Chrome", f.Value.(*ValueText).Value)
	})

	t.Run("explicit tag", func(t *testing.T) {
		f := parseOne(t, "tags[browser.name]:Chrome", Config{})
		key, ok := f.Key.(*KeyExplicitTag)
		require.True(t, ok)
		assert.Equal(t, "tags", key.Prefix)
		assert.Equal(t, "browser.name", key.Key.Value)
		assert.Equal(t, "browser.name", f.KeyName())
	})

	t.Run("aggregate", func(t *testing.T) {
		f := parseOne(t, `count_if(transaction.op, "http client"):>10`, Config{})
		key, ok := f.Key.(*KeyAggregate)
		require.True(t, ok)
		assert.Equal(t, "count_if", key.Name.Value)
		require.Len(t, key.Args, 2)
		assert.Equal(t, "transaction.op", key.Args[0].Value)
		assert.Equal(t, "http client", key.Args[1].Value)
		assert.True(t, key.Args[1].Quoted)
		assert.Equal(t, FilterAggregateNumeric, f.FilterType)
		assert.Equal(t, OpGreaterThan, f.Operator)
	})

	t.Run("aggregate without args", func(t *testing.T) {
		f := parseOne(t, "count():>=100", Config{})
		assert.Empty(t, f.Key.(*KeyAggregate).Args)
		assert.Equal(t, OpGreaterThanEqual, f.Operator)
	})
}

func TestParseFilterValues(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cfg := Config{
		Parse: true,
		Now:   func() time.Time { return now },
		Keys: map[string]FieldKind{
			"count":                KindNumber,
			"age":                  KindDate,
			"transaction.duration": KindDuration,
			"file.size":            KindSize,
			"rate":                 KindPercentage,
			"error.handled":        KindBoolean,
		},
	}

	tests := []struct {
		name       string
		query      string
		filterType FilterType
		operator   TermOperator
		valueType  TokenType
		invalid    InvalidReason
	}{
		{"number", "count:>5k", FilterNumeric, OpGreaterThan, TokenValueNumber, ""},
		{"bad number", "count:abc", FilterNumeric, OpDefault, TokenValueText, InvalidNumber},
		{"missing value", "count:", FilterNumeric, OpDefault, TokenValueText, InvalidFilterMustHaveValue},
		{"number list", "count:[1,2k]", FilterNumericIn, OpDefault, TokenValueNumberList, ""},
		{"number list with text", "count:[1,a]", FilterNumericIn, OpDefault, TokenValueTextList, InvalidNumber},
		{"number list with gap", "count:[1,,2]", FilterNumericIn, OpDefault, TokenValueTextList, InvalidEmptyValueInListNotAllowed},
		{"relative date", "age:-24h", FilterRelativeDate, OpDefault, TokenValueRelativeDate, ""},
		{"relative date with operator", "age:>-24h", FilterDate, OpGreaterThan, TokenValueText, InvalidDateFormat},
		{"date with operator", "age:>2024-01-02", FilterDate, OpGreaterThan, TokenValueISO8601Date, ""},
		{"specific date", "age:2024-01-02T10:00:00Z", FilterSpecificDate, OpDefault, TokenValueISO8601Date, ""},
		{"bad date", "age:yesterday", FilterDate, OpDefault, TokenValueText, InvalidDateFormat},
		{"duration", "transaction.duration:<=100ms", FilterDuration, OpLessThanEqual, TokenValueDuration, ""},
		{"bad duration", "transaction.duration:100", FilterDuration, OpDefault, TokenValueText, InvalidDuration},
		{"size", "file.size:2KiB", FilterSize, OpDefault, TokenValueSize, ""},
		{"bad size", "file.size:2 ", FilterSize, OpDefault, TokenValueText, InvalidFileSize},
		{"percentage", "rate:50%", FilterPercentage, OpDefault, TokenValuePercentage, ""},
		{"bad percentage", "rate:50", FilterPercentage, OpDefault, TokenValueText, InvalidPercentage},
		{"boolean", "error.handled:1", FilterBoolean, OpDefault, TokenValueBoolean, ""},
		{"bad boolean", "error.handled:maybe", FilterBoolean, OpDefault, TokenValueText, InvalidBoolean},
		{"text ignores operators", "browser:>Chrome", FilterText, OpDefault, TokenValueText, ""},
		{"text list", "browser:[Chrome, Firefox]", FilterTextIn, OpDefault, TokenValueTextList, ""},
		{"empty text list item", "browser:[Chrome,,Firefox]", FilterTextIn, OpDefault, TokenValueTextList, InvalidEmptyValueInListNotAllowed},
		{"must be quoted", `browser:Chr"ome`, FilterText, OpDefault, TokenValueText, InvalidMustBeQuoted},
		{"has", "has:user", FilterHas, OpDefault, TokenValueText, ""},
		{"is", "is:unresolved", FilterIs, OpDefault, TokenValueText, ""},
		{"aggregate duration", "p95(transaction.duration):>1.5s", FilterAggregateDuration, OpGreaterThan, TokenValueDuration, ""},
		{"aggregate size", "avg(file.size):>10mb", FilterAggregateSize, OpGreaterThan, TokenValueSize, ""},
		{"aggregate percentage", "failure_rate():>10%", FilterAggregatePercentage, OpGreaterThan, TokenValuePercentage, ""},
		{"aggregate date", "last_seen():>2024-01-01", FilterAggregateDate, OpGreaterThan, TokenValueISO8601Date, ""},
		{"aggregate relative date", "last_seen():>-1h", FilterAggregateRelativeDate, OpGreaterThan, TokenValueRelativeDate, ""},
		{"aggregate garbage", "count():>lots", FilterAggregateNumeric, OpGreaterThan, TokenValueText, InvalidNumber},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := parseOne(t, tc.query, cfg)
			assert.Equal(t, tc.filterType, f.FilterType)
			assert.Equal(t, tc.operator, f.Operator)
			assert.Equal(t, tc.valueType, f.Value.Type())
			if tc.invalid == "" {
				assert.Nil(t, f.Invalid)
			} else {
				require.NotNil(t, f.Invalid)
				assert.Equal(t, tc.invalid, f.Invalid.Type)
			}
		})
	}

	t.Run("parsed values", func(t *testing.T) {
		n := parseOne(t, "count:>5k", cfg).Value.(*ValueNumber)
		require.NotNil(t, n.Parsed)
		assert.InDelta(t, 5000, *n.Parsed, 0.001)

		rel := parseOne(t, "age:-24h", cfg).Value.(*ValueRelativeDate)
		require.NotNil(t, rel.Parsed)
		assert.Equal(t, now.Add(-24*time.Hour), *rel.Parsed)

		size := parseOne(t, "file.size:2KiB", cfg).Value.(*ValueSize)
		require.NotNil(t, size.Parsed)
		assert.InDelta(t, 2048, *size.Parsed, 0.001)
	})

	t.Run("without parse", func(t *testing.T) {
		noParse := cfg
		noParse.Parse = false
		n := parseOne(t, "count:5k", noParse).Value.(*ValueNumber)
		assert.Nil(t, n.Parsed)
	})
}

func TestParseTextList(t *testing.T) {
	f := parseOne(t, `browser:[Chrome, "Firefox, ESR", Safari*]`, Config{})
	list := f.Value.(*ValueTextList)
	require.Len(t, list.Items, 3)

	assert.Equal(t, "", list.Items[0].Separator)
	assert.Equal(t, "Chrome", list.Items[0].Value.Value)

	assert.Equal(t, ", ", list.Items[1].Separator)
	assert.Equal(t, "Firefox, ESR", list.Items[1].Value.Value)
	assert.True(t, list.Items[1].Value.Quoted)

	assert.Equal(t, "Safari*", list.Items[2].Value.Value)
	assert.Equal(t, WildcardTrailing, list.Items[2].Value.Wildcard)
}

func TestParseFilterValidation(t *testing.T) {
	t.Run("negation", func(t *testing.T) {
		f := parseOne(t, "!a:b", Config{DisallowNegation: true})
		require.NotNil(t, f.Invalid)
		assert.Equal(t, InvalidNegationNotAllowed, f.Invalid.Type)
	})

	t.Run("wildcard", func(t *testing.T) {
		f := parseOne(t, "a:b*", Config{DisallowWildcard: true})
		require.NotNil(t, f.Invalid)
		assert.Equal(t, InvalidWildcardNotAllowed, f.Invalid.Type)

		f = parseOne(t, "a:**", Config{DisallowWildcard: true})
		assert.Nil(t, f.Invalid)
	})

	t.Run("unknown key", func(t *testing.T) {
		cfg := Config{ValidateKeys: true, Keys: map[string]FieldKind{"browser": KindText}}
		f := parseOne(t, "os:linux", cfg)
		require.NotNil(t, f.Invalid)
		assert.Equal(t, InvalidKey, f.Invalid.Type)
		assert.Equal(t, `Invalid key. "os" is not a supported search key.`, f.Invalid.Reason)

		assert.Nil(t, parseOne(t, "browser:x", cfg).Invalid)
		assert.Nil(t, parseOne(t, "has:x", cfg).Invalid)
	})

	t.Run("message override", func(t *testing.T) {
		f := parseOne(t, "!a:b", Config{
			DisallowNegation: true,
			InvalidMessages:  map[InvalidReason]string{InvalidNegationNotAllowed: "no negating {key}"},
		})
		require.NotNil(t, f.Invalid)
		assert.Equal(t, "no negating a", f.Invalid.Reason)
	})

	t.Run("negation reported first", func(t *testing.T) {
		f := parseOne(t, "!count:abc", Config{DisallowNegation: true, Keys: map[string]FieldKind{"count": KindNumber}})
		require.NotNil(t, f.Invalid)
		assert.Equal(t, InvalidNegationNotAllowed, f.Invalid.Type)
	})

	t.Run("warning", func(t *testing.T) {
		cfg := Config{FilterTokenWarning: func(key string) string {
			if key == "old" {
				return "old is deprecated"
			}
			return ""
		}}
		assert.Equal(t, "old is deprecated", parseOne(t, "old:1", cfg).Warning)
		assert.Empty(t, parseOne(t, "new:1", cfg).Warning)
	})
}

func TestTokenJSON(t *testing.T) {
	tokens, err := Parse("a:b", Config{})
	require.NoError(t, err)

	data, err := json.Marshal(tokens[1])
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "filter", got["type"])
	assert.Equal(t, "a:b", got["text"])
	assert.Equal(t, map[string]any{"start": map[string]any{"offset": float64(0)}, "end": map[string]any{"offset": float64(3)}}, got["location"])

	value := got["value"].(map[string]any)
	assert.Equal(t, "valueText", value["type"])
	assert.Equal(t, false, value["wildcard"])
}
