package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeFreeText(t *testing.T) {
	query := "foo:bar  some text (x) baz:1"
	tokens, err := Parse(query, Config{FlattenParenGroups: true})
	require.NoError(t, err)

	merged := MergeFreeText(query, tokens)
	assert.Equal(t, query, joinText(merged))
	assert.Equal(t, []TokenType{
		TokenFreeText, TokenFilter, TokenFreeText, TokenLParen, TokenFreeText, TokenRParen, TokenFreeText, TokenFilter, TokenFreeText,
	}, types(merged))

	gap := merged[2].(*FreeText)
	assert.Equal(t, "  some text ", gap.Value)
	assert.Equal(t, Location{Start: Position{Offset: 7}, End: Position{Offset: 19}}, gap.Location())

	empty := merged[0].(*FreeText)
	assert.Equal(t, "", empty.Text())
}

func TestMergeFreeTextKeepsInvalid(t *testing.T) {
	query := "a b"
	tokens, err := Parse(query, Config{DisallowFreeText: true})
	require.NoError(t, err)

	merged := MergeFreeText(query, tokens)
	require.Len(t, merged, 1)
	ft := merged[0].(*FreeText)
	assert.Equal(t, "a b", ft.Value)
	require.NotNil(t, ft.Invalid)
	assert.Equal(t, InvalidFreeTextNotAllowed, ft.Invalid.Type)
}
