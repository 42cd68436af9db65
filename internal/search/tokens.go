package search

import (
	"encoding/json"
	"time"
)

// TokenType identifies the kind of a parsed token. The string values are
// stable and appear both in JSON output and in builder item keys.
type TokenType string

const (
	TokenSpaces            TokenType = "spaces"
	TokenFreeText          TokenType = "freeText"
	TokenFilter            TokenType = "filter"
	TokenLogicBoolean      TokenType = "logicBoolean"
	TokenLogicGroup        TokenType = "logicGroup"
	TokenLParen            TokenType = "lParen"
	TokenRParen            TokenType = "rParen"
	TokenKeySimple         TokenType = "keySimple"
	TokenKeyExplicitTag    TokenType = "keyExplicitTag"
	TokenKeyAggregate      TokenType = "keyAggregate"
	TokenKeyAggregateParam TokenType = "keyAggregateParam"
	TokenValueText         TokenType = "valueText"
	TokenValueTextList     TokenType = "valueTextList"
	TokenValueNumber       TokenType = "valueNumber"
	TokenValueNumberList   TokenType = "valueNumberList"
	TokenValueBoolean      TokenType = "valueBoolean"
	TokenValueISO8601Date  TokenType = "valueIso8601Date"
	TokenValueRelativeDate TokenType = "valueRelativeDate"
	TokenValueDuration     TokenType = "valueDuration"
	TokenValueSize         TokenType = "valueSize"
	TokenValuePercentage   TokenType = "valuePercentage"
)

// Position is a byte offset into the parsed query.
type Position struct {
	Offset int `json:"offset"`
}

// Location is the half-open byte range [Start, End) a token covers.
type Location struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func span(start, end int) Location {
	return Location{Start: Position{Offset: start}, End: Position{Offset: end}}
}

// Token is implemented by every parse result node. The set of
// implementations is closed; consumers switch on the concrete type.
type Token interface {
	Type() TokenType
	Text() string
	Location() Location
	isToken()
}

type node struct {
	Kind TokenType `json:"type"`
	Raw  string    `json:"text"`
	Loc  Location  `json:"location"`
}

func (n *node) Type() TokenType    { return n.Kind }
func (n *node) Text() string       { return n.Raw }
func (n *node) Location() Location { return n.Loc }
func (n *node) isToken()           {}

func newNode(kind TokenType, src string, start, end int) node {
	return node{Kind: kind, Raw: src[start:end], Loc: span(start, end)}
}

// Invalid describes why a token cannot be used as written.
type Invalid struct {
	Type   InvalidReason `json:"type"`
	Reason string        `json:"reason"`
}

// BooleanOperator is a logical keyword between terms.
type BooleanOperator string

const (
	BooleanAnd BooleanOperator = "AND"
	BooleanOr  BooleanOperator = "OR"
)

// TermOperator is the comparison written between a filter's separator and
// its value.
type TermOperator string

const (
	OpDefault          TermOperator = ""
	OpGreaterThanEqual TermOperator = ">="
	OpLessThanEqual    TermOperator = "<="
	OpGreaterThan      TermOperator = ">"
	OpLessThan         TermOperator = "<"
	OpEqual            TermOperator = "="
	OpNotEqual         TermOperator = "!="
)

// FilterType classifies a filter by key and value grammar.
type FilterType string

const (
	FilterText                  FilterType = "text"
	FilterTextIn                FilterType = "textIn"
	FilterDate                  FilterType = "date"
	FilterSpecificDate          FilterType = "specificDate"
	FilterRelativeDate          FilterType = "relativeDate"
	FilterDuration              FilterType = "duration"
	FilterSize                  FilterType = "size"
	FilterNumeric               FilterType = "numeric"
	FilterNumericIn             FilterType = "numericIn"
	FilterPercentage            FilterType = "percentage"
	FilterBoolean               FilterType = "boolean"
	FilterHas                   FilterType = "has"
	FilterIs                    FilterType = "is"
	FilterAggregateDuration     FilterType = "aggregateDuration"
	FilterAggregateSize         FilterType = "aggregateSize"
	FilterAggregatePercentage   FilterType = "aggregatePercentage"
	FilterAggregateNumeric      FilterType = "aggregateNumeric"
	FilterAggregateDate         FilterType = "aggregateDate"
	FilterAggregateRelativeDate FilterType = "aggregateRelativeDate"
)

// WildcardPosition records where a text value carries a '*' marker.
type WildcardPosition string

const (
	WildcardNone       WildcardPosition = "false"
	WildcardLeading    WildcardPosition = "leading"
	WildcardTrailing   WildcardPosition = "trailing"
	WildcardSurrounded WildcardPosition = "surrounded"
)

type Spaces struct {
	node
	Value string `json:"value"`
}

type FreeText struct {
	node
	Value   string   `json:"value"`
	Quoted  bool     `json:"quoted"`
	Invalid *Invalid `json:"invalid"`
}

type LogicBoolean struct {
	node
	Value   BooleanOperator `json:"value"`
	Invalid *Invalid        `json:"invalid"`
}

// LogicGroup is a matched pair of parentheses. Inner holds the tokens
// between them; the parentheses themselves only appear in Text.
type LogicGroup struct {
	node
	Inner   []Token  `json:"inner"`
	Invalid *Invalid `json:"invalid"`
}

type LParen struct {
	node
	Invalid *Invalid `json:"invalid"`
}

type RParen struct {
	node
	Invalid *Invalid `json:"invalid"`
}

// Filter is a key:value term. Key is one of *KeySimple, *KeyExplicitTag or
// *KeyAggregate; Value is one of the value token types.
type Filter struct {
	node
	FilterType FilterType   `json:"filter"`
	Negated    bool         `json:"negated"`
	Key        Token        `json:"key"`
	Operator   TermOperator `json:"operator"`
	Value      Token        `json:"value"`
	Invalid    *Invalid     `json:"invalid"`
	Warning    string       `json:"warning,omitempty"`
}

// KeyName returns the key as users refer to it in configuration: the bare
// key for simple keys, the tag name for tags[...] keys and the full text
// for aggregates.
func (f *Filter) KeyName() string {
	return keyName(f.Key)
}

// IsDate reports whether the filter compares against a date value.
func (f *Filter) IsDate() bool {
	switch f.FilterType {
	case FilterDate, FilterSpecificDate, FilterRelativeDate,
		FilterAggregateDate, FilterAggregateRelativeDate:
		return true
	}
	return false
}

// AcceptsOperator reports whether comparison operators other than equality
// can be written for this filter.
func (f *Filter) AcceptsOperator() bool {
	switch f.FilterType {
	case FilterText, FilterTextIn, FilterNumericIn, FilterBoolean, FilterHas, FilterIs:
		return false
	}
	return true
}

type KeySimple struct {
	node
	Value string `json:"value"`
}

// KeyExplicitTag is the tags[name] form.
type KeyExplicitTag struct {
	node
	Prefix string     `json:"prefix"`
	Key    *KeySimple `json:"key"`
}

// KeyAggregate is a function key such as p95(transaction.duration).
type KeyAggregate struct {
	node
	Name *KeySimple           `json:"name"`
	Args []*KeyAggregateParam `json:"args"`
}

type KeyAggregateParam struct {
	node
	Value  string `json:"value"`
	Quoted bool   `json:"quoted"`
}

type ValueText struct {
	node
	Value    string           `json:"value"`
	Quoted   bool             `json:"quoted"`
	Wildcard WildcardPosition `json:"wildcard"`
}

// ListItem is one entry of a bracketed list value. Separator is the comma
// (plus any following spaces) that precedes the item, empty for the first.
type ListItem[T Token] struct {
	Separator string `json:"separator"`
	Value     T      `json:"value"`
}

type ValueTextList struct {
	node
	Items []ListItem[*ValueText] `json:"items"`
}

type ValueNumber struct {
	node
	Value  string   `json:"value"`
	Unit   string   `json:"unit,omitempty"`
	Parsed *float64 `json:"parsed,omitempty"`
}

type ValueNumberList struct {
	node
	Items []ListItem[*ValueNumber] `json:"items"`
}

type ValueBoolean struct {
	node
	Value bool `json:"value"`
}

type ValueISO8601Date struct {
	node
	Value  string     `json:"value"`
	Parsed *time.Time `json:"parsed,omitempty"`
}

// ValueRelativeDate is a signed offset from now such as -24h. A '-' sign
// means "within the last", '+' means "older than".
type ValueRelativeDate struct {
	node
	Value  string     `json:"value"`
	Sign   string     `json:"sign"`
	Unit   string     `json:"unit"`
	Parsed *time.Time `json:"parsed,omitempty"`
}

type ValueDuration struct {
	node
	Value  string   `json:"value"`
	Unit   string   `json:"unit"`
	Parsed *float64 `json:"parsed,omitempty"` // milliseconds
}

type ValueSize struct {
	node
	Value  string   `json:"value"`
	Unit   string   `json:"unit"`
	Parsed *float64 `json:"parsed,omitempty"` // bytes
}

type ValuePercentage struct {
	node
	Value  string   `json:"value"`
	Parsed *float64 `json:"parsed,omitempty"` // ratio, 50% == 0.5
}

// InvalidOf returns the invalid marker carried by tok, if any.
func InvalidOf(tok Token) *Invalid {
	switch t := tok.(type) {
	case *FreeText:
		return t.Invalid
	case *Filter:
		return t.Invalid
	case *LogicBoolean:
		return t.Invalid
	case *LogicGroup:
		return t.Invalid
	case *LParen:
		return t.Invalid
	case *RParen:
		return t.Invalid
	}
	return nil
}

func keyName(key Token) string {
	switch k := key.(type) {
	case *KeySimple:
		return k.Value
	case *KeyExplicitTag:
		return k.Key.Value
	case *KeyAggregate:
		return k.Text()
	}
	return ""
}

// MarshalJSON encodes the absence of a wildcard as a bare false so the
// field reads as `false | "leading" | "trailing" | "surrounded"`.
func (w WildcardPosition) MarshalJSON() ([]byte, error) {
	if w == WildcardNone || w == "" {
		return []byte("false"), nil
	}
	return []byte(`"` + string(w) + `"`), nil
}

func (w *WildcardPosition) UnmarshalJSON(data []byte) error {
	if string(data) == "false" {
		*w = WildcardNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*w = WildcardPosition(s)
	return nil
}
