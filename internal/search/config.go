package search

import (
	"strings"
	"time"
)

// FieldKind is the value grammar a key expects.
type FieldKind string

const (
	KindText       FieldKind = "text"
	KindNumber     FieldKind = "number"
	KindBoolean    FieldKind = "boolean"
	KindDate       FieldKind = "date"
	KindDuration   FieldKind = "duration"
	KindSize       FieldKind = "size"
	KindPercentage FieldKind = "percentage"
)

// Kinds lists every FieldKind.
func Kinds() []FieldKind {
	return []FieldKind{KindText, KindNumber, KindBoolean, KindDate, KindDuration, KindSize, KindPercentage}
}

// DefaultMaxDepth bounds parenthesis nesting when Config.MaxDepth is zero.
const DefaultMaxDepth = 64

// Config controls tokenization and validation. It is passed by value to
// Parse and threaded explicitly through the parser; nothing is global.
type Config struct {
	// Keys maps recognized keys to the kind of value they take. Aggregate
	// keys may be listed by their full text or by function name.
	Keys map[string]FieldKind
	// ValidateKeys marks simple and tag keys missing from Keys as invalid.
	ValidateKeys bool
	// Parse computes semantic values (numbers, byte sizes, dates) in
	// addition to the syntactic tokens.
	Parse bool

	DisallowFreeText           bool
	DisallowNegation           bool
	DisallowWildcard           bool
	DisallowParens             bool
	DisallowedLogicalOperators map[BooleanOperator]bool

	// FilterTokenWarning returns a non-fatal warning for a filter key, or "".
	FilterTokenWarning func(key string) string
	// InvalidMessages overrides the default message per reason.
	InvalidMessages map[InvalidReason]string

	// FlattenParenGroups emits every parenthesis as an lParen/rParen token
	// instead of nesting matched pairs in a logicGroup.
	FlattenParenGroups bool

	MaxDepth int
	Now      func() time.Time
}

func (c *Config) maxDepth() int {
	if c.MaxDepth > 0 {
		return c.MaxDepth
	}
	return DefaultMaxDepth
}

func (c *Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// kindOf resolves the declared kind for key. ok is false when the key is
// not declared.
func (c *Config) kindOf(key Token) (FieldKind, bool) {
	switch k := key.(type) {
	case *KeyAggregate:
		if kind, ok := c.Keys[k.Text()]; ok {
			return kind, true
		}
		kind, ok := c.Keys[k.Name.Value]
		return kind, ok
	default:
		kind, ok := c.Keys[keyName(key)]
		return kind, ok
	}
}

func (c *Config) knownKey(name string) bool {
	if _, ok := c.Keys[name]; ok {
		return true
	}
	switch strings.ToLower(name) {
	case "has", "is":
		return true
	}
	return false
}

func (c *Config) booleanAllowed(op BooleanOperator) bool {
	return !c.DisallowedLogicalOperators[op]
}
