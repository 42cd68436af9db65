package builder

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zate/searchbar/internal/search"
)

var (
	// ErrUnknownItem is returned when an item key does not name a token of
	// the current query.
	ErrUnknownItem = errors.New("unknown item")
	// ErrInvalidCommand is returned for commands that fail validation or do
	// not fit the item they target.
	ErrInvalidCommand = errors.New("invalid command")
)

// Builder is one editing session. It is not safe for concurrent use.
type Builder struct {
	reducer Reducer
	state   State
	tokens  []search.Token
	log     *zap.SugaredLogger
}

// New starts a session on query.
func New(query string, reducer Reducer) *Builder {
	return Restore(State{Query: query}, reducer)
}

// Restore resumes a session from a saved state.
func Restore(state State, reducer Reducer) *Builder {
	b := &Builder{reducer: reducer, log: zap.S().Named("builder")}
	b.set(state)
	return b
}

func (b *Builder) set(state State) {
	b.state = state
	b.tokens = b.reducer.Tokens(state.Query)
}

// Dispatch applies action and returns the new state.
func (b *Builder) Dispatch(action Action) State {
	prev := b.state.Query
	next := b.reducer.Reduce(b.state, action)
	b.set(next)
	b.log.Debugw("dispatched action",
		"action", fmt.Sprintf("%T", action),
		"changed", prev != next.Query,
		"query", next.Query)
	return next
}

func (b *Builder) State() State {
	return b.state
}

// Tokens returns the editor view of the current query.
func (b *Builder) Tokens() []search.Token {
	return b.tokens
}

// Items pairs every token with its item key.
func (b *Builder) Items() []Item {
	items := make([]Item, 0, len(b.tokens))
	for i, tok := range b.tokens {
		items = append(items, Item{Key: ItemKey(b.tokens, i), Token: tok})
	}
	return items
}

// Item is a token together with its key.
type Item struct {
	Key   string       `json:"key"`
	Token search.Token `json:"token"`
}

// Lookup finds the token for an item key such as "filter:0".
func (b *Builder) Lookup(itemKey string) (search.Token, error) {
	for i := range b.tokens {
		if ItemKey(b.tokens, i) == itemKey {
			return b.tokens[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownItem, itemKey)
}

// Filter is Lookup restricted to filter items.
func (b *Builder) Filter(itemKey string) (*search.Filter, error) {
	tok, err := b.Lookup(itemKey)
	if err != nil {
		return nil, err
	}
	f, ok := tok.(*search.Filter)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, not a filter", ErrInvalidCommand, itemKey, tok.Type())
	}
	return f, nil
}
