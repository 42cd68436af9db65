package builder

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/zate/searchbar/internal/search"
)

var validate = validator.New()

// Command is the serialisable form of an Action. Tokens are addressed by
// item key, so a command can travel over HTTP or MCP.
type Command struct {
	Action string `json:"action" validate:"required,oneof=clear update_query reset_focus delete_token delete_tokens update_free_text paste_free_text update_filter_key update_filter_op update_token_value toggle_filter_value delete_last_value"`
	// Item is the target item key.
	Item string `json:"item,omitempty"`
	// Items targets several items; used by delete_tokens and the free text
	// actions.
	Items    []string `json:"items,omitempty" validate:"dive,required"`
	Text     string   `json:"text,omitempty"`
	Operator string   `json:"operator,omitempty"`
	Focus    string   `json:"focus,omitempty"`
}

// Commands lists the accepted Command.Action values.
func Commands() []string {
	return []string{
		"clear", "update_query", "reset_focus", "delete_token", "delete_tokens",
		"update_free_text", "paste_free_text", "update_filter_key", "update_filter_op",
		"update_token_value", "toggle_filter_value", "delete_last_value",
	}
}

var operatorNames = map[string]search.TermOperator{
	"default": search.OpDefault,
	"eq":      search.OpEqual,
	"ne":      search.OpNotEqual,
	"gt":      search.OpGreaterThan,
	"gte":     search.OpGreaterThanEqual,
	"lt":      search.OpLessThan,
	"lte":     search.OpLessThanEqual,
}

// ParseOperator accepts an operator by name (gt, ne, ...) or as written
// (>, !=, ...). The empty string is the default operator.
func ParseOperator(s string) (search.TermOperator, error) {
	if op, ok := operatorNames[s]; ok {
		return op, nil
	}
	switch op := search.TermOperator(s); op {
	case search.OpDefault, search.OpEqual, search.OpNotEqual, search.OpGreaterThan,
		search.OpGreaterThanEqual, search.OpLessThan, search.OpLessThanEqual:
		return op, nil
	}
	return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidCommand, s)
}

// Apply resolves cmd against the current tokens and dispatches it.
func (b *Builder) Apply(cmd Command) (State, error) {
	action, err := b.action(cmd)
	if err != nil {
		return b.state, err
	}
	return b.Dispatch(action), nil
}

func (b *Builder) action(cmd Command) (Action, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	var focus *FocusOverride
	if cmd.Focus != "" {
		focus = &FocusOverride{ItemKey: cmd.Focus}
	}

	switch cmd.Action {
	case "clear":
		return Clear{}, nil
	case "update_query":
		return UpdateQuery{Query: cmd.Text, Focus: focus}, nil
	case "reset_focus":
		return ResetFocusOverride{}, nil
	case "delete_token":
		tok, err := b.Lookup(cmd.Item)
		if err != nil {
			return nil, err
		}
		return DeleteToken{Token: tok}, nil
	case "delete_tokens":
		tokens, err := b.targets(cmd)
		if err != nil {
			return nil, err
		}
		return DeleteTokens{Tokens: tokens}, nil
	case "update_free_text":
		tokens, err := b.targets(cmd)
		if err != nil {
			return nil, err
		}
		return UpdateFreeText{Tokens: tokens, Text: cmd.Text, Focus: focus}, nil
	case "paste_free_text":
		tokens, err := b.targets(cmd)
		if err != nil {
			return nil, err
		}
		return PasteFreeText{Tokens: tokens, Text: cmd.Text}, nil
	}

	f, err := b.Filter(cmd.Item)
	if err != nil {
		return nil, err
	}
	switch cmd.Action {
	case "update_filter_key":
		return UpdateFilterKey{Token: f, Key: cmd.Text}, nil
	case "update_filter_op":
		op, err := ParseOperator(cmd.Operator)
		if err != nil {
			return nil, err
		}
		return UpdateFilterOp{Token: f, Op: op}, nil
	case "update_token_value":
		return UpdateTokenValue{Token: f, Value: cmd.Text}, nil
	case "toggle_filter_value":
		return ToggleFilterValue{Token: f, Value: cmd.Text}, nil
	case "delete_last_value":
		return DeleteLastMultiSelectFilterValue{Token: f}, nil
	}
	return nil, fmt.Errorf("%w: unsupported action %q", ErrInvalidCommand, cmd.Action)
}

// targets resolves Items, falling back to Item.
func (b *Builder) targets(cmd Command) ([]search.Token, error) {
	keys := cmd.Items
	if len(keys) == 0 && cmd.Item != "" {
		keys = []string{cmd.Item}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s needs an item", ErrInvalidCommand, cmd.Action)
	}
	tokens := make([]search.Token, 0, len(keys))
	for _, key := range keys {
		tok, err := b.Lookup(key)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
