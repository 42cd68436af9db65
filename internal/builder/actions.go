package builder

import "github.com/zate/searchbar/internal/search"

// FocusOverride asks the editor to move the cursor to an item.
type FocusOverride struct {
	ItemKey string `json:"itemKey"`
}

// State is everything an editing session owns. Tokens are always derived
// from Query.
type State struct {
	Query         string         `json:"query"`
	FocusOverride *FocusOverride `json:"focusOverride"`
}

// Action is one edit. The set of implementations is closed.
type Action interface {
	isAction()
}

type Clear struct{}

// UpdateQuery replaces the query wholesale.
type UpdateQuery struct {
	Query string
	Focus *FocusOverride
}

type ResetFocusOverride struct{}

type DeleteToken struct {
	Token search.Token
}

// DeleteTokens removes several tokens at once, for example a selection.
type DeleteTokens struct {
	Tokens []search.Token
}

// UpdateFreeText replaces the contiguous run of Tokens with Text.
type UpdateFreeText struct {
	Tokens []search.Token
	Text   string
	Focus  *FocusOverride
}

// PasteFreeText is UpdateFreeText that also moves focus to the first free
// text item after the pasted text.
type PasteFreeText struct {
	Tokens []search.Token
	Text   string
}

type UpdateFilterKey struct {
	Token *search.Filter
	Key   string
}

type UpdateFilterOp struct {
	Token *search.Filter
	Op    search.TermOperator
}

type UpdateTokenValue struct {
	Token *search.Filter
	Value string
}

// ToggleFilterValue adds Value to a multi-value filter, or removes it when
// already present.
type ToggleFilterValue struct {
	Token *search.Filter
	Value string
}

type DeleteLastMultiSelectFilterValue struct {
	Token *search.Filter
}

func (Clear) isAction()                            {}
func (UpdateQuery) isAction()                      {}
func (ResetFocusOverride) isAction()               {}
func (DeleteToken) isAction()                      {}
func (DeleteTokens) isAction()                     {}
func (UpdateFreeText) isAction()                   {}
func (PasteFreeText) isAction()                    {}
func (UpdateFilterKey) isAction()                  {}
func (UpdateFilterOp) isAction()                   {}
func (UpdateTokenValue) isAction()                 {}
func (ToggleFilterValue) isAction()                {}
func (DeleteLastMultiSelectFilterValue) isAction() {}
