package view

import (
	"github.com/samber/lo"

	"github.com/zate/searchbar/internal/search"
)

// Problem is an invalid marker or warning found somewhere in a token tree.
type Problem struct {
	Text    string               `json:"text"`
	Offset  int                  `json:"offset"`
	Reason  search.InvalidReason `json:"reason,omitempty"`
	Message string               `json:"message"`
	Warning bool                 `json:"warning,omitempty"`
}

// Summary counts what a parsed query is made of.
type Summary struct {
	Query    string    `json:"query"`
	Filters  int       `json:"filters"`
	FreeText int       `json:"free_text"`
	Booleans int       `json:"booleans"`
	Groups   int       `json:"groups"`
	Depth    int       `json:"depth"`
	Keys     []string  `json:"keys"`
	Problems []Problem `json:"problems"`
}

// Valid reports whether no token carries an invalid marker. Warnings do
// not count.
func (s *Summary) Valid() bool {
	return !lo.ContainsBy(s.Problems, func(p Problem) bool { return !p.Warning })
}

func Compose(query string, tokens []search.Token) *Summary {
	s := &Summary{Query: query, Keys: []string{}, Problems: []Problem{}}
	s.walk(tokens, 0)
	s.Keys = lo.Uniq(s.Keys)
	return s
}

func (s *Summary) walk(tokens []search.Token, depth int) {
	s.Depth = max(s.Depth, depth)
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *search.Filter:
			s.Filters++
			s.Keys = append(s.Keys, t.KeyName())
			if t.Warning != "" {
				s.Problems = append(s.Problems, Problem{
					Text:    t.Text(),
					Offset:  t.Location().Start.Offset,
					Message: t.Warning,
					Warning: true,
				})
			}
		case *search.FreeText:
			s.FreeText++
		case *search.LogicBoolean:
			s.Booleans++
		case *search.LogicGroup:
			s.Groups++
			s.walk(t.Inner, depth+1)
		}
		if inv := search.InvalidOf(tok); inv != nil {
			s.Problems = append(s.Problems, Problem{
				Text:    tok.Text(),
				Offset:  tok.Location().Start.Offset,
				Reason:  inv.Type,
				Message: inv.Reason,
			})
		}
	}
}
