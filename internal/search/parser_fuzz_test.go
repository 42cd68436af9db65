package search

import (
	"strings"
	"testing"
)

func FuzzParse(f *testing.F) {
	f.Add("foo:bar")
	f.Add("!browser:\"Chrome 120\" OR (os:linux AND count():>10)")
	f.Add("")
	f.Add("((((a))))")
	f.Add("tags[a]:[b, \"c,d\"]")
	f.Add("age:-24h transaction.duration:>1.5s")
	f.Add("\"unterminated")
	f.Add(")(")

	cfg := Config{Parse: true, Keys: map[string]FieldKind{"count": KindNumber, "age": KindDate}}
	f.Fuzz(func(t *testing.T, input string) {
		for _, flatten := range []bool{false, true} {
			c := cfg
			c.FlattenParenGroups = flatten
			tokens, err := Parse(input, c)
			if err != nil {
				continue
			}
			var b strings.Builder
			for _, tok := range tokens {
				b.WriteString(tok.Text())
			}
			if b.String() != input {
				t.Fatalf("round trip mismatch: %q != %q", b.String(), input)
			}
		}
		_ = ParseMultiSelectValue(input)
	})
}
