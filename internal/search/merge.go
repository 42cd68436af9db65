package search

// MergeFreeText turns spaces tokens into free text and merges runs of
// adjacent free text into a single token. src must be the string tokens were
// parsed from. Editors use the result so that every gap between filters is
// one editable free text item.
func MergeFreeText(src string, tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	var run *FreeText

	flush := func() {
		if run != nil {
			out = append(out, run)
			run = nil
		}
	}

	for _, tok := range tokens {
		var invalid *Invalid
		switch t := tok.(type) {
		case *Spaces:
		case *FreeText:
			invalid = t.Invalid
		default:
			flush()
			out = append(out, tok)
			continue
		}

		loc := tok.Location()
		if run == nil {
			run = &FreeText{node: newNode(TokenFreeText, src, loc.Start.Offset, loc.End.Offset)}
		} else {
			run.node = newNode(TokenFreeText, src, run.Loc.Start.Offset, loc.End.Offset)
		}
		run.Value = run.Raw
		if run.Invalid == nil {
			run.Invalid = invalid
		}
	}
	flush()
	return out
}
