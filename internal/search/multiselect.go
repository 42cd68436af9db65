package search

// MultiSelectValue is a comma separated list of values as typed into a
// multi-select filter, without the surrounding brackets.
type MultiSelectValue struct {
	Items []MultiSelectItem `json:"items"`
}

type MultiSelectItem struct {
	// Separator is the text between the previous item and this one: the
	// comma plus any spaces around it.
	Separator string    `json:"separator"`
	Value     ItemValue `json:"value"`
	Location  Location  `json:"location"`
}

// ItemValue holds both the literal item text (quotes and wildcard markers
// included) and the unescaped value it stands for.
type ItemValue struct {
	Value    string           `json:"value"`
	Text     string           `json:"text"`
	Quoted   bool             `json:"quoted"`
	Wildcard WildcardPosition `json:"wildcard"`
}

// Values returns the semantic value of every item in order.
func (m *MultiSelectValue) Values() []string {
	out := make([]string, 0, len(m.Items))
	for _, item := range m.Items {
		out = append(out, item.Value.Value)
	}
	return out
}

// ParseMultiSelectValue splits raw on commas outside quotes. Empty segments
// yield items with an empty value. It returns nil when a quote is left open.
func ParseMultiSelectValue(raw string) *MultiSelectValue {
	segments, ok := splitSegments(raw, 0, len(raw))
	if !ok {
		return nil
	}
	out := &MultiSelectValue{Items: make([]MultiSelectItem, 0, len(segments))}
	for _, seg := range segments {
		v := textValue(raw, seg.valueStart, seg.valueEnd)
		out.Items = append(out.Items, MultiSelectItem{
			Separator: raw[seg.sepStart:seg.valueStart],
			Value: ItemValue{
				Value:    v.Value,
				Text:     v.Text(),
				Quoted:   v.Quoted,
				Wildcard: v.Wildcard,
			},
			Location: v.Location(),
		})
	}
	return out
}

// segment is one list entry: src[sepStart:valueStart] is the separator and
// src[valueStart:valueEnd] the item text.
type segment struct {
	sepStart   int
	valueStart int
	valueEnd   int
}

// splitSegments splits src[start:end] on commas that are not inside quotes.
// Spaces around a comma belong to the separator. It reports false when a
// quote is never closed.
func splitSegments(src string, start, end int) ([]segment, bool) {
	bounded := src[:end]
	var segs []segment
	sepStart := start
	i := start
	for {
		valueStart := i
		for valueStart < end && bounded[valueStart] == ' ' {
			valueStart++
		}
		j := valueStart
		for j < end && bounded[j] != ',' {
			switch bounded[j] {
			case '"':
				c := closingQuote(bounded, j)
				if c < 0 {
					return nil, false
				}
				j = c + 1
			case '\\':
				j = min(j+2, end)
			default:
				j++
			}
		}
		valueEnd := j
		for valueEnd > valueStart && bounded[valueEnd-1] == ' ' {
			valueEnd--
		}
		segs = append(segs, segment{sepStart: sepStart, valueStart: valueStart, valueEnd: valueEnd})
		if j >= end {
			return segs, true
		}
		sepStart = valueEnd
		i = j + 1
	}
}
