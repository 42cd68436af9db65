package search

import "strings"

// filter parses a key:value term. It returns nil and restores the position
// when the text at the current offset is not a filter.
//
// ["!"] key ":" [operator] value
func (p *parser) filter() *Filter {
	start := p.pos
	negated := false
	if p.src[p.pos] == '!' {
		negated = true
		p.pos++
	}

	key := p.key()
	if key == nil || p.pos >= len(p.src) || p.src[p.pos] != ':' {
		p.pos = start
		return nil
	}
	p.pos++

	f := &Filter{Negated: negated, Key: key}
	mismatch := p.filterValue(f)
	f.node = newNode(TokenFilter, p.src, start, p.pos)
	p.validate(f, mismatch)
	return f
}

// key ( IDENT | "tags[" IDENT "]" | IDENT "(" [ param ( "," param )* ] ")" )
func (p *parser) key() Token {
	start := p.pos
	end := start
	for end < len(p.src) && isKeyChar(p.src[end]) {
		end++
	}
	if end == start {
		return nil
	}
	name := p.src[start:end]

	if end < len(p.src) {
		switch {
		case p.src[end] == '[' && name == "tags":
			return p.explicitTag(start, end)
		case p.src[end] == '(':
			return p.aggregate(start, end)
		}
	}

	p.pos = end
	return &KeySimple{node: newNode(TokenKeySimple, p.src, start, end), Value: name}
}

func (p *parser) explicitTag(start, bracket int) Token {
	nameStart := bracket + 1
	nameEnd := nameStart
	for nameEnd < len(p.src) && p.src[nameEnd] != ']' && !isSpace(p.src[nameEnd]) {
		nameEnd++
	}
	if nameEnd == nameStart || nameEnd >= len(p.src) || p.src[nameEnd] != ']' {
		return nil
	}
	p.pos = nameEnd + 1
	return &KeyExplicitTag{
		node:   newNode(TokenKeyExplicitTag, p.src, start, p.pos),
		Prefix: p.src[start:bracket],
		Key: &KeySimple{
			node:  newNode(TokenKeySimple, p.src, nameStart, nameEnd),
			Value: p.src[nameStart:nameEnd],
		},
	}
}

func (p *parser) aggregate(start, paren int) Token {
	var args []*KeyAggregateParam
	i := paren + 1
	for {
		i = p.skipBlanks(i)
		if i >= len(p.src) {
			return nil
		}
		if p.src[i] == ')' && len(args) == 0 {
			break
		}

		argStart := i
		param := &KeyAggregateParam{}
		if p.src[i] == '"' {
			c := closingQuote(p.src, i)
			if c < 0 {
				return nil
			}
			i = c + 1
			param.Quoted = true
			param.Value = unescapeQuoted(p.src[argStart+1 : c])
		} else {
			for i < len(p.src) && !strings.ContainsRune(",) \t\n(", rune(p.src[i])) {
				i++
			}
			param.Value = p.src[argStart:i]
		}
		param.node = newNode(TokenKeyAggregateParam, p.src, argStart, i)
		args = append(args, param)

		i = p.skipBlanks(i)
		if i >= len(p.src) {
			return nil
		}
		if p.src[i] == ')' {
			break
		}
		if p.src[i] != ',' {
			return nil
		}
		i++
	}

	p.pos = i + 1
	return &KeyAggregate{
		node: newNode(TokenKeyAggregate, p.src, start, p.pos),
		Name: &KeySimple{
			node:  newNode(TokenKeySimple, p.src, start, paren),
			Value: p.src[start:paren],
		},
		Args: args,
	}
}

// filterValue fills in the filter type, operator and value. It returns the
// reason the value does not fit the key's kind, or "".
func (p *parser) filterValue(f *Filter) InvalidReason {
	_, isAggregate := f.Key.(*KeyAggregate)
	kind, declared := p.cfg.kindOf(f.Key)

	if !isAggregate {
		switch strings.ToLower(keyName(f.Key)) {
		case "has":
			f.FilterType, f.Value = FilterHas, p.textOrList(false)
			return ""
		case "is":
			f.FilterType, f.Value = FilterIs, p.textOrList(false)
			return ""
		}
	}

	switch {
	case isAggregate && !declared:
		return p.inferredAggregate(f)
	case isAggregate && kind != KindText && kind != KindBoolean:
		f.Operator = p.operator()
		start, end := p.pos, p.valueEnd(p.pos, false)
		p.pos = end
		var reason InvalidReason
		f.FilterType, f.Value, reason = p.scalar(kind, true, f.Operator, start, end)
		return reason
	case !declared:
		kind = KindText
	}

	switch kind {
	case KindText:
		f.FilterType, f.Value = FilterText, p.textOrList(true)
		if _, ok := f.Value.(*ValueTextList); ok {
			f.FilterType = FilterTextIn
		}
		return ""
	case KindNumber:
		f.Operator = p.operator()
		if f.Operator == OpDefault {
			if ft, v, reason, ok := p.numberList(); ok {
				f.FilterType, f.Value = ft, v
				return reason
			}
		}
	case KindDate, KindDuration, KindSize, KindPercentage:
		f.Operator = p.operator()
	}

	start, end := p.pos, p.valueEnd(p.pos, false)
	p.pos = end
	var reason InvalidReason
	f.FilterType, f.Value, reason = p.scalar(kind, false, f.Operator, start, end)
	return reason
}

// scalar parses src[start:end] as a single value of kind. On a mismatch the
// value falls back to text and the matching invalid reason is returned.
func (p *parser) scalar(kind FieldKind, aggregate bool, op TermOperator, start, end int) (FilterType, Token, InvalidReason) {
	pick := func(simple, agg FilterType) FilterType {
		if aggregate {
			return agg
		}
		return simple
	}
	text := textValue(p.src, start, end)

	switch kind {
	case KindNumber:
		if v := parseNumber(p.src, start, end, p.cfg); v != nil {
			return pick(FilterNumeric, FilterAggregateNumeric), v, ""
		}
		return pick(FilterNumeric, FilterAggregateNumeric), text, InvalidNumber
	case KindDuration:
		if v := parseDuration(p.src, start, end, p.cfg); v != nil {
			return pick(FilterDuration, FilterAggregateDuration), v, ""
		}
		return pick(FilterDuration, FilterAggregateDuration), text, InvalidDuration
	case KindSize:
		if v := parseSize(p.src, start, end, p.cfg); v != nil {
			return pick(FilterSize, FilterAggregateSize), v, ""
		}
		return pick(FilterSize, FilterAggregateSize), text, InvalidFileSize
	case KindPercentage:
		if v := parsePercentage(p.src, start, end, p.cfg); v != nil {
			return pick(FilterPercentage, FilterAggregatePercentage), v, ""
		}
		return pick(FilterPercentage, FilterAggregatePercentage), text, InvalidPercentage
	case KindBoolean:
		if v := parseBoolean(p.src, start, end); v != nil {
			return FilterBoolean, v, ""
		}
		return FilterBoolean, text, InvalidBoolean
	case KindDate:
		if v := parseISODate(p.src, start, end, p.cfg); v != nil {
			switch {
			case aggregate:
				return FilterAggregateDate, v, ""
			case op == OpDefault:
				return FilterSpecificDate, v, ""
			}
			return FilterDate, v, ""
		}
		// Relative dates already encode a direction; only aggregates may
		// combine one with an operator.
		if v := parseRelativeDate(p.src, start, end, p.cfg); v != nil && (aggregate || op == OpDefault) {
			return pick(FilterRelativeDate, FilterAggregateRelativeDate), v, ""
		}
		return pick(FilterDate, FilterAggregateDate), text, InvalidDateFormat
	}
	return FilterText, text, ""
}

// aggregateInference is the order in which undeclared aggregate values are
// tried.
var aggregateInference = []FieldKind{KindDuration, KindSize, KindPercentage, KindNumber, KindDate}

func (p *parser) inferredAggregate(f *Filter) InvalidReason {
	f.Operator = p.operator()
	start, end := p.pos, p.valueEnd(p.pos, false)
	p.pos = end
	for _, kind := range aggregateInference {
		ft, v, reason := p.scalar(kind, true, f.Operator, start, end)
		if reason == "" {
			f.FilterType, f.Value = ft, v
			return ""
		}
	}
	f.FilterType, f.Value = FilterAggregateNumeric, textValue(p.src, start, end)
	return InvalidNumber
}

// numberList parses a bracketed list for a numeric key. ok is false when
// the value is not bracketed, in which case nothing is consumed.
func (p *parser) numberList() (FilterType, Token, InvalidReason, bool) {
	start := p.pos
	end := p.valueEnd(start, true)
	segments, ok := listSegments(p.src, start, end)
	if !ok {
		return "", nil, "", false
	}
	p.pos = end

	for _, seg := range segments {
		if seg.valueStart == seg.valueEnd {
			return FilterNumericIn, parseTextList(p.src, start, end), "", true
		}
	}
	if v := parseNumberList(p.src, start, end, p.cfg); v != nil {
		return FilterNumericIn, v, "", true
	}
	return FilterNumericIn, parseTextList(p.src, start, end), InvalidNumber, true
}

// textOrList consumes a text value, or a bracketed text list when allowed.
func (p *parser) textOrList(allowList bool) Token {
	start := p.pos
	end := p.valueEnd(start, true)
	p.pos = end
	if allowList {
		if list := parseTextList(p.src, start, end); list != nil {
			return list
		}
	}
	return textValue(p.src, start, end)
}

func (p *parser) operator() TermOperator {
	for _, op := range []TermOperator{OpGreaterThanEqual, OpLessThanEqual, OpNotEqual, OpGreaterThan, OpLessThan, OpEqual} {
		if strings.HasPrefix(p.src[p.pos:], string(op)) {
			p.pos += len(op)
			return op
		}
	}
	return OpDefault
}

// valueEnd returns the end of the value starting at start. Quoted sections
// may contain spaces and parentheses. A bracketed list may contain spaces
// when list is set.
func (p *parser) valueEnd(start int, list bool) int {
	if list && start < len(p.src) && p.src[start] == '[' {
		if end := p.listEnd(start); end > 0 && p.boundary(end) {
			return end
		}
	}
	i := start
	for i < len(p.src) && !p.boundary(i) {
		if p.src[i] == '"' {
			if c := closingQuote(p.src, i); c > 0 {
				i = c + 1
				continue
			}
		}
		i++
	}
	return i
}

func (p *parser) listEnd(start int) int {
	for i := start + 1; i < len(p.src); i++ {
		switch p.src[i] {
		case '"':
			c := closingQuote(p.src, i)
			if c < 0 {
				return -1
			}
			i = c
		case ']':
			return i + 1
		}
	}
	return -1
}

func (p *parser) skipBlanks(i int) int {
	for i < len(p.src) && isSpace(p.src[i]) {
		i++
	}
	return i
}

// validate attaches at most one invalid marker, checked in order of
// severity, and the configured warning.
func (p *parser) validate(f *Filter, mismatch InvalidReason) {
	name := keyName(f.Key)
	_, isAggregate := f.Key.(*KeyAggregate)

	switch {
	case f.Negated && p.cfg.DisallowNegation:
		f.Invalid = p.cfg.invalid(InvalidNegationNotAllowed, name)
	case p.cfg.ValidateKeys && !isAggregate && !p.cfg.knownKey(name):
		f.Invalid = p.cfg.invalid(InvalidKey, name)
	case f.Value.Text() == "":
		f.Invalid = p.cfg.invalid(InvalidFilterMustHaveValue, name)
	case mismatch != "":
		f.Invalid = p.cfg.invalid(mismatch, name)
	case p.cfg.DisallowWildcard && anyText(f.Value, func(v *ValueText) bool { return v.Wildcard != WildcardNone }):
		f.Invalid = p.cfg.invalid(InvalidWildcardNotAllowed, name)
	case anyText(f.Value, func(v *ValueText) bool { return v.Text() == "" }):
		f.Invalid = p.cfg.invalid(InvalidEmptyValueInListNotAllowed, name)
	case anyText(f.Value, func(v *ValueText) bool { return !v.Quoted && hasUnescapedQuote(v.Value) }):
		f.Invalid = p.cfg.invalid(InvalidMustBeQuoted, name)
	}

	if p.cfg.FilterTokenWarning != nil {
		f.Warning = p.cfg.FilterTokenWarning(name)
	}
}

// anyText reports whether pred holds for a text value or any text list item.
func anyText(value Token, pred func(*ValueText) bool) bool {
	switch v := value.(type) {
	case *ValueText:
		return pred(v)
	case *ValueTextList:
		for _, item := range v.Items {
			if pred(item.Value) {
				return true
			}
		}
	}
	return false
}

func isKeyChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return c == '_' || c == '.' || c == '-' || c == '@'
}
