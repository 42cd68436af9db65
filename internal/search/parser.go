package search

import (
	"fmt"
	"strings"
)

// ParseError is returned by Parse when the input cannot be tokenized at all.
// Ordinary mistakes never produce one; they are reported through the
// Invalid field of the affected token.
type ParseError struct {
	// Byte offset where parsing stopped.
	Position int
	Message  string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Position, e.Message)
}

type parser struct {
	src   string
	pos   int
	cfg   *Config
	depth int
	// Offsets of '(' already known not to close; they are re-read as text.
	unmatched map[int]bool
	// Set when a group runs off the end of the input. Every enclosing group
	// fails as well, so they stop at once instead of rescanning the tail.
	abandon bool
	// Pending depth error for a closed group past MaxDepth. It is raised
	// only if every enclosing group closes too.
	tooDeep *ParseError
}

// Parse tokenizes query. Concatenating the Text of the returned tokens
// reproduces query exactly. The only error is a ParseError, returned when
// matched parentheses nest deeper than cfg.MaxDepth. Unclosed parentheses
// are free text at any depth.
func Parse(query string, cfg Config) (tokens []Token, err error) {
	p := &parser{src: query, cfg: &cfg, unmatched: make(map[int]bool)}

	defer func() {
		if r := recover(); r != nil {
			tokens = nil
			if pe, ok := r.(ParseError); ok {
				err = pe
				return
			}
			err = ParseError{Position: p.pos, Message: fmt.Sprint(r)}
		}
	}()

	tokens = p.sequence(false)
	if p.pos != len(p.src) {
		panic(p.errorf("unexpected %q", p.src[p.pos:p.pos+1]))
	}
	return tokens, nil
}

// sequence parses terms separated by whitespace. The result always starts
// with a spaces token and every term is followed by one, possibly empty.
//
// spaces ( term spaces )*
func (p *parser) sequence(inGroup bool) []Token {
	tokens := []Token{p.spaces()}
	for p.pos < len(p.src) {
		if inGroup && (p.abandon || p.src[p.pos] == ')') {
			break
		}
		tokens = append(tokens, p.term(inGroup))
		tokens = append(tokens, p.spaces())
	}
	return tokens
}

// term ( boolean | group | paren | filter | freeText )
func (p *parser) term(inGroup bool) Token {
	if tok := p.boolean(); tok != nil {
		return tok
	}
	switch p.src[p.pos] {
	case '(':
		if p.cfg.FlattenParenGroups {
			return p.lParen()
		}
		if !p.unmatched[p.pos] {
			if group := p.group(); group != nil {
				return group
			}
			p.unmatched[p.pos] = true
			if p.depth == 0 {
				p.abandon = false
			}
		}
	case ')':
		if p.cfg.FlattenParenGroups && !inGroup {
			return p.rParen()
		}
	}
	if tok := p.filter(); tok != nil {
		return tok
	}
	return p.freeText()
}

func (p *parser) spaces() *Spaces {
	start := p.pos
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
	raw := p.src[start:p.pos]
	return &Spaces{node: newNode(TokenSpaces, p.src, start, p.pos), Value: raw}
}

// boolean matches AND or OR as a whole word.
func (p *parser) boolean() *LogicBoolean {
	for _, op := range []BooleanOperator{BooleanAnd, BooleanOr} {
		end := p.pos + len(op)
		if !strings.HasPrefix(p.src[p.pos:], string(op)) || !p.boundary(end) {
			continue
		}
		tok := &LogicBoolean{node: newNode(TokenLogicBoolean, p.src, p.pos, end), Value: op}
		if !p.cfg.booleanAllowed(op) {
			reason := InvalidLogicalAndNotAllowed
			if op == BooleanOr {
				reason = InvalidLogicalOrNotAllowed
			}
			tok.Invalid = p.cfg.invalid(reason, "")
		}
		p.pos = end
		return tok
	}
	return nil
}

// group parses a parenthesised sequence. It returns nil and leaves the
// position untouched when the '(' at the current offset is never closed.
//
// "(" sequence ")"
func (p *parser) group() *LogicGroup {
	start := p.pos
	if p.depth >= p.cfg.maxDepth() {
		return p.skipGroup()
	}
	p.depth++
	defer func() { p.depth-- }()

	p.pos++
	inner := p.sequence(true)
	if p.abandon || p.pos >= len(p.src) || p.src[p.pos] != ')' {
		p.pos = start
		p.abandon = true
		p.tooDeep = nil
		return nil
	}
	p.pos++
	if p.depth == 1 && p.tooDeep != nil {
		panic(*p.tooDeep)
	}

	tok := &LogicGroup{node: newNode(TokenLogicGroup, p.src, start, p.pos), Inner: inner}
	if p.cfg.DisallowParens {
		tok.Invalid = p.cfg.invalid(InvalidParensNotAllowed, "")
	}
	return tok
}

// skipGroup scans a group that would nest past MaxDepth without recursing.
// Nested parentheses are only counted. If the group closes, the depth error
// is recorded and a placeholder is returned: it is either discarded when the
// error is raised or reparsed once an enclosing group fails. If it runs off
// the end, every '(' still open is known to be unclosed.
func (p *parser) skipGroup() *LogicGroup {
	start := p.pos
	var open []int
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == '(' && !p.unmatched[p.pos]:
			open = append(open, p.pos)
			p.pos++
		case c == ')':
			open = open[:len(open)-1]
			p.pos++
			if len(open) == 0 {
				if p.tooDeep == nil {
					pe := ParseError{Position: start, Message: fmt.Sprintf("parentheses nested deeper than %d", p.cfg.maxDepth())}
					p.tooDeep = &pe
				}
				return &LogicGroup{node: newNode(TokenLogicGroup, p.src, start, p.pos)}
			}
		default:
			p.term(true)
		}
		p.spaces()
	}

	for _, i := range open {
		p.unmatched[i] = true
	}
	p.pos = start
	p.abandon = true
	p.tooDeep = nil
	return nil
}

func (p *parser) lParen() *LParen {
	tok := &LParen{node: newNode(TokenLParen, p.src, p.pos, p.pos+1)}
	if p.cfg.DisallowParens {
		tok.Invalid = p.cfg.invalid(InvalidParensNotAllowed, "")
	}
	p.pos++
	return tok
}

func (p *parser) rParen() *RParen {
	tok := &RParen{node: newNode(TokenRParen, p.src, p.pos, p.pos+1)}
	if p.cfg.DisallowParens {
		tok.Invalid = p.cfg.invalid(InvalidParensNotAllowed, "")
	}
	p.pos++
	return tok
}

// freeText consumes a quoted string, a single unmatched parenthesis, or a
// run of characters up to the next space or parenthesis.
func (p *parser) freeText() *FreeText {
	start := p.pos
	tok := &FreeText{}

	switch {
	case p.src[p.pos] == '"' && closingQuote(p.src, p.pos) > 0:
		p.pos = closingQuote(p.src, p.pos) + 1
		tok.Quoted = true
		tok.Value = unescapeQuoted(p.src[start+1 : p.pos-1])
	case isParen(p.src[p.pos]):
		p.pos++
		tok.Value = p.src[start:p.pos]
	default:
		for p.pos < len(p.src) && !isSpace(p.src[p.pos]) && !isParen(p.src[p.pos]) {
			p.pos++
		}
		tok.Value = p.src[start:p.pos]
	}

	tok.node = newNode(TokenFreeText, p.src, start, p.pos)
	if p.cfg.DisallowFreeText {
		tok.Invalid = p.cfg.invalid(InvalidFreeTextNotAllowed, "")
	}
	return tok
}

// boundary reports whether a word may end at offset i.
func (p *parser) boundary(i int) bool {
	return i >= len(p.src) || isSpace(p.src[i]) || isParen(p.src[i])
}

func (p *parser) errorf(format string, args ...any) ParseError {
	return ParseError{Position: p.pos, Message: fmt.Sprintf(format, args...)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isParen(c byte) bool {
	return c == '(' || c == ')'
}
