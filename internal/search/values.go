package search

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	numberRe       = regexp.MustCompile(`^(-?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+))([kmbKMB])?$`)
	durationRe     = regexp.MustCompile(`^([0-9]+(?:\.[0-9]*)?|\.[0-9]+)(ns|us|ms|s|min|m|hr|h|day|d|wk|w)$`)
	sizeRe         = regexp.MustCompile(`(?i)^([0-9]+(?:\.[0-9]*)?|\.[0-9]+)(bit|nb|bytes|byte|b|kib|mib|gib|tib|pib|eib|zib|yib|kb|mb|gb|tb|pb|eb|zb|yb)$`)
	percentageRe   = regexp.MustCompile(`^(-?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+))%$`)
	relativeDateRe = regexp.MustCompile(`^([+-])([0-9]+)([wdhm])$`)
	isoDateRe      = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}(?:[T ][0-9]{2}:[0-9]{2}(?::[0-9]{2}(?:\.[0-9]{1,9})?)?)?(?:Z|[+-][0-9]{2}:?[0-9]{2})?$`)
)

var numberMultipliers = map[string]float64{
	"":  1,
	"k": 1e3,
	"m": 1e6,
	"b": 1e9,
}

var durationMillis = map[string]float64{
	"ns":  1e-6,
	"us":  1e-3,
	"ms":  1,
	"s":   1000,
	"min": 60 * 1000,
	"m":   60 * 1000,
	"hr":  60 * 60 * 1000,
	"h":   60 * 60 * 1000,
	"day": 24 * 60 * 60 * 1000,
	"d":   24 * 60 * 60 * 1000,
	"wk":  7 * 24 * 60 * 60 * 1000,
	"w":   7 * 24 * 60 * 60 * 1000,
}

var relativeUnits = map[string]time.Duration{
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
}

var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04",
	"2006-01-02Z07:00",
	"2006-01-02Z0700",
	"2006-01-02",
}

// ParseNumberValue parses raw as a number with an optional k, m or b suffix.
func ParseNumberValue(raw string, cfg Config) *ValueNumber {
	return parseNumber(raw, 0, len(raw), &cfg)
}

// ParseDurationValue parses raw as a number followed by a duration unit.
func ParseDurationValue(raw string, cfg Config) *ValueDuration {
	return parseDuration(raw, 0, len(raw), &cfg)
}

// ParseSizeValue parses raw as a number followed by a size unit.
func ParseSizeValue(raw string, cfg Config) *ValueSize {
	return parseSize(raw, 0, len(raw), &cfg)
}

// ParsePercentageValue parses raw as a number followed by '%'.
func ParsePercentageValue(raw string, cfg Config) *ValuePercentage {
	return parsePercentage(raw, 0, len(raw), &cfg)
}

// ParseBooleanValue accepts true, false, 1 and 0.
func ParseBooleanValue(raw string) *ValueBoolean {
	return parseBoolean(raw, 0, len(raw))
}

// ParseDateValue parses raw as either an ISO-8601 date or a relative date.
// The result is a *ValueISO8601Date, a *ValueRelativeDate, or nil.
func ParseDateValue(raw string, cfg Config) Token {
	return parseDate(raw, 0, len(raw), &cfg)
}

// ParseNumberListValue parses a bracketed list of numbers such as [1,2k].
func ParseNumberListValue(raw string, cfg Config) *ValueNumberList {
	return parseNumberList(raw, 0, len(raw), &cfg)
}

func parseNumber(src string, start, end int, cfg *Config) *ValueNumber {
	m := numberRe.FindStringSubmatch(src[start:end])
	if m == nil {
		return nil
	}
	v := &ValueNumber{node: newNode(TokenValueNumber, src, start, end), Value: m[1], Unit: strings.ToLower(m[2])}
	if cfg.Parse {
		n, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil
		}
		n *= numberMultipliers[v.Unit]
		v.Parsed = &n
	}
	return v
}

func parseDuration(src string, start, end int, cfg *Config) *ValueDuration {
	m := durationRe.FindStringSubmatch(src[start:end])
	if m == nil {
		return nil
	}
	v := &ValueDuration{node: newNode(TokenValueDuration, src, start, end), Value: m[1], Unit: m[2]}
	if cfg.Parse {
		n, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil
		}
		ms := n * durationMillis[v.Unit]
		v.Parsed = &ms
	}
	return v
}

func parseSize(src string, start, end int, cfg *Config) *ValueSize {
	m := sizeRe.FindStringSubmatch(src[start:end])
	if m == nil {
		return nil
	}
	v := &ValueSize{node: newNode(TokenValueSize, src, start, end), Value: m[1], Unit: strings.ToLower(m[2])}
	if cfg.Parse {
		n, ok := sizeInBytes(v.Value, v.Unit)
		if !ok {
			return nil
		}
		v.Parsed = &n
	}
	return v
}

func sizeInBytes(num, unit string) (float64, bool) {
	switch unit {
	case "bit", "nb", "bytes", "byte", "b":
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, false
		}
		switch unit {
		case "bit":
			return n / 8, true
		case "nb":
			return n / 2, true
		}
		return n, true
	}
	b, err := humanize.ParseBigBytes(num + unit)
	if err != nil {
		return 0, false
	}
	bytes, _ := new(big.Float).SetInt(b).Float64()
	return bytes, true
}

func parsePercentage(src string, start, end int, cfg *Config) *ValuePercentage {
	m := percentageRe.FindStringSubmatch(src[start:end])
	if m == nil {
		return nil
	}
	v := &ValuePercentage{node: newNode(TokenValuePercentage, src, start, end), Value: m[1]}
	if cfg.Parse {
		n, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil
		}
		ratio := n / 100
		v.Parsed = &ratio
	}
	return v
}

func parseBoolean(src string, start, end int) *ValueBoolean {
	switch strings.ToLower(src[start:end]) {
	case "true", "1":
		return &ValueBoolean{node: newNode(TokenValueBoolean, src, start, end), Value: true}
	case "false", "0":
		return &ValueBoolean{node: newNode(TokenValueBoolean, src, start, end), Value: false}
	}
	return nil
}

func parseISODate(src string, start, end int, cfg *Config) *ValueISO8601Date {
	raw := src[start:end]
	if !isoDateRe.MatchString(raw) {
		return nil
	}
	t, ok := parseISOTime(raw)
	if !ok {
		return nil
	}
	v := &ValueISO8601Date{node: newNode(TokenValueISO8601Date, src, start, end), Value: raw}
	if cfg.Parse {
		v.Parsed = &t
	}
	return v
}

func parseISOTime(raw string) (time.Time, bool) {
	normalized := strings.Replace(raw, " ", "T", 1)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseRelativeDate(src string, start, end int, cfg *Config) *ValueRelativeDate {
	m := relativeDateRe.FindStringSubmatch(src[start:end])
	if m == nil {
		return nil
	}
	v := &ValueRelativeDate{
		node:  newNode(TokenValueRelativeDate, src, start, end),
		Sign:  m[1],
		Value: m[2],
		Unit:  m[3],
	}
	if cfg.Parse {
		t := RelativeDateTime(v, cfg.now())
		v.Parsed = &t
	}
	return v
}

// RelativeDateTime resolves v against now. Both signs resolve to the same
// instant; the sign only decides which side of it the filter selects.
func RelativeDateTime(v *ValueRelativeDate, now time.Time) time.Time {
	n, _ := strconv.Atoi(v.Value)
	return now.Add(-time.Duration(n) * relativeUnits[v.Unit])
}

func parseDate(src string, start, end int, cfg *Config) Token {
	if v := parseISODate(src, start, end, cfg); v != nil {
		return v
	}
	if v := parseRelativeDate(src, start, end, cfg); v != nil {
		return v
	}
	return nil
}

func parseNumberList(src string, start, end int, cfg *Config) *ValueNumberList {
	segments, ok := listSegments(src, start, end)
	if !ok {
		return nil
	}
	list := &ValueNumberList{node: newNode(TokenValueNumberList, src, start, end)}
	for _, seg := range segments {
		n := parseNumber(src, seg.valueStart, seg.valueEnd, cfg)
		if n == nil {
			return nil
		}
		list.Items = append(list.Items, ListItem[*ValueNumber]{
			Separator: src[seg.sepStart:seg.valueStart],
			Value:     n,
		})
	}
	return list
}

func parseTextList(src string, start, end int) *ValueTextList {
	segments, ok := listSegments(src, start, end)
	if !ok {
		return nil
	}
	list := &ValueTextList{node: newNode(TokenValueTextList, src, start, end)}
	for _, seg := range segments {
		list.Items = append(list.Items, ListItem[*ValueText]{
			Separator: src[seg.sepStart:seg.valueStart],
			Value:     textValue(src, seg.valueStart, seg.valueEnd),
		})
	}
	return list
}

// listSegments splits a bracketed list. It reports false when src[start:end]
// is not enclosed in brackets or leaves a quote open.
func listSegments(src string, start, end int) ([]segment, bool) {
	if end-start < 2 || src[start] != '[' || src[end-1] != ']' {
		return nil, false
	}
	return splitSegments(src, start+1, end-1)
}

// textValue builds a text value for src[start:end], unwrapping quotes and
// recording wildcard markers on unquoted text.
func textValue(src string, start, end int) *ValueText {
	raw := src[start:end]
	v := &ValueText{node: newNode(TokenValueText, src, start, end), Wildcard: WildcardNone}
	if isQuoted(raw) {
		v.Quoted = true
		v.Value = unescapeQuoted(raw[1 : len(raw)-1])
		return v
	}
	v.Value = raw
	v.Wildcard = wildcardPosition(raw)
	return v
}

// wildcardPosition requires at least one character other than '*' besides
// the markers, so "*" and "**" are literal values.
func wildcardPosition(value string) WildcardPosition {
	if strings.Trim(value, "*") == "" {
		return WildcardNone
	}
	leading := strings.HasPrefix(value, "*")
	trailing := strings.HasSuffix(value, "*")
	switch {
	case leading && trailing:
		return WildcardSurrounded
	case leading:
		return WildcardLeading
	case trailing:
		return WildcardTrailing
	}
	return WildcardNone
}

func isQuoted(raw string) bool {
	if len(raw) < 2 || raw[0] != '"' {
		return false
	}
	end := closingQuote(raw, 0)
	return end == len(raw)-1
}

// closingQuote returns the index of the quote closing the one at open, or
// -1 when the string ends first.
func closingQuote(s string, open int) int {
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func unescapeQuoted(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}

// hasUnescapedQuote reports a bare '"' in unquoted text.
func hasUnescapedQuote(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return true
		}
	}
	return false
}
