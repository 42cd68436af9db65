package builder

import (
	"time"

	"github.com/zate/searchbar/internal/search"
)

// dateFilterWithOp renders a date filter with op applied. ok is false when
// the filter value is not a date, in which case the generic rules apply.
//
// For relative dates '>' and '<' only flip the sign: -24h means after and
// +24h means before. '=', '>=' and '<=' have no meaning for a relative
// range, so the value is pinned to an absolute timestamp first.
func (r Reducer) dateFilterWithOp(f *search.Filter, op search.TermOperator) (string, bool) {
	switch v := f.Value.(type) {
	case *search.ValueRelativeDate:
		switch op {
		case search.OpNotEqual:
			return filterText(f, true, search.OpDefault, v.Text()), true
		case search.OpDefault:
			return filterText(f, false, search.OpDefault, v.Text()), true
		case search.OpGreaterThan:
			return filterText(f, false, search.OpDefault, "-"+v.Value+v.Unit), true
		case search.OpLessThan:
			return filterText(f, false, search.OpDefault, "+"+v.Value+v.Unit), true
		}
		pinned := search.RelativeDateTime(v, r.now()).UTC().Format(time.RFC3339)
		if op == search.OpEqual {
			op = search.OpDefault
		}
		return filterText(f, false, op, pinned), true

	case *search.ValueISO8601Date:
		switch op {
		case search.OpNotEqual:
			return filterText(f, true, search.OpDefault, v.Text()), true
		case search.OpEqual:
			op = search.OpDefault
		}
		return filterText(f, false, op, v.Text()), true
	}
	return "", false
}

// updateDateValue replaces a date filter's value with value. A relative date
// may become absolute, taking the operator that matches its direction. An
// absolute date is never turned back into a relative one.
func (r Reducer) updateDateValue(query string, f *search.Filter, value string) (string, bool) {
	next := search.ParseDateValue(value, r.Config)
	if next == nil {
		return query, false
	}

	switch cur := f.Value.(type) {
	case *search.ValueRelativeDate:
		switch next.(type) {
		case *search.ValueRelativeDate:
			return replaceToken(query, cur, value)
		case *search.ValueISO8601Date:
			op := search.OpGreaterThan
			if cur.Sign == "+" {
				op = search.OpLessThan
			}
			return replaceToken(query, f, filterText(f, f.Negated, op, value))
		}
	case *search.ValueISO8601Date:
		if _, ok := next.(*search.ValueISO8601Date); ok {
			return replaceToken(query, cur, value)
		}
	default:
		// The current value did not parse as a date at all.
		op := f.Operator
		if _, ok := next.(*search.ValueRelativeDate); ok {
			op = search.OpDefault
		}
		return replaceToken(query, f, filterText(f, f.Negated, op, value))
	}
	return query, false
}
