package search

import "strings"

// InvalidReason enumerates recoverable, per-token problems. They are attached
// to tokens and never returned as errors.
type InvalidReason string

const (
	InvalidFreeTextNotAllowed         InvalidReason = "FREE_TEXT_NOT_ALLOWED"
	InvalidWildcardNotAllowed         InvalidReason = "WILDCARD_NOT_ALLOWED"
	InvalidLogicalOrNotAllowed        InvalidReason = "LOGICAL_OR_NOT_ALLOWED"
	InvalidLogicalAndNotAllowed       InvalidReason = "LOGICAL_AND_NOT_ALLOWED"
	InvalidNegationNotAllowed         InvalidReason = "NEGATION_NOT_ALLOWED"
	InvalidParensNotAllowed           InvalidReason = "PARENS_NOT_ALLOWED"
	InvalidMustBeQuoted               InvalidReason = "MUST_BE_QUOTED"
	InvalidFilterMustHaveValue        InvalidReason = "FILTER_MUST_HAVE_VALUE"
	InvalidBoolean                    InvalidReason = "INVALID_BOOLEAN"
	InvalidFileSize                   InvalidReason = "INVALID_FILE_SIZE"
	InvalidNumber                     InvalidReason = "INVALID_NUMBER"
	InvalidPercentage                 InvalidReason = "INVALID_PERCENTAGE"
	InvalidDuration                   InvalidReason = "INVALID_DURATION"
	InvalidDateFormat                 InvalidReason = "INVALID_DATE_FORMAT"
	InvalidKey                        InvalidReason = "INVALID_KEY"
	InvalidEmptyValueInListNotAllowed InvalidReason = "EMPTY_VALUE_IN_LIST_NOT_ALLOWED"
)

var defaultInvalidMessages = map[InvalidReason]string{
	InvalidFreeTextNotAllowed:         "Free text is not supported in this search",
	InvalidWildcardNotAllowed:         "Wildcards not supported in search",
	InvalidLogicalOrNotAllowed:        "The OR operator is not allowed in this search",
	InvalidLogicalAndNotAllowed:       "The AND operator is not allowed in this search",
	InvalidNegationNotAllowed:         "Negation is not allowed in this search",
	InvalidParensNotAllowed:           "Parentheses are not supported in this search",
	InvalidMustBeQuoted:               "Quotes must enclose text or be escaped",
	InvalidFilterMustHaveValue:        "Filter must have a value",
	InvalidBoolean:                    "Invalid boolean. Expected true, 1, false, or 0.",
	InvalidFileSize:                   "Invalid file size. Expected number followed by file size unit suffix",
	InvalidNumber:                     "Invalid number. Expected number then optional k, m, or b suffix (e.g. 500k)",
	InvalidPercentage:                 "Invalid percentage. Expected number followed by % (e.g. 50%)",
	InvalidDuration:                   "Invalid duration. Expected number followed by duration unit suffix",
	InvalidDateFormat:                 "Invalid date format. Expected +/-duration (e.g. +1h) or ISO 8601-like (e.g. 2024-01-02T15:04:05)",
	InvalidKey:                        "Invalid key. \"{key}\" is not a supported search key.",
	InvalidEmptyValueInListNotAllowed: "Lists should not have empty values",
}

// InvalidReasons lists every reason in a stable order.
func InvalidReasons() []InvalidReason {
	return []InvalidReason{
		InvalidFreeTextNotAllowed,
		InvalidWildcardNotAllowed,
		InvalidLogicalOrNotAllowed,
		InvalidLogicalAndNotAllowed,
		InvalidNegationNotAllowed,
		InvalidParensNotAllowed,
		InvalidMustBeQuoted,
		InvalidFilterMustHaveValue,
		InvalidBoolean,
		InvalidFileSize,
		InvalidNumber,
		InvalidPercentage,
		InvalidDuration,
		InvalidDateFormat,
		InvalidKey,
		InvalidEmptyValueInListNotAllowed,
	}
}

// DefaultMessage returns the built-in message for reason.
func DefaultMessage(reason InvalidReason) string {
	return defaultInvalidMessages[reason]
}

// invalid builds the marker for reason, preferring the configured message.
// {key} in the message is replaced by key.
func (c *Config) invalid(reason InvalidReason, key string) *Invalid {
	msg, ok := c.InvalidMessages[reason]
	if !ok {
		msg = defaultInvalidMessages[reason]
	}
	return &Invalid{Type: reason, Reason: strings.ReplaceAll(msg, "{key}", key)}
}
