package ingest

import (
	"strconv"
	"unicode"
)

// Year is a parsed publication date.
// Token keeps the alphanumeric prefix when the date is not a plain integer;
// Value is its integer value, or 0 when the token is not numeric.
type Year struct {
	Value int
	Token string
}

// ParseYear reads a year out of a free-form publication date.
//
//	nil          -> 0
//	"2021"       -> 2021
//	"2021-05-03" -> 2021 (token "2021")
//	"unknown"    -> 0 (token "unkn")
//	"19?"        -> 0
func ParseYear(raw *string) Year {
	if raw == nil {
		return Year{}
	}
	if n, err := strconv.Atoi(*raw); err == nil {
		return Year{Value: n}
	}

	runes := []rune(*raw)
	prefix := runes[:min(4, len(runes))]
	if len(prefix) == 0 {
		return Year{}
	}
	for _, r := range prefix {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return Year{}
		}
	}

	token := string(prefix)
	n, err := strconv.Atoi(token)
	if err != nil {
		return Year{Token: token}
	}
	return Year{Value: n, Token: token}
}
