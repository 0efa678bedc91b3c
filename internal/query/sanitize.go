package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// fallbackTerm is searched when a query has no usable words.
const fallbackTerm = "user activity"

// SanitizeSearchTerm keeps letters, digits and whitespace, then drops
// words shorter than three characters.
func SanitizeSearchTerm(query string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, query)

	var terms []string
	for _, w := range strings.Fields(clean) {
		if utf8.RuneCountInString(w) >= 3 {
			terms = append(terms, w)
		}
	}
	if len(terms) == 0 {
		return fallbackTerm
	}
	return strings.Join(terms, " ")
}
