package users

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText trims surrounding whitespace and folds the value to NFC so
// visually identical usernames compare equal.
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := normalizeText(*s)
	return &v
}
