package utils

import (
	"strings"
	"unicode"
)

// IsAlphabetic reports whether s is non-empty and made only of letters.
func IsAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// IsIdentRune reports whether r can be part of a Java identifier, '$' included.
func IsIdentRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// TrimPiece strips the whitespace a decoded subtoken carries.
func TrimPiece(s string) string {
	return strings.TrimSpace(s)
}
