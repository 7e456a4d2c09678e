package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeWord folds a word into the single form stored in the dictionary:
// NFC composed and lower case. "Ação" and "ação" both become "ação".
func NormalizeWord(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// IsAlphabetic reports whether s is non-empty and every rune is a letter.
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

// RuneLen is the length of s in characters, not bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
