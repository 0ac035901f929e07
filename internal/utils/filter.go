package utils

import (
	"slices"
	"unicode"
)

// DefaultWordSeparators end a composing word.
const DefaultWordSeparators = " .,;:!?\n()[]{}*&@<>_+=|/\""

// Separators is a set of word separator characters.
type Separators map[rune]struct{}

// NewSeparators builds the set from the characters of s.
func NewSeparators(s string) Separators {
	set := make(Separators, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether r ends a word.
func (s Separators) Contains(r rune) bool {
	_, ok := s[r]
	return ok
}

// String returns the separators in code point order.
func (s Separators) String() string {
	rs := make([]rune, 0, len(s))
	for r := range s {
		rs = append(rs, r)
	}
	slices.Sort(rs)
	return string(rs)
}

// IsOnlyNumbers checks if a string consists entirely of numeric digits
func IsOnlyNumbers(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsValidInput reports whether a typed word is worth a dictionary query:
// letters and apostrophes only, not only digits and not one character
// repeated.
func IsValidInput(s string) bool {
	if len(s) == 0 || IsOnlyNumbers(s) {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != '\'' {
			return false
		}
	}
	return !IsRepetitive(s)
}

// IsRepetitive checks if a string is one character repeated 3+ times
// ("aaa", "www").
func IsRepetitive(s string) bool {
	rs := []rune(s)
	if len(rs) <= 2 {
		return false
	}
	for _, r := range rs[1:] {
		if r != rs[0] {
			return false
		}
	}
	return true
}
