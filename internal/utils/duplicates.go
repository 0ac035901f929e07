package utils

import (
	"strings"
)

// SuggestionFilter drops candidates that differ from an earlier one, or
// from an excluded word, only by case.
type SuggestionFilter struct {
	seenWords map[string]struct{}
}

// NewSuggestionFilter creates a filter that also rejects every word in
// exclude.
func NewSuggestionFilter(exclude ...string) *SuggestionFilter {
	seen := make(map[string]struct{}, 16)
	for _, w := range exclude {
		seen[strings.ToLower(w)] = struct{}{}
	}
	return &SuggestionFilter{seenWords: seen}
}

// ShouldInclude reports whether word is new and records it.
func (f *SuggestionFilter) ShouldInclude(word string) bool {
	lowerWord := strings.ToLower(word)
	if _, ok := f.seenWords[lowerWord]; ok {
		return false
	}
	f.seenWords[lowerWord] = struct{}{}
	return true
}
