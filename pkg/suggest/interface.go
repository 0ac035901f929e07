// Package suggest turns the composing word into ranked candidate words.
package suggest

// Word is the read-only view of the composing word the engine needs.
// *composer.Word implements it.
type Word interface {
	// Len returns the number of typed positions.
	Len() int
	// Codes returns the acceptable codes of every position, typed code first.
	Codes() [][]rune
}

// Suggestion is one ranked candidate.
type Suggestion struct {
	Word      string
	Frequency int
}
