// Package composer accumulates the code slots of the word being typed.
//
// Each typed position keeps the code that was produced plus a small set of
// alternative codes the dictionary may match instead, so an imprecise swipe
// or a shifted letter can still find its word.
package composer

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultMaxWordLength counts the terminator; DefaultMaxWordLength-1
	// positions are usable.
	DefaultMaxWordLength = 48
	// DefaultMaxAlternatives bounds the codes kept per position.
	DefaultMaxAlternatives = 16
)

var (
	ErrWordFull  = errors.New("composer: word is at maximum length")
	ErrWordEmpty = errors.New("composer: word is empty")
)

// Slot is one typed position.
type Slot struct {
	Primary rune
	// Codes starts with Primary, followed by the alternatives.
	Codes []rune
}

// Word is the composing word buffer. The zero value is not usable; call
// NewWord.
type Word struct {
	slots           []Slot
	capitalized     bool
	capacity        int
	maxAlternatives int
}

// NewWord returns an empty word holding at most maxWordLength-1 positions
// of at most maxAlternatives codes each. Non-positive values use the
// defaults.
func NewWord(maxWordLength, maxAlternatives int) *Word {
	if maxWordLength < 2 {
		maxWordLength = DefaultMaxWordLength
	}
	if maxAlternatives < 1 {
		maxAlternatives = DefaultMaxAlternatives
	}
	return &Word{
		slots:           make([]Slot, 0, maxWordLength-1),
		capacity:        maxWordLength - 1,
		maxAlternatives: maxAlternatives,
	}
}

// Append adds a position. The primary code is always the first code of the
// slot; duplicates among the alternatives are dropped and the set is cut to
// the configured bound. A full word is left untouched and ErrWordFull is
// returned.
func (w *Word) Append(primary rune, alternatives []rune) error {
	if len(w.slots) >= w.capacity {
		return fmt.Errorf("%w: %d positions", ErrWordFull, w.capacity)
	}

	codes := make([]rune, 1, min(len(alternatives)+1, w.maxAlternatives))
	codes[0] = primary
	for _, c := range alternatives {
		if len(codes) >= w.maxAlternatives {
			break
		}
		if !containsRune(codes, c) {
			codes = append(codes, c)
		}
	}
	w.slots = append(w.slots, Slot{Primary: primary, Codes: codes})
	return nil
}

func containsRune(rs []rune, r rune) bool {
	for _, c := range rs {
		if c == r {
			return true
		}
	}
	return false
}

// DeleteLast removes the final position.
func (w *Word) DeleteLast() error {
	if len(w.slots) == 0 {
		return ErrWordEmpty
	}
	w.slots[len(w.slots)-1] = Slot{}
	w.slots = w.slots[:len(w.slots)-1]
	return nil
}

// Reset clears every position and the capitalization flag.
func (w *Word) Reset() {
	clear(w.slots)
	w.slots = w.slots[:0]
	w.capitalized = false
}

// SetCapitalized marks the word as started from a shifted key.
func (w *Word) SetCapitalized(c bool) {
	w.capitalized = c
}

// IsCapitalized reports whether the first letter was shifted.
func (w *Word) IsCapitalized() bool {
	return w.capitalized
}

// Len returns the number of typed positions.
func (w *Word) Len() int {
	return len(w.slots)
}

// Cap returns the number of usable positions.
func (w *Word) Cap() int {
	return w.capacity
}

// Full reports whether another Append would fail.
func (w *Word) Full() bool {
	return len(w.slots) >= w.capacity
}

// Slot returns position i.
func (w *Word) Slot(i int) Slot {
	return w.slots[i]
}

// CodesAt returns the code set of position i. The slice must not be
// modified.
func (w *Word) CodesAt(i int) []rune {
	return w.slots[i].Codes
}

// Codes returns every position's code set in typed order.
func (w *Word) Codes() [][]rune {
	out := make([][]rune, len(w.slots))
	for i, s := range w.slots {
		out[i] = s.Codes
	}
	return out
}

// Typed returns the primary codes as a string.
func (w *Word) Typed() string {
	var b strings.Builder
	b.Grow(len(w.slots))
	for _, s := range w.slots {
		b.WriteRune(s.Primary)
	}
	return b.String()
}
