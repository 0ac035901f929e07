/*
Package dictionary provides the word corpus behind the suggestion engine.

The engine only sees the Dictionary interface: a ranked lookup against a
sequence of per-position code sets, an exact validity check and Close. The
production implementation is Trie, an in-memory patricia trie built from a
binary corpus blob. The blob may live inside a larger file; Open reads it
from an offset/length window so a dictionary can ship embedded in another
asset.

# Corpus format

All integers are little endian.

	int32   word count
	repeated:
	  uint16  word length in bytes
	  []byte  UTF-8 word
	  uint32  frequency

cmd/swipedict converts a plain "word frequency" text list into this format.

# Lookup

Lookup walks the code sets position by position, keeping only prefixes that
exist in the trie. A wildcard position matches any rune of the corpus
alphabet. Every word below a surviving prefix is a candidate, so the result
mixes exact matches and completions. Candidates are scored by frequency,
boosted for each position where the typed (primary) code matched and again
when the word is exactly as long as the input.

The Loader wraps a Trie with background loading, retries and reloads; until
the first load finishes it behaves like an empty dictionary.
*/
package dictionary

import "errors"

// NoWildcard disables the relaxed position of a lookup.
const NoWildcard = -1

const (
	DefaultMaxWords              = 16
	DefaultMaxWordLength         = 48
	DefaultTypedLetterMultiplier = 2
	DefaultFullWordMultiplier    = 2
)

var (
	ErrClosed        = errors.New("dictionary: closed")
	ErrNotLoaded     = errors.New("dictionary: not loaded")
	ErrCorrupt       = errors.New("dictionary: corrupt corpus")
	ErrUnknownLength = errors.New("dictionary: corpus length unknown")
)

// Dictionary is the capability the suggestion engine consumes.
type Dictionary interface {
	// Lookup returns up to the configured number of entries matching codes,
	// highest score first. codes[i] holds the acceptable codes of position i,
	// the typed code first. wildcard is a position that matches any rune, or
	// NoWildcard.
	Lookup(codes [][]rune, wildcard int) []Entry
	// IsValid reports whether word is in the corpus with a positive
	// frequency.
	IsValid(word string) bool
	// Close releases the corpus. It is safe to call more than once.
	Close() error
}

// Entry is a corpus word and its frequency, or a ranked lookup result and
// its score.
type Entry struct {
	Word      string
	Frequency int
}

// Options tune lookups.
type Options struct {
	// MaxWords bounds the number of entries returned by Lookup.
	MaxWords int
	// MaxWordLength counts a terminator: words of MaxWordLength runes or
	// more are never returned and longer inputs are cut.
	MaxWordLength int
	// TypedLetterMultiplier boosts a candidate for every position where it
	// matched the typed code rather than an alternative.
	TypedLetterMultiplier int
	// FullWordMultiplier boosts candidates exactly as long as the input.
	FullWordMultiplier int
}

// DefaultOptions returns the tuned lookup options.
func DefaultOptions() Options {
	return Options{
		MaxWords:              DefaultMaxWords,
		MaxWordLength:         DefaultMaxWordLength,
		TypedLetterMultiplier: DefaultTypedLetterMultiplier,
		FullWordMultiplier:    DefaultFullWordMultiplier,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxWords <= 0 {
		o.MaxWords = d.MaxWords
	}
	if o.MaxWordLength < 2 {
		o.MaxWordLength = d.MaxWordLength
	}
	if o.TypedLetterMultiplier < 1 {
		o.TypedLetterMultiplier = d.TypedLetterMultiplier
	}
	if o.FullWordMultiplier < 1 {
		o.FullWordMultiplier = d.FullWordMultiplier
	}
	return o
}
