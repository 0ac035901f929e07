package utils

import (
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Capitalizer applies locale aware case mappings to single words.
// A Caser keeps state between calls, so access is serialized.
type Capitalizer struct {
	mu    sync.Mutex
	tag   language.Tag
	upper cases.Caser
	lower cases.Caser
}

// NewCapitalizer returns a capitalizer for locale (a BCP 47 tag such as
// "en" or "tr"). An unparsable locale falls back to language neutral rules.
func NewCapitalizer(locale string) *Capitalizer {
	tag, err := language.Parse(locale)
	if err != nil {
		log.Warnf("Unknown locale %q, using neutral casing: %v", locale, err)
		tag = language.Und
	}
	return &Capitalizer{
		tag:   tag,
		upper: cases.Upper(tag),
		lower: cases.Lower(tag),
	}
}

// Locale returns the tag in use.
func (c *Capitalizer) Locale() string {
	return c.tag.String()
}

// CapitalizeFirst upper-cases the first letter of word and leaves the rest
// untouched.
func (c *Capitalizer) CapitalizeFirst(word string) string {
	if word == "" {
		return word
	}
	_, size := utf8.DecodeRuneInString(word)
	c.mu.Lock()
	first := c.upper.String(word[:size])
	c.mu.Unlock()
	return first + word[size:]
}

// Lower lower-cases the whole word.
func (c *Capitalizer) Lower(word string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lower.String(word)
}

// IsCapitalized reports whether word starts with an upper-case letter.
func IsCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

var numberPrinter = message.NewPrinter(language.English)

// FormatWithCommas formats an integer with comma separators
func FormatWithCommas(n int) string {
	return numberPrinter.Sprintf("%d", n)
}
