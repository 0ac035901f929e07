package keys

import (
	"fmt"
	"unicode"

	"github.com/bastiangx/swipeserve/pkg/swipe"
)

// Codes is the per-direction code set of one key, indexed by swipe.Direction.
type Codes = [swipe.NumDirections]rune

// KeySpec describes one cell of a grid layout.
type KeySpec struct {
	Label      string
	Codes      Codes
	Repeatable bool
}

// Grid lays out specs row by row, cols keys per row, every key keyW x keyH.
func Grid(cols int, keyW, keyH float64, specs []KeySpec) (*Keyboard, error) {
	if cols <= 0 {
		return nil, fmt.Errorf("%w: %d columns", ErrInvalidSize, cols)
	}
	if len(specs) == 0 {
		return nil, ErrNoKeys
	}
	rows := (len(specs) + cols - 1) / cols
	list := make([]*Key, 0, len(specs))
	for i, s := range specs {
		list = append(list, &Key{
			Label:      s.Label,
			Bounds:     Rect{X: float64(i%cols) * keyW, Y: float64(i/cols) * keyH, W: keyW, H: keyH},
			Codes:      s.Codes,
			Repeatable: s.Repeatable,
		})
	}
	return NewKeyboard(float64(cols)*keyW, float64(rows)*keyH, list)
}

const (
	// DefaultKeySize is the edge length of a key in the built-in layout.
	DefaultKeySize = 100.0
	defaultColumns = 3
	letterKeys     = 9
)

// FrequencyOrder lists English letters from most to least frequent.
const FrequencyOrder = "etaoinshrdlcumwfgypbvkjxqz"

var (
	layoutDigits      = []rune("123456789")
	layoutPunctuation = []rune(".,?!-:;()")
)

// DefaultSpecs returns the built-in 3x4 layout. Taps give the nine most
// frequent letters, left and right swipes the remaining letters, up swipes
// digits and down swipes punctuation. The bottom row holds shift, space and
// a repeatable delete key.
func DefaultSpecs(shifted bool) []KeySpec {
	letters := []rune(FrequencyOrder)
	rest := letters[letterKeys:]

	specs := make([]KeySpec, 0, letterKeys+3)
	for i := 0; i < letterKeys; i++ {
		var c Codes
		c[swipe.Center] = letters[i]
		c[swipe.Up] = layoutDigits[i]
		c[swipe.Down] = layoutPunctuation[i]
		if 2*i < len(rest) {
			c[swipe.Left] = rest[2*i]
		}
		if 2*i+1 < len(rest) {
			c[swipe.Right] = rest[2*i+1]
		} else {
			c[swipe.Right] = '\''
		}
		if shifted {
			for d := range c {
				c[d] = unicode.ToUpper(c[d])
			}
		}
		specs = append(specs, KeySpec{Label: string(c[swipe.Center]), Codes: c})
	}

	specs = append(specs,
		KeySpec{Label: "shift", Codes: Codes{CodeShift, CodeOptions, CodeCancel, NoCode, NoCode}},
		KeySpec{Label: "space", Codes: Codes{' ', '0', '\n', '\'', '"'}},
		KeySpec{Label: "delete", Codes: Codes{CodeDelete, NoCode, NoCode, NoCode, NoCode}, Repeatable: true},
	)
	return specs
}

// DefaultLayout builds the built-in keyboard.
func DefaultLayout(shifted bool) *Keyboard {
	kb, err := Grid(defaultColumns, DefaultKeySize, DefaultKeySize, DefaultSpecs(shifted))
	if err != nil {
		// the built-in specs are static
		panic(err)
	}
	kb.Shifted = shifted
	return kb
}
