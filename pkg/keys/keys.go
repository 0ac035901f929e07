// Package keys holds the static key model of a compact swipe keyboard.
//
// Every key owns a rectangle and up to five character codes, one per swipe
// direction. A Keyboard indexes its keys on a coarse proximity grid so that
// hit testing only looks at the handful of keys near a point.
package keys

import (
	"errors"
	"fmt"
	"math"

	"github.com/bastiangx/swipeserve/pkg/swipe"
)

// Special key codes. Printable characters use their rune value.
const (
	NoCode         rune = 0
	CodeShift      rune = -1
	CodeModeChange rune = -2
	CodeCancel     rune = -3
	CodeDone       rune = -4
	CodeDelete     rune = -5
	CodeOptions    rune = -100
)

var (
	ErrNoKeys       = errors.New("keys: keyboard has no keys")
	ErrInvalidKey   = errors.New("keys: invalid key")
	ErrInvalidSize  = errors.New("keys: keyboard size must be positive")
	ErrKeyOutOfView = errors.New("keys: key lies outside the keyboard")
)

// Rect is an axis aligned rectangle; X,Y is the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) lies inside r. The right and bottom edges
// are exclusive so adjacent keys never both claim a point.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Center returns the middle of r.
func (r Rect) Center() swipe.Point {
	return swipe.Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Key is a single key on the keyboard.
type Key struct {
	Label  string
	Bounds Rect
	// Codes holds one code per swipe.Direction; NoCode marks an empty slot.
	Codes [swipe.NumDirections]rune
	// Repeatable keys (backspace) are not handled by the swipe pipeline.
	Repeatable bool
}

// Contains is the hit test used by the touch tracker.
func (k *Key) Contains(x, y float64) bool {
	return k.Bounds.Contains(x, y)
}

// Code returns the code for direction d, or NoCode.
func (k *Key) Code(d swipe.Direction) rune {
	if !d.Valid() {
		return NoCode
	}
	return k.Codes[d]
}

// Primary is the code produced by a tap.
func (k *Key) Primary() rune {
	return k.Codes[swipe.Center]
}

// SquaredDistanceFrom returns the squared distance from (x, y) to the key
// center.
func (k *Key) SquaredDistanceFrom(x, y float64) float64 {
	c := k.Bounds.Center()
	dx, dy := c.X-x, c.Y-y
	return dx*dx + dy*dy
}

func (k *Key) String() string {
	if k.Label != "" {
		return k.Label
	}
	return fmt.Sprintf("key(%q)", k.Primary())
}

func (k *Key) validate() error {
	if k == nil {
		return fmt.Errorf("%w: nil key", ErrInvalidKey)
	}
	b := k.Bounds
	for _, v := range []float64{b.X, b.Y, b.W, b.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s has non-finite bounds", ErrInvalidKey, k)
		}
	}
	if b.W <= 0 || b.H <= 0 {
		return fmt.Errorf("%w: %s has empty bounds", ErrInvalidKey, k)
	}
	return nil
}
