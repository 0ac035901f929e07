package keys

import (
	"fmt"

	"github.com/bastiangx/swipeserve/pkg/swipe"
)

const (
	gridWidth  = 10
	gridHeight = 5
	// searchDistance scales the mean key width into the proximity radius.
	searchDistance = 1.8
)

// Keyboard is an immutable set of keys with a nearest-key index.
type Keyboard struct {
	Width, Height float64
	Shifted       bool

	keys      []*Key
	cells     [][]int
	cellW     float64
	cellH     float64
	threshold float64
}

// NewKeyboard builds the proximity grid for keys laid out on a
// width x height view. The keys slice is copied.
func NewKeyboard(width, height float64, keys []*Key) (*Keyboard, error) {
	if !(width > 0) || !(height > 0) {
		return nil, fmt.Errorf("%w: %vx%v", ErrInvalidSize, width, height)
	}
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	var sumW float64
	for _, k := range keys {
		if err := k.validate(); err != nil {
			return nil, err
		}
		b := k.Bounds
		if b.X >= width || b.Y >= height || b.X+b.W <= 0 || b.Y+b.H <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrKeyOutOfView, k)
		}
		sumW += b.W
	}

	kb := &Keyboard{
		Width:  width,
		Height: height,
		keys:   append([]*Key(nil), keys...),
		cellW:  width / gridWidth,
		cellH:  height / gridHeight,
	}
	radius := sumW / float64(len(keys)) * searchDistance
	kb.threshold = radius * radius
	kb.computeNearestNeighbors()
	return kb, nil
}

// computeNearestNeighbors records, for every grid cell, the keys whose
// center is within the proximity threshold of a cell corner or whose bounds
// overlap the cell.
func (kb *Keyboard) computeNearestNeighbors() {
	kb.cells = make([][]int, gridWidth*gridHeight)
	for gy := 0; gy < gridHeight; gy++ {
		for gx := 0; gx < gridWidth; gx++ {
			x0 := float64(gx) * kb.cellW
			y0 := float64(gy) * kb.cellH
			x1, y1 := x0+kb.cellW, y0+kb.cellH
			cell := Rect{X: x0, Y: y0, W: kb.cellW, H: kb.cellH}

			var near []int
			for i, k := range kb.keys {
				if k.SquaredDistanceFrom(x0, y0) < kb.threshold ||
					k.SquaredDistanceFrom(x1, y0) < kb.threshold ||
					k.SquaredDistanceFrom(x1, y1) < kb.threshold ||
					k.SquaredDistanceFrom(x0, y1) < kb.threshold ||
					overlaps(k.Bounds, cell) {
					near = append(near, i)
				}
			}
			kb.cells[gy*gridWidth+gx] = near
		}
	}
}

func overlaps(a, b Rect) bool {
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

// Keys returns the keys in layout order.
func (kb *Keyboard) Keys() []*Key {
	return kb.keys
}

// NearestKeys returns the indices of keys close to (x, y). Points outside
// the view have no neighbours.
func (kb *Keyboard) NearestKeys(x, y float64) []int {
	if !(x >= 0 && x < kb.Width && y >= 0 && y < kb.Height) {
		return nil
	}
	gx := int(x / kb.cellW)
	gy := int(y / kb.cellH)
	if gx >= gridWidth {
		gx = gridWidth - 1
	}
	if gy >= gridHeight {
		gy = gridHeight - 1
	}
	return kb.cells[gy*gridWidth+gx]
}

// FindKey hit tests the keys near p in turn; the first containing key wins.
// It returns nil when no key contains p.
func (kb *Keyboard) FindKey(p swipe.Point) *Key {
	for _, i := range kb.NearestKeys(p.X, p.Y) {
		if k := kb.keys[i]; k.Contains(p.X, p.Y) {
			return k
		}
	}
	return nil
}

// KeyFor returns the first key that produces code in any direction.
func (kb *Keyboard) KeyFor(code rune) (*Key, swipe.Direction, bool) {
	for _, k := range kb.keys {
		for d, c := range k.Codes {
			if c == code && c != NoCode {
				return k, swipe.Direction(d), true
			}
		}
	}
	return nil, swipe.Center, false
}
