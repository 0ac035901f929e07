/*
Package swipe classifies a single touch into one of five motion directions.

A touch is described by the point where the finger went down and the point
where it was lifted. Short motions inside the dead zone radius are taps and
map to Center. Longer motions are split into four sectors by the lines
y = k*x and y = -k*x, where k is the lateral bias. With k > 1 the left and
right sectors are wider than up and down, since most keys carry their letters
on the lateral extremes.

Screen coordinates are used: y grows downwards.

	c := swipe.Classifier{Radius: 10, LateralBias: 2}
	dir := c.Classify(swipe.Point{X: 5, Y: 5}, swipe.Point{X: 55, Y: 5}) // Right

The classifier only compares values, so zero-length and NaN vectors resolve
to Center through the dead zone check.
*/
package swipe

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultRadius is the dead zone radius used when none is configured.
	DefaultRadius = 10.0
	// DefaultLateralBias widens the left/right sectors by a factor of two.
	DefaultLateralBias = 2.0
)

var (
	ErrInvalidRadius      = errors.New("swipe: radius must be a non-negative number")
	ErrInvalidBias        = errors.New("swipe: lateral bias must be positive")
	ErrInvalidSensitivity = errors.New("swipe: sensitivity must be positive")
	ErrUnknownDirection   = errors.New("swipe: unknown direction")
)

// Direction is the discrete outcome of a touch.
type Direction uint8

const (
	Center Direction = iota
	Up
	Down
	Left
	Right
)

// NumDirections is the number of codes a key can carry.
const NumDirections = 5

var directionNames = [NumDirections]string{"center", "up", "down", "left", "right"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Valid reports whether d is one of the five known directions.
func (d Direction) Valid() bool {
	return d < NumDirections
}

// ParseDirection maps a name such as "up" or "Right" to its Direction.
func ParseDirection(s string) (Direction, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "middle" || name == "tap" {
		return Center, nil
	}
	for i, n := range directionNames {
		if n == name {
			return Direction(i), nil
		}
	}
	return Center, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Point is a position in keyboard view coordinates.
type Point struct {
	X, Y float64
}

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Classifier holds the tuned parameters of the direction classifier.
type Classifier struct {
	// Radius is the dead zone; motions strictly shorter than it are taps.
	Radius float64
	// LateralBias is the slope k of the sector boundaries.
	LateralBias float64
}

// NewClassifier validates the parameters and returns a Classifier.
func NewClassifier(radius, lateralBias float64) (Classifier, error) {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return Classifier{}, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	if math.IsNaN(lateralBias) || math.IsInf(lateralBias, 0) || lateralBias <= 0 {
		return Classifier{}, fmt.Errorf("%w: %v", ErrInvalidBias, lateralBias)
	}
	return Classifier{Radius: radius, LateralBias: lateralBias}, nil
}

// DefaultClassifier returns the tuned classifier.
func DefaultClassifier() Classifier {
	return Classifier{Radius: DefaultRadius, LateralBias: DefaultLateralBias}
}

// RadiusFromSensitivity converts the user facing swipe sensitivity into a
// dead zone radius. Higher sensitivity means a smaller dead zone.
func RadiusFromSensitivity(sensitivity float64) (float64, error) {
	if math.IsNaN(sensitivity) || sensitivity <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSensitivity, sensitivity)
	}
	return 1 / sensitivity, nil
}

// Classify uses the classifier parameters.
func (c Classifier) Classify(down, up Point) Direction {
	return Classify(down, up, c.Radius, c.LateralBias)
}

// Classify maps a down/up pair to a Direction.
//
// Ties on the sector boundaries go to Down and Up rather than Left and Right.
func Classify(down, up Point, radius, k float64) Direction {
	d := up.Sub(down)

	// negated so NaN lands in the dead zone
	dist2 := d.X*d.X + d.Y*d.Y
	if dist2 == 0 || !(dist2 >= radius*radius) {
		return Center
	}

	if d.Y >= k*d.X {
		if d.Y >= -k*d.X {
			return Down
		}
		return Left
	}
	if -d.Y >= k*d.X {
		return Up
	}
	return Right
}
