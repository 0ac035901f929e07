/*
Package touch tracks in-flight touches and turns each completed touch into a
key code.

A Tracker keeps one Session per active pointer. The session is opened on
touch-down with the key under the finger and closed on touch-up, where the
down and up points are classified into a swipe direction and looked up in the
key's codes.

The tracker is not safe for concurrent use. It is meant to be driven from the
single goroutine that receives input events.
*/
package touch

import (
	"errors"
	"fmt"

	"github.com/bastiangx/swipeserve/pkg/keys"
	"github.com/bastiangx/swipeserve/pkg/swipe"
	"github.com/charmbracelet/log"
)

// DefaultMaxPointers bounds the number of simultaneous touches.
const DefaultMaxPointers = 256

var (
	ErrPointerOutOfRange = errors.New("touch: pointer id out of range")
	ErrSessionActive     = errors.New("touch: pointer already has an active session")
	ErrNoSession         = errors.New("touch: no active session for pointer")
)

// KeyFinder resolves the key under a point. *keys.Keyboard implements it.
type KeyFinder interface {
	FindKey(p swipe.Point) *keys.Key
}

// Session is the state of one finger between down and up.
type Session struct {
	Down swipe.Point
	Last swipe.Point
	// Key is nil when the down point hit no key.
	Key *keys.Key
}

// Result is what a completed touch produced.
type Result struct {
	Key       *keys.Key
	Direction swipe.Direction
	// Code is keys.NoCode when no key was hit or the direction is empty.
	Code rune
	// Handled is false for repeatable keys, which are left to the caller's
	// repeat mechanism.
	Handled bool
}

// Tracker owns the pointer-id to session table.
type Tracker struct {
	finder      KeyFinder
	classifier  swipe.Classifier
	maxPointers int
	sessions    map[int]*Session
}

// NewTracker creates a tracker. A maxPointers below one uses
// DefaultMaxPointers.
func NewTracker(finder KeyFinder, classifier swipe.Classifier, maxPointers int) *Tracker {
	if maxPointers < 1 {
		maxPointers = DefaultMaxPointers
	}
	return &Tracker{
		finder:      finder,
		classifier:  classifier,
		maxPointers: maxPointers,
		sessions:    make(map[int]*Session, maxPointers),
	}
}

// SetFinder switches the keyboard used for new sessions. Sessions already
// open keep the key they resolved at touch-down.
func (t *Tracker) SetFinder(finder KeyFinder) {
	t.finder = finder
}

// SetClassifier replaces the swipe parameters.
func (t *Tracker) SetClassifier(c swipe.Classifier) {
	t.classifier = c
}

// Classifier returns the active swipe parameters.
func (t *Tracker) Classifier() swipe.Classifier {
	return t.classifier
}

func (t *Tracker) checkID(id int) error {
	if id < 0 || id >= t.maxPointers {
		return fmt.Errorf("%w: %d (max %d)", ErrPointerOutOfRange, id, t.maxPointers)
	}
	return nil
}

// OnDown opens a session for id at p. It returns handled=false when the key
// under p is repeatable; the session is still recorded so the matching up
// event is consumed.
func (t *Tracker) OnDown(id int, p swipe.Point) (bool, error) {
	if err := t.checkID(id); err != nil {
		return false, err
	}
	if _, ok := t.sessions[id]; ok {
		return false, fmt.Errorf("%w: %d", ErrSessionActive, id)
	}

	var key *keys.Key
	if t.finder != nil {
		key = t.finder.FindKey(p)
	}
	t.sessions[id] = &Session{Down: p, Last: p, Key: key}

	if key == nil {
		log.Debugf("pointer %d down at (%.1f, %.1f): no key", id, p.X, p.Y)
		return true, nil
	}
	log.Debugf("pointer %d down on %s", id, key)
	return !key.Repeatable, nil
}

// OnMove records the latest position of id.
func (t *Tracker) OnMove(id int, p swipe.Point) error {
	if err := t.checkID(id); err != nil {
		return err
	}
	s, ok := t.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSession, id)
	}
	s.Last = p
	return nil
}

// OnUp closes the session of id and classifies the touch.
func (t *Tracker) OnUp(id int, p swipe.Point) (Result, error) {
	if err := t.checkID(id); err != nil {
		return Result{}, err
	}
	s, ok := t.sessions[id]
	if !ok {
		return Result{}, fmt.Errorf("%w: %d", ErrNoSession, id)
	}
	delete(t.sessions, id)

	if s.Key == nil {
		return Result{Code: keys.NoCode, Handled: true}, nil
	}
	if s.Key.Repeatable {
		return Result{Key: s.Key, Code: keys.NoCode}, nil
	}

	dir := t.classifier.Classify(s.Down, p)
	code := s.Key.Code(dir)
	log.Debugf("pointer %d up: %s %s -> %q", id, s.Key, dir, code)
	return Result{Key: s.Key, Direction: dir, Code: code, Handled: true}, nil
}

// OnCancel drops the session of id without producing a code.
func (t *Tracker) OnCancel(id int) error {
	if err := t.checkID(id); err != nil {
		return err
	}
	if _, ok := t.sessions[id]; !ok {
		return fmt.Errorf("%w: %d", ErrNoSession, id)
	}
	delete(t.sessions, id)
	return nil
}

// Session returns a copy of the session for id.
func (t *Tracker) Session(id int) (Session, bool) {
	s, ok := t.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Active returns the number of open sessions.
func (t *Tracker) Active() int {
	return len(t.sessions)
}

// MaxPointers returns the pointer id bound.
func (t *Tracker) MaxPointers() int {
	return t.maxPointers
}

// Reset drops every open session.
func (t *Tracker) Reset() {
	clear(t.sessions)
}
