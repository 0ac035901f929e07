// Package session drives one editor: touch events in, composing text,
// committed text and ranked candidates out.
//
// A Session is not safe for concurrent use; the server serializes calls.
package session

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/bastiangx/swipeserve/internal/utils"
	"github.com/bastiangx/swipeserve/pkg/composer"
	"github.com/bastiangx/swipeserve/pkg/keys"
	"github.com/bastiangx/swipeserve/pkg/suggest"
	"github.com/bastiangx/swipeserve/pkg/swipe"
	"github.com/bastiangx/swipeserve/pkg/touch"
	"github.com/charmbracelet/log"
)

var (
	ErrNoComposing = errors.New("session: nothing is being composed")
	ErrNoCandidate = errors.New("session: no such candidate")
	ErrNilKeyboard = errors.New("session: keyboard is nil")
)

// Options configure a session.
type Options struct {
	Classifier      swipe.Classifier
	MaxPointers     int
	MaxWordLength   int
	MaxAlternatives int
	// Separators end the composing word.
	Separators string
	// Locale drives capitalization of picked candidates.
	Locale string
}

func DefaultOptions() Options {
	return Options{
		Classifier:      swipe.DefaultClassifier(),
		MaxPointers:     touch.DefaultMaxPointers,
		MaxWordLength:   composer.DefaultMaxWordLength,
		MaxAlternatives: composer.DefaultMaxAlternatives,
		Separators:      utils.DefaultWordSeparators,
		Locale:          "en",
	}
}

// Update is what the editor has to apply after a call.
type Update struct {
	// Composing replaces the underlined composing region.
	Composing string
	// Commit is inserted before the composing region.
	Commit string
	// Keys are raw key codes to send to the editor, e.g. a separator or
	// keys.CodeDelete when there was nothing to delete locally.
	Keys []rune
	// Candidates for the composing word, best first.
	Candidates []suggest.Suggestion
	// TypedValid reports whether the composing word is itself a word.
	TypedValid bool
	// Handled is false when the event belongs to someone else, e.g. a
	// repeatable key.
	Handled bool
	// Close asks the host to hide the keyboard.
	Close bool
}

// Session glues the tracker, the composing word and the engine.
type Session struct {
	normal     *keys.Keyboard
	shifted    *keys.Keyboard
	shift      bool
	tracker    *touch.Tracker
	word       *composer.Word
	composing  []rune
	engine     *suggest.Engine
	separators utils.Separators
	caps       *utils.Capitalizer
	candidates []suggest.Suggestion
	typedValid bool
}

// New creates a session on the built-in layouts.
func New(engine *suggest.Engine, opts Options) *Session {
	s, _ := NewWithKeyboards(engine, keys.DefaultLayout(false), keys.DefaultLayout(true), opts)
	return s
}

// NewWithKeyboards creates a session on custom layouts.
func NewWithKeyboards(engine *suggest.Engine, normal, shifted *keys.Keyboard, opts Options) (*Session, error) {
	if normal == nil || shifted == nil {
		return nil, ErrNilKeyboard
	}
	if opts.Separators == "" {
		opts.Separators = utils.DefaultWordSeparators
	}
	return &Session{
		normal:     normal,
		shifted:    shifted,
		tracker:    touch.NewTracker(normal, opts.Classifier, opts.MaxPointers),
		word:       composer.NewWord(opts.MaxWordLength, opts.MaxAlternatives),
		engine:     engine,
		separators: utils.NewSeparators(opts.Separators),
		caps:       utils.NewCapitalizer(opts.Locale),
	}, nil
}

// Configure applies hot-reloadable settings. The composing word keeps its
// current bounds until it is finished.
func (s *Session) Configure(opts Options) {
	s.tracker.SetClassifier(opts.Classifier)
	if opts.Separators != "" {
		s.separators = utils.NewSeparators(opts.Separators)
	}
	if opts.Locale != "" && opts.Locale != s.caps.Locale() {
		s.caps = utils.NewCapitalizer(opts.Locale)
	}
	if s.word.Len() == 0 {
		s.word = composer.NewWord(opts.MaxWordLength, opts.MaxAlternatives)
	}
}

// SetClassifier swaps the swipe classifier.
func (s *Session) SetClassifier(c swipe.Classifier) {
	s.tracker.SetClassifier(c)
}

// Keyboard returns the active layout.
func (s *Session) Keyboard() *keys.Keyboard {
	if s.shift {
		return s.shifted
	}
	return s.normal
}

// Shifted reports whether the shifted layout is active.
func (s *Session) Shifted() bool {
	return s.shift
}

// SetShifted selects the layout, e.g. from the editor's caps mode.
func (s *Session) SetShifted(on bool) Update {
	s.useShifted(on)
	return s.update(true)
}

func (s *Session) useShifted(on bool) {
	s.shift = on
	s.tracker.SetFinder(s.Keyboard())
}

// Composing returns the text being composed.
func (s *Session) Composing() string {
	return string(s.composing)
}

// TouchDown starts tracking pointer id.
func (s *Session) TouchDown(id int, p swipe.Point) (Update, error) {
	handled, err := s.tracker.OnDown(id, p)
	if err != nil {
		log.Warnf("touch down rejected: %v", err)
		return s.update(false), err
	}
	return s.update(handled), nil
}

// TouchMove records the latest position of pointer id.
func (s *Session) TouchMove(id int, p swipe.Point) (Update, error) {
	if err := s.tracker.OnMove(id, p); err != nil {
		log.Warnf("touch move rejected: %v", err)
		return s.update(false), err
	}
	return s.update(true), nil
}

// TouchUp classifies the gesture of pointer id and feeds the resulting code
// to HandleKey.
func (s *Session) TouchUp(id int, p swipe.Point) (Update, error) {
	res, err := s.tracker.OnUp(id, p)
	if err != nil {
		log.Warnf("touch up rejected: %v", err)
		return s.update(false), err
	}
	if !res.Handled {
		return s.update(false), nil
	}
	return s.HandleKey(res.Code), nil
}

// TouchCancel drops pointer id.
func (s *Session) TouchCancel(id int) (Update, error) {
	if err := s.tracker.OnCancel(id); err != nil {
		log.Warnf("touch cancel rejected: %v", err)
		return s.update(false), err
	}
	return s.update(true), nil
}

// HandleKey applies one key code.
func (s *Session) HandleKey(code rune) Update {
	switch {
	case code > 0 && s.separators.Contains(code):
		u := s.commitComposing()
		u.Keys = append(u.Keys, code)
		s.useShifted(false)
		return u
	case code == keys.CodeDelete:
		return s.handleBackspace()
	case code == keys.CodeShift:
		s.useShifted(!s.shift)
		return s.update(true)
	case code == keys.CodeCancel:
		u := s.commitComposing()
		u.Close = true
		return u
	case code == keys.CodeOptions, code == keys.CodeModeChange, code == keys.CodeDone, code == keys.NoCode:
		return s.update(true)
	case code < 0:
		log.Debugf("ignoring unknown key code %d", code)
		return s.update(true)
	}
	return s.handleCharacter(code)
}

func (s *Session) handleCharacter(code rune) Update {
	var err error
	if s.shift {
		code = unicode.ToUpper(code)
	}
	if s.shift && len(s.composing) == 0 {
		s.word.SetCapitalized(true)
		lower := unicode.ToLower(code)
		err = s.word.Append(lower, []rune{code, lower})
	} else {
		err = s.word.Append(code, []rune{code})
	}
	if err != nil {
		log.Debugf("composing word is full, suggestions off: %v", err)
	}
	s.composing = append(s.composing, code)
	if s.shift {
		s.useShifted(false)
	}
	s.refresh()
	return s.update(true)
}

func (s *Session) handleBackspace() Update {
	switch n := len(s.composing); {
	case n > 1:
		if n <= s.word.Len() {
			s.word.DeleteLast()
		}
		s.composing = s.composing[:n-1]
		s.refresh()
		return s.update(true)
	case n == 1:
		return s.commitText("")
	}
	u := s.update(true)
	u.Keys = []rune{keys.CodeDelete}
	return u
}

// Pick commits candidate index, capitalized when the word started shifted.
func (s *Session) Pick(index int) (Update, error) {
	if len(s.composing) == 0 {
		return s.update(false), ErrNoComposing
	}
	if index < 0 || index >= len(s.candidates) {
		return s.update(false), fmt.Errorf("%w: %d of %d", ErrNoCandidate, index, len(s.candidates))
	}
	text := s.candidates[index].Word
	if s.word.IsCapitalized() {
		text = s.caps.CapitalizeFirst(text)
	}
	return s.commitText(text), nil
}

// SelectionChanged drops the composing word after the cursor moved.
func (s *Session) SelectionChanged() Update {
	s.clearComposing()
	return s.update(true)
}

// Reset drops every touch and the composing word.
func (s *Session) Reset() Update {
	s.tracker.Reset()
	s.clearComposing()
	s.useShifted(false)
	return s.update(true)
}

func (s *Session) commitComposing() Update {
	if len(s.composing) == 0 {
		return s.update(true)
	}
	return s.commitText(string(s.composing))
}

func (s *Session) commitText(text string) Update {
	s.clearComposing()
	u := s.update(true)
	u.Commit = text
	return u
}

func (s *Session) clearComposing() {
	s.composing = s.composing[:0]
	s.word.Reset()
	s.candidates = nil
	s.typedValid = false
}

// refresh recomputes candidates and validity of the composing word.
func (s *Session) refresh() {
	if len(s.composing) == 0 || s.engine == nil {
		s.candidates = nil
		s.typedValid = false
		return
	}
	typed := string(s.composing)
	s.typedValid = s.engine.IsValid(typed) ||
		(s.word.IsCapitalized() && s.engine.IsValid(s.caps.Lower(typed)))

	if len(s.composing) > s.word.Len() {
		s.candidates = nil
		return
	}
	s.candidates = s.engine.Suggest(s.word)
}

func (s *Session) update(handled bool) Update {
	return Update{
		Composing:  string(s.composing),
		Candidates: s.candidates,
		TypedValid: s.typedValid,
		Handled:    handled,
	}
}
