// Package cli handles cmd line input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/swipeserve/internal/utils"
	"github.com/bastiangx/swipeserve/pkg/keys"
	"github.com/bastiangx/swipeserve/pkg/session"
	"github.com/bastiangx/swipeserve/pkg/suggest"
	"github.com/bastiangx/swipeserve/pkg/swipe"
	"github.com/charmbracelet/log"
)

const help = `type letters to compose, space or punctuation to commit
  ?word             check whether word is in the dictionary
  :swipe KEY DIR    swipe KEY up, down, left, right or tap it
  :pick N           commit candidate N
  :del              backspace
  :shift            toggle shift
  :keys             show the active layout
  :stats            engine counters
  :reset            drop composing text and touches`

// InputHandler drives a session from typed lines. Letters go through the
// same key path a tap would take; commands simulate swipes and picks.
type InputHandler struct {
	session      *session.Session
	engine       *suggest.Engine
	classifier   swipe.Classifier
	suggestLimit int
	requestCount int
	in           io.Reader
	out          io.Writer
	st           styles
}

// NewInputHandler handles initialization of the InputHandler on stdin/stdout
func NewInputHandler(engine *suggest.Engine, opts session.Options, limit int) *InputHandler {
	return NewInputHandlerWithIO(engine, opts, limit, os.Stdin, os.Stdout)
}

// NewInputHandlerWithIO is NewInputHandler on arbitrary streams.
func NewInputHandlerWithIO(engine *suggest.Engine, opts session.Options, limit int, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		session:      session.New(engine, opts),
		engine:       engine,
		classifier:   opts.Classifier,
		suggestLimit: limit,
		in:           in,
		out:          out,
		st:           newStyles(out),
	}
}

// Start begins the interface loop. It returns nil once the input ends.
func (h *InputHandler) Start() error {
	fmt.Fprintln(h.out, "SwipeServe CLI [BETA]")
	fmt.Fprintln(h.out, h.st.dim.Render(help))
	scanner := bufio.NewScanner(h.in)
	for {
		fmt.Fprint(h.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(h.out)
			return scanner.Err()
		}
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		h.handleInput(line)
	}
}

func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	start := time.Now()
	defer func() {
		log.Debugf("Took [ %v ] for %q", time.Since(start), line)
	}()

	switch {
	case strings.HasPrefix(line, "?"):
		h.checkWord(strings.TrimSpace(line[1:]))
	case strings.HasPrefix(line, ":"):
		if err := h.command(strings.Fields(line[1:])); err != nil {
			log.Errorf("%v", err)
		}
	default:
		var u session.Update
		for _, r := range line {
			u = h.session.HandleKey(r)
			if u.Commit != "" {
				fmt.Fprintf(h.out, "commit    %s\n", h.st.commit.Render(u.Commit))
			}
		}
		u.Commit = ""
		h.show(u)
	}
}

func (h *InputHandler) checkWord(word string) {
	if h.engine != nil && h.engine.IsValid(word) {
		fmt.Fprintf(h.out, "%s is a word\n", h.st.word.Render(word))
		return
	}
	if !utils.IsValidInput(word) {
		log.Debugf("%q would not be queried by the server", word)
	}
	fmt.Fprintf(h.out, "%s is not in the dictionary\n", word)
}

func (h *InputHandler) command(args []string) error {
	if len(args) == 0 {
		return errors.New("empty command")
	}
	switch args[0] {
	case "swipe":
		if len(args) != 3 {
			return errors.New("usage: :swipe KEY DIR")
		}
		u, err := h.swipe(args[1], args[2])
		if err != nil {
			return err
		}
		h.show(u)
	case "pick":
		if len(args) != 2 {
			return errors.New("usage: :pick N")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad candidate number %q", args[1])
		}
		u, err := h.session.Pick(n - 1)
		if err != nil {
			return err
		}
		h.show(u)
	case "del":
		h.show(h.session.HandleKey(keys.CodeDelete))
	case "shift":
		h.show(h.session.HandleKey(keys.CodeShift))
	case "keys":
		fmt.Fprintln(h.out, h.st.renderKeyboard(h.session.Keyboard()))
	case "stats":
		if h.engine == nil {
			return errors.New("no engine")
		}
		for k, v := range h.engine.Stats() {
			fmt.Fprintf(h.out, "%-18s %s\n", k, utils.FormatWithCommas(v))
		}
	case "reset":
		h.show(h.session.Reset())
	case "help":
		fmt.Fprintln(h.out, help)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

// swipe simulates a gesture from the center of the key labelled label.
func (h *InputHandler) swipe(label, dir string) (session.Update, error) {
	d, err := swipe.ParseDirection(dir)
	if err != nil {
		return session.Update{}, err
	}
	var key *keys.Key
	for _, k := range h.session.Keyboard().Keys() {
		if strings.EqualFold(k.Label, label) {
			key = k
			break
		}
	}
	if key == nil {
		return session.Update{}, fmt.Errorf("no key labelled %q", label)
	}

	dist := max(h.classifier.Radius*3, 30)
	down := key.Bounds.Center()
	up := down
	switch d {
	case swipe.Up:
		up.Y -= dist
	case swipe.Down:
		up.Y += dist
	case swipe.Left:
		up.X -= dist
	case swipe.Right:
		up.X += dist
	}
	if _, err := h.session.TouchDown(0, down); err != nil {
		return session.Update{}, err
	}
	u, err := h.session.TouchUp(0, up)
	if err == nil && !u.Handled {
		log.Warnf("%s is not handled by the gesture pipeline", key)
	}
	return u, err
}

func (h *InputHandler) show(u session.Update) {
	fmt.Fprint(h.out, h.st.renderUpdate(u, h.suggestLimit))
}
