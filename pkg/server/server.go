package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/swipeserve/internal/utils"
	"github.com/bastiangx/swipeserve/pkg/composer"
	"github.com/bastiangx/swipeserve/pkg/config"
	"github.com/bastiangx/swipeserve/pkg/dictionary"
	"github.com/bastiangx/swipeserve/pkg/session"
	"github.com/bastiangx/swipeserve/pkg/suggest"
	"github.com/bastiangx/swipeserve/pkg/swipe"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles the msgpack IPC for one editor.
type Server struct {
	mu         sync.Mutex
	session    *session.Session
	engine     *suggest.Engine
	loader     *dictionary.Loader
	caps       *utils.Capitalizer
	config     *config.Config
	configPath string
	resolve    func(string) string

	reader   io.Reader
	writer   *bufio.Writer
	encoder  *msgpack.Encoder
	requests int
}

// NewServer creates a server on stdin/stdout. loader may be nil when the
// engine was given a static dictionary.
func NewServer(engine *suggest.Engine, loader *dictionary.Loader, cfg *config.Config, configPath string) *Server {
	return NewServerWithIO(engine, loader, cfg, configPath, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server on arbitrary streams.
func NewServerWithIO(engine *suggest.Engine, loader *dictionary.Loader, cfg *config.Config, configPath string, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	bw := bufio.NewWriter(w)
	enc := msgpack.NewEncoder(bw)
	enc.UseCompactInts(true)
	return &Server{
		session:    session.New(engine, cfg.SessionOptions()),
		engine:     engine,
		loader:     loader,
		caps:       utils.NewCapitalizer(cfg.Suggest.Locale),
		config:     cfg,
		configPath: configPath,
		resolve:    func(p string) string { return p },
		reader:     r,
		writer:     bw,
		encoder:    enc,
	}
}

// SetPathResolver sets how dict.path from a reloaded config is turned into
// a file path.
func (s *Server) SetPathResolver(resolve func(string) string) {
	s.mu.Lock()
	s.resolve = resolve
	s.mu.Unlock()
}

// Start serves requests until the input ends. A request that decodes to
// garbage is answered with an error; a broken stream ends the loop.
func (s *Server) Start() error {
	log.Debug("Starting msgpack server")
	dec := msgpack.NewDecoder(bufio.NewReader(s.reader))
	for {
		raw, err := dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("Input closed, stopping server")
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}
		if err := s.handleRaw(raw); err != nil {
			return err
		}
	}
}

func (s *Server) handleRaw(raw msgpack.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests++
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		log.Errorf("Unmarshaling request: %v", err)
		return s.sendError("", "Invalid msgpack request", 400)
	}
	return s.handleRequest(req)
}

// handleRequest dispatches on the action. Callers hold s.mu.
func (s *Server) handleRequest(req Request) error {
	start := time.Now()
	var (
		u   session.Update
		err error
	)
	switch req.Action {
	case ActionDown:
		u, err = s.session.TouchDown(req.Pointer, swipe.Point{X: req.X, Y: req.Y})
	case ActionMove:
		u, err = s.session.TouchMove(req.Pointer, swipe.Point{X: req.X, Y: req.Y})
	case ActionUp:
		u, err = s.session.TouchUp(req.Pointer, swipe.Point{X: req.X, Y: req.Y})
	case ActionCancel:
		u, err = s.session.TouchCancel(req.Pointer)
	case ActionKey:
		u = s.session.HandleKey(rune(req.Key))
	case ActionPick:
		u, err = s.session.Pick(req.Index)
	case ActionSel:
		u = s.session.SelectionChanged()
	case ActionShift:
		u = s.session.SetShifted(req.On)
	case ActionSuggest:
		return s.handleSuggest(req, start)
	case ActionValid:
		return s.send(ValidResponse{ID: req.ID, Valid: s.engine != nil && s.engine.IsValid(req.Word)})
	case ActionStats:
		return s.send(StatsResponse{ID: req.ID, Stats: s.stats()})
	default:
		return s.sendError(req.ID, fmt.Sprintf("Unknown action: %q", req.Action), 400)
	}
	if err != nil {
		return s.sendError(req.ID, err.Error(), 400)
	}
	return s.send(s.updateResponse(req.ID, u, start))
}

// handleSuggest ranks completions for a plain typed word. The composing
// state of the session is left alone.
func (s *Server) handleSuggest(req Request, start time.Time) error {
	if req.Word == "" {
		return s.sendError(req.ID, "Missing 'w' parameter", 400)
	}
	maxLen := s.config.Dict.MaxWordLength
	if n := utf8.RuneCountInString(req.Word); n >= maxLen {
		return s.sendError(req.ID, fmt.Sprintf("Word exceeds maximum length of %d characters", maxLen-1), 400)
	}
	resp := UpdateResponse{ID: req.ID, Composing: req.Word, Handled: true}
	if s.engine == nil || !utils.IsValidInput(req.Word) {
		log.Debugf("Skipping suggestions for %q", req.Word)
		resp.TimeTaken = time.Since(start).Microseconds()
		return s.send(resp)
	}

	word := composer.NewWord(maxLen, s.config.Suggest.MaxAlternatives)
	for _, r := range req.Word {
		word.Append(r, []rune{r})
	}
	capitalized := utils.IsCapitalized(req.Word)
	resp.TypedValid = s.engine.IsValid(req.Word) ||
		(capitalized && s.engine.IsValid(s.caps.Lower(req.Word)))

	filter := utils.NewSuggestionFilter(req.Word)
	var out []suggest.Suggestion
	for _, sg := range s.engine.Suggest(word) {
		if !filter.ShouldInclude(sg.Word) {
			continue
		}
		if capitalized {
			sg.Word = s.caps.CapitalizeFirst(sg.Word)
		}
		out = append(out, sg)
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}
	resp.Candidates = rankCandidates(out)
	resp.TimeTaken = time.Since(start).Microseconds()
	return s.send(resp)
}

func (s *Server) updateResponse(id string, u session.Update, start time.Time) UpdateResponse {
	keys := make([]int32, len(u.Keys))
	for i, k := range u.Keys {
		keys[i] = int32(k)
	}
	return UpdateResponse{
		ID:         id,
		Composing:  u.Composing,
		Commit:     u.Commit,
		Keys:       keys,
		Candidates: rankCandidates(u.Candidates),
		TypedValid: u.TypedValid,
		Handled:    u.Handled,
		Close:      u.Close,
		TimeTaken:  time.Since(start).Microseconds(),
	}
}

// rankCandidates numbers suggestions from 1 in their given order.
func rankCandidates(suggestions []suggest.Suggestion) []Candidate {
	ranks := utils.CreateRankList(len(suggestions))
	out := make([]Candidate, len(suggestions))
	for i, sg := range suggestions {
		out[i] = Candidate{Word: sg.Word, Rank: ranks[i], Frequency: sg.Frequency}
	}
	return out
}

func (s *Server) stats() map[string]int {
	st := map[string]int{"requests": s.requests}
	if s.engine != nil {
		for k, v := range s.engine.Stats() {
			st[k] = v
		}
	}
	if s.loader != nil {
		ls := s.loader.Stats()
		st["dictVersion"] = int(ls.Version)
		st["dictFailures"] = ls.Failures
		st["dictWords"] = ls.Words
		st["dictKeys"] = ls.Keys
		st["dictLoadMicros"] = int(ls.LoadTime.Microseconds())
		if ls.Loaded {
			st["dictLoaded"] = 1
		} else {
			st["dictLoaded"] = 0
		}
	}
	return st
}

// ApplyConfig swaps in a reloaded config. Gesture, suggestion and separator
// settings apply at once; a changed [dict] section queues a dictionary
// reload from the new location.
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.config
	s.config = cfg
	if s.engine != nil {
		s.engine.SetOptions(cfg.SuggestOptions())
	}
	s.session.Configure(cfg.SessionOptions())
	if cfg.Suggest.Locale != old.Suggest.Locale {
		s.caps = utils.NewCapitalizer(cfg.Suggest.Locale)
	}
	if s.loader != nil && cfg.Dict != old.Dict {
		path := s.resolve(cfg.Dict.Path)
		log.Debugf("Dictionary settings changed, reloading from %s", path)
		s.loader.SetSource(dictionary.FileSource(path, cfg.Dict.Offset, cfg.Dict.Length, cfg.DictionaryOptions()))
		s.loader.Reload()
	}
	log.Debugf("Applied config from %s", config.GetActiveConfigPath(s.configPath))
}

// Config returns the active config.
func (s *Server) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// send encodes one response and flushes it. Callers hold s.mu.
func (s *Server) send(response any) error {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
		return fmt.Errorf("write response: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) error {
	log.Debugf("Request %q failed: %s", id, message)
	return s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
