/*
Package server implements msgpack IPC for the swipe keyboard.

One editor process drives one server over stdin/stdout. Every request is a
single msgpack map; the "a" field picks the action and "id" is echoed back.
Logs go to stderr since stdout carries the protocol.

# Touch and keys

Touch events carry a pointer id and coordinates in keyboard units:

	{"id": "1", "a": "down", "p": 0, "x": 150, "y": 50}
	{"id": "2", "a": "up", "p": 0, "x": 200, "y": 50}

The server answers with the editor state after the event:

	{"id": "2", "c": "j", "m": "", "k": [], "s": [{"w": "just", "r": 1, "f": 300}], "v": false, "h": true, "x": false, "t": 41}

where c is the composing text, m text to commit before it, k raw key codes
for the editor, s the ranked candidates, v whether the composing text is a
word, h whether the event was consumed, x a request to hide the keyboard
and t the handling time in microseconds.

Synthetic keys, candidate picks, selection changes and shift state use the
same response:

	{"id": "3", "a": "key", "k": 32}
	{"id": "4", "a": "pick", "i": 0}
	{"id": "5", "a": "sel"}
	{"id": "6", "a": "shift", "on": true}

# Queries

	{"id": "7", "a": "suggest", "w": "thw", "l": 5}
	{"id": "8", "a": "valid", "w": "the"}
	{"id": "9", "a": "stats"}

suggest ranks completions for a plain typed word without touching the
composing state. valid answers {"id": "8", "v": true}; stats answers a map
of counters under "st".

Failures answer {"id": "...", "e": "message", "c": 400}.
*/
package server

// Actions understood by the server.
const (
	ActionDown    = "down"
	ActionMove    = "move"
	ActionUp      = "up"
	ActionCancel  = "cancel"
	ActionKey     = "key"
	ActionPick    = "pick"
	ActionSel     = "sel"
	ActionShift   = "shift"
	ActionSuggest = "suggest"
	ActionValid   = "valid"
	ActionStats   = "stats"
)

// Request is the union of all request fields.
type Request struct {
	ID      string  `msgpack:"id"`
	Action  string  `msgpack:"a"`
	Pointer int     `msgpack:"p,omitempty"`
	X       float64 `msgpack:"x,omitempty"`
	Y       float64 `msgpack:"y,omitempty"`
	Key     int32   `msgpack:"k,omitempty"`
	Index   int     `msgpack:"i,omitempty"`
	On      bool    `msgpack:"on,omitempty"`
	Word    string  `msgpack:"w,omitempty"`
	Limit   int     `msgpack:"l,omitempty"`
}

// Candidate is one ranked suggestion.
type Candidate struct {
	Word      string `msgpack:"w"`
	Rank      uint16 `msgpack:"r"`
	Frequency int    `msgpack:"f"`
}

// UpdateResponse carries the editor state after an event.
type UpdateResponse struct {
	ID         string      `msgpack:"id"`
	Composing  string      `msgpack:"c"`
	Commit     string      `msgpack:"m"`
	Keys       []int32     `msgpack:"k"`
	Candidates []Candidate `msgpack:"s"`
	TypedValid bool        `msgpack:"v"`
	Handled    bool        `msgpack:"h"`
	Close      bool        `msgpack:"x"`
	TimeTaken  int64       `msgpack:"t"`
}

// ValidResponse answers a validity check.
type ValidResponse struct {
	ID    string `msgpack:"id"`
	Valid bool   `msgpack:"v"`
}

// StatsResponse carries engine and dictionary counters.
type StatsResponse struct {
	ID    string         `msgpack:"id"`
	Stats map[string]int `msgpack:"st"`
}

// ErrorResponse holds basic error information for failed requests
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
