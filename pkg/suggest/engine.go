package suggest

import (
	"sync"

	"github.com/bastiangx/swipeserve/pkg/dictionary"
	"github.com/charmbracelet/log"
)

const (
	DefaultMaxWordLength  = 48
	DefaultMaxSuggestions = 16
	DefaultMinSuggestions = 5
	DefaultCacheSize      = 512
)

// Options tune the engine.
type Options struct {
	// MaxWordLength counts a terminator; longer words get no candidates.
	MaxWordLength int
	// MaxSuggestions bounds the returned list.
	MaxSuggestions int
	// MinSuggestions is the exact-match count below which relaxed queries
	// are tried.
	MinSuggestions int
	// RelaxedMatch enables the one-position wildcard fallback.
	RelaxedMatch bool
	// CacheSize bounds the lookup cache. Zero disables it.
	CacheSize int
}

func DefaultOptions() Options {
	return Options{
		MaxWordLength:  DefaultMaxWordLength,
		MaxSuggestions: DefaultMaxSuggestions,
		MinSuggestions: DefaultMinSuggestions,
		RelaxedMatch:   true,
		CacheSize:      DefaultCacheSize,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxWordLength < 2 {
		o.MaxWordLength = DefaultMaxWordLength
	}
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = DefaultMaxSuggestions
	}
	if o.MinSuggestions < 0 {
		o.MinSuggestions = DefaultMinSuggestions
	}
	if o.CacheSize < 0 {
		o.CacheSize = 0
	}
	return o
}

// versioned dictionaries announce reloads so cached answers can be dropped.
type versioned interface {
	Version() uint64
}

// Engine ranks candidates for a composing word. It never fails: a missing,
// loading or closed dictionary simply yields no candidates.
type Engine struct {
	mu           sync.Mutex
	dict         dictionary.Dictionary
	opts         Options
	cache        *LookupCache
	cacheVersion uint64
	queries      int
	relaxed      int
	lookups      int
}

// NewEngine creates an engine over dict, which may be nil until a
// dictionary is available.
func NewEngine(dict dictionary.Dictionary, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		dict:  dict,
		opts:  opts,
		cache: NewLookupCache(opts.CacheSize),
	}
}

// SetDictionary swaps the dictionary. The caller keeps ownership of both.
func (e *Engine) SetDictionary(dict dictionary.Dictionary) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dict = dict
	e.cache.Purge()
	e.cacheVersion = 0
}

// SetOptions applies new options and drops cached answers.
func (e *Engine) SetOptions(opts Options) {
	opts = opts.withDefaults()
	e.mu.Lock()
	defer e.mu.Unlock()
	if opts.CacheSize != e.opts.CacheSize {
		e.cache = NewLookupCache(opts.CacheSize)
	} else {
		e.cache.Purge()
	}
	e.opts = opts
}

func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// Suggest returns up to MaxSuggestions candidates for word, best first. When
// the exact query finds fewer than MinSuggestions words each position in
// turn is relaxed to a wildcard; the first relaxed query that finds anything
// ends the search and the longer of the two lists wins.
func (e *Engine) Suggest(word Word) []Suggestion {
	if word == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	n := word.Len()
	if n == 0 || n > e.opts.MaxWordLength-1 || e.dict == nil {
		return nil
	}
	e.queries++
	e.syncCache()

	codes := word.Codes()
	best := e.lookup(codes, dictionary.NoWildcard)
	if len(best) < e.opts.MinSuggestions && e.opts.RelaxedMatch {
		for skip := 0; skip < n; skip++ {
			e.relaxed++
			temp := e.lookup(codes, skip)
			if len(temp) > len(best) {
				best = temp
			}
			if len(temp) > 0 {
				log.Debugf("Relaxed position %d found %d candidates", skip, len(temp))
				break
			}
		}
	}
	return e.collect(best)
}

// collect copies entries up to the first unusable one.
func (e *Engine) collect(entries []dictionary.Entry) []Suggestion {
	out := make([]Suggestion, 0, min(len(entries), e.opts.MaxSuggestions))
	for _, entry := range entries {
		if len(out) >= e.opts.MaxSuggestions || entry.Frequency < 1 || entry.Word == "" {
			break
		}
		out = append(out, Suggestion{Word: entry.Word, Frequency: entry.Frequency})
	}
	return out
}

func (e *Engine) lookup(codes [][]rune, wildcard int) []dictionary.Entry {
	if _, ok := e.dict.(versioned); !ok || e.opts.CacheSize == 0 {
		e.lookups++
		return e.dict.Lookup(codes, wildcard)
	}
	key := cacheKey(codes, wildcard)
	if entries, ok := e.cache.Get(key); ok {
		return entries
	}
	e.lookups++
	entries := e.dict.Lookup(codes, wildcard)
	e.cache.Put(key, entries)
	return entries
}

// syncCache purges the cache when the dictionary was reloaded or closed.
func (e *Engine) syncCache() {
	v, ok := e.dict.(versioned)
	if !ok {
		return
	}
	if version := v.Version(); version != e.cacheVersion {
		e.cache.Purge()
		e.cacheVersion = version
	}
}

// IsValid reports whether word is in the dictionary. Empty input never
// reaches the dictionary.
func (e *Engine) IsValid(word string) bool {
	if word == "" {
		return false
	}
	e.mu.Lock()
	dict := e.dict
	e.mu.Unlock()
	if dict == nil {
		return false
	}
	return dict.IsValid(word)
}

// Stats returns engine counters merged with the cache statistics.
func (e *Engine) Stats() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := e.cache.Stats()
	stats["queries"] = e.queries
	stats["relaxedQueries"] = e.relaxed
	stats["dictionaryLookups"] = e.lookups
	stats["maxSuggestions"] = e.opts.MaxSuggestions
	return stats
}
