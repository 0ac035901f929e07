package suggest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bastiangx/swipeserve/pkg/composer"
	"github.com/bastiangx/swipeserve/pkg/dictionary"
	"github.com/bastiangx/swipeserve/pkg/keys"
	"github.com/bastiangx/swipeserve/pkg/swipe"
	"github.com/bastiangx/swipeserve/pkg/touch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDict answers by wildcard position and records every call.
type fakeDict struct {
	results    map[int][]dictionary.Entry
	valid      map[string]bool
	calls      []int
	validCalls int
}

func (f *fakeDict) Lookup(_ [][]rune, wildcard int) []dictionary.Entry {
	f.calls = append(f.calls, wildcard)
	return f.results[wildcard]
}

func (f *fakeDict) IsValid(word string) bool {
	f.validCalls++
	return f.valid[word]
}

func (f *fakeDict) Close() error { return nil }

type versionedDict struct {
	fakeDict
	version uint64
}

func (v *versionedDict) Version() uint64 { return v.version }

func entries(words ...string) []dictionary.Entry {
	out := make([]dictionary.Entry, len(words))
	for i, w := range words {
		out[i] = dictionary.Entry{Word: w, Frequency: 100 - i}
	}
	return out
}

func typed(t *testing.T, s string) *composer.Word {
	t.Helper()
	w := composer.NewWord(0, 0)
	for _, r := range s {
		require.NoError(t, w.Append(r, nil))
	}
	return w
}

func TestSuggestRelaxedFallback(t *testing.T) {
	tests := []struct {
		name      string
		results   map[int][]dictionary.Entry
		relaxed   bool
		wantWords int
		wantCalls []int
	}{
		{
			name: "second position relaxed wins",
			results: map[int][]dictionary.Entry{
				dictionary.NoWildcard: entries("the", "then"),
				1:                     entries("tae", "tbe", "tce", "tde", "tee", "tfe", "tge"),
			},
			relaxed:   true,
			wantWords: 7,
			wantCalls: []int{dictionary.NoWildcard, 0, 1},
		},
		{
			name: "enough exact matches",
			results: map[int][]dictionary.Entry{
				dictionary.NoWildcard: entries("a", "b", "c", "d", "e"),
			},
			relaxed:   true,
			wantWords: 5,
			wantCalls: []int{dictionary.NoWildcard},
		},
		{
			name: "shorter relaxed result stops the search but keeps exact",
			results: map[int][]dictionary.Entry{
				dictionary.NoWildcard: entries("a", "b", "c"),
				0:                     entries("x"),
				1:                     entries("p", "q", "r", "s", "t", "u"),
			},
			relaxed:   true,
			wantWords: 3,
			wantCalls: []int{dictionary.NoWildcard, 0},
		},
		{
			name:      "nothing anywhere",
			results:   map[int][]dictionary.Entry{},
			relaxed:   true,
			wantWords: 0,
			wantCalls: []int{dictionary.NoWildcard, 0, 1, 2},
		},
		{
			name: "relaxed matching off",
			results: map[int][]dictionary.Entry{
				dictionary.NoWildcard: entries("the"),
				0:                     entries("a", "b", "c", "d", "e", "f"),
			},
			relaxed:   false,
			wantWords: 1,
			wantCalls: []int{dictionary.NoWildcard},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dict := &fakeDict{results: tc.results}
			opts := DefaultOptions()
			opts.RelaxedMatch = tc.relaxed
			e := NewEngine(dict, opts)

			got := e.Suggest(typed(t, "the"))
			assert.Len(t, got, tc.wantWords)
			assert.Equal(t, tc.wantCalls, dict.calls)
		})
	}
}

func TestSuggestTruncation(t *testing.T) {
	dict := &fakeDict{results: map[int][]dictionary.Entry{
		dictionary.NoWildcard: {
			{Word: "one", Frequency: 9},
			{Word: "two", Frequency: 8},
			{Word: "three", Frequency: 0},
			{Word: "four", Frequency: 7},
		},
	}}
	opts := DefaultOptions()
	opts.RelaxedMatch = false
	e := NewEngine(dict, opts)
	assert.Equal(t, []Suggestion{{"one", 9}, {"two", 8}}, e.Suggest(typed(t, "o")), "stops at zero frequency")

	dict.results[dictionary.NoWildcard] = entries("a", "b", "", "c")
	assert.Equal(t, []Suggestion{{"a", 100}, {"b", 99}}, e.Suggest(typed(t, "o")), "stops at an empty word")

	dict.results[dictionary.NoWildcard] = entries("a", "b", "c", "d")
	opts.MaxSuggestions = 3
	e.SetOptions(opts)
	assert.Len(t, e.Suggest(typed(t, "o")), 3)
}

func TestSuggestBounds(t *testing.T) {
	dict := &fakeDict{results: map[int][]dictionary.Entry{
		dictionary.NoWildcard: entries("a", "b", "c", "d", "e"),
	}}
	e := NewEngine(dict, DefaultOptions())

	assert.Empty(t, e.Suggest(nil))
	assert.Empty(t, e.Suggest(typed(t, "")))
	assert.Empty(t, dict.calls, "empty input never queries")

	w := composer.NewWord(DefaultMaxWordLength+1, 1)
	for i := 0; i < DefaultMaxWordLength; i++ {
		require.NoError(t, w.Append('e', nil))
	}
	assert.Empty(t, e.Suggest(w), "overlong word")
	assert.Empty(t, dict.calls)

	require.NoError(t, w.DeleteLast())
	assert.Len(t, e.Suggest(w), 5, "the longest allowed word still queries")
}

func TestSuggestWithoutDictionary(t *testing.T) {
	e := NewEngine(nil, DefaultOptions())
	assert.Empty(t, e.Suggest(typed(t, "the")))
	assert.False(t, e.IsValid("the"))

	loader := dictionary.NewLoader(func() (*dictionary.Trie, error) {
		return dictionary.NewTrie(nil, dictionary.DefaultOptions()), nil
	}, 1)
	defer loader.Close()
	e.SetDictionary(loader)
	assert.Empty(t, e.Suggest(typed(t, "the")), "loader not started")
}

func TestSuggestIdempotent(t *testing.T) {
	dict := &fakeDict{results: map[int][]dictionary.Entry{
		dictionary.NoWildcard: entries("th"),
		2:                     entries("tho", "thy"),
	}}
	e := NewEngine(dict, DefaultOptions())
	w := typed(t, "thx")
	first := e.Suggest(w)
	second := e.Suggest(w)
	assert.Equal(t, first, second)
	assert.Equal(t, 3, w.Len(), "the word is not modified")
}

func TestIsValid(t *testing.T) {
	dict := &fakeDict{valid: map[string]bool{"the": true}}
	e := NewEngine(dict, DefaultOptions())

	assert.False(t, e.IsValid(""))
	assert.Zero(t, dict.validCalls, "empty input never reaches the dictionary")

	assert.True(t, e.IsValid("the"))
	assert.False(t, e.IsValid("teh"))
	assert.Equal(t, 2, dict.validCalls)
}

func TestCachePurgedOnReload(t *testing.T) {
	dict := &versionedDict{version: 1}
	dict.results = map[int][]dictionary.Entry{
		dictionary.NoWildcard: entries("a", "b", "c", "d", "e"),
	}
	e := NewEngine(dict, DefaultOptions())
	w := typed(t, "ab")

	e.Suggest(w)
	e.Suggest(w)
	assert.Len(t, dict.calls, 1, "second query is cached")
	assert.Equal(t, 1, e.Stats()["cacheHits"])

	dict.version = 2
	dict.results[dictionary.NoWildcard] = entries("x", "y", "z", "w", "v")
	got := e.Suggest(w)
	assert.Len(t, dict.calls, 2)
	assert.Equal(t, "x", got[0].Word)

	st := e.Stats()
	assert.Equal(t, 3, st["queries"])
	assert.Equal(t, 2, st["dictionaryLookups"])
	assert.Equal(t, 1, st["cacheEntries"])
}

func TestCacheDisabled(t *testing.T) {
	dict := &versionedDict{version: 1}
	opts := DefaultOptions()
	opts.CacheSize = 0
	e := NewEngine(dict, opts)
	w := typed(t, "a")
	e.Suggest(w)
	e.Suggest(w)
	// exact plus one relaxed position, twice
	assert.Len(t, dict.calls, 4)
}

func TestLookupCacheEviction(t *testing.T) {
	c := NewLookupCache(2)
	c.Put("a", entries("a"))
	c.Put("b", entries("b"))
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", entries("c"))
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestCacheKeyDistinguishesPositions(t *testing.T) {
	assert.NotEqual(t, cacheKey([][]rune{{'a', 'b'}}, -1), cacheKey([][]rune{{'a'}, {'b'}}, -1))
	assert.NotEqual(t, cacheKey([][]rune{{'a'}}, -1), cacheKey([][]rune{{'a'}}, 0))
}

// A key with 'a' in the center and 's' on the right, swiped 50 units right.
func TestSwipeToSuggestions(t *testing.T) {
	kb, err := keys.Grid(1, 100, 100, []keys.KeySpec{
		{Label: "as", Codes: keys.Codes{'a', 0, 0, 0, 's'}},
	})
	require.NoError(t, err)
	tr := touch.NewTracker(kb, swipe.Classifier{Radius: 10, LateralBias: 2}, 0)

	_, err = tr.OnDown(0, swipe.Point{X: 20, Y: 50})
	require.NoError(t, err)
	res, err := tr.OnUp(0, swipe.Point{X: 70, Y: 50})
	require.NoError(t, err)
	require.Equal(t, swipe.Right, res.Direction)
	require.Equal(t, 's', res.Code)

	w := composer.NewWord(0, 0)
	require.NoError(t, w.Append(res.Code, []rune{res.Code}))

	dict := dictionary.NewTrie([]dictionary.Entry{
		{Word: "s", Frequency: 5},
		{Word: "so", Frequency: 500},
		{Word: "she", Frequency: 400},
		{Word: "see", Frequency: 300},
		{Word: "sun", Frequency: 100},
		{Word: "as", Frequency: 900},
	}, dictionary.DefaultOptions())

	got := NewEngine(dict, DefaultOptions()).Suggest(w)
	words := make([]string, len(got))
	for i, s := range got {
		words[i] = s.Word
		assert.True(t, strings.HasPrefix(s.Word, "s"))
	}
	assert.Equal(t, []string{"so", "she", "see", "sun", "s"}, words)
}

func BenchmarkSuggest(b *testing.B) {
	var corpus []dictionary.Entry
	for i := 0; i < 5000; i++ {
		corpus = append(corpus, dictionary.Entry{Word: fmt.Sprintf("w%dord%d", i%97, i), Frequency: i + 1})
	}
	dict := dictionary.NewTrie(corpus, dictionary.DefaultOptions())
	e := NewEngine(dict, DefaultOptions())

	w := composer.NewWord(0, 0)
	for _, r := range "w4o" {
		w.Append(r, []rune{'q', 'e'})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Suggest(w)
	}
}
