package dictionary

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
	"golang.org/x/text/unicode/norm"
)

// maxScore caps scores so boosted frequencies never overflow.
const maxScore = math.MaxInt32

// variants holds every spelling stored under one folded key, e.g. "us" and
// "US".
type variants []Entry

// Trie is an in-memory Dictionary keyed by the lower-cased NFC form of each
// word.
type Trie struct {
	mu       sync.RWMutex
	trie     *patricia.Trie
	alphabet []rune
	opts     Options
	words    int
	closed   bool
}

// TrieStats summarizes a loaded corpus.
type TrieStats struct {
	Words        int
	Keys         int
	AlphabetSize int
	MaxFrequency int
}

// foldKey returns the trie key of word. Case folding is per rune so
// positions in the key line up with typed positions.
func foldKey(word string) string {
	word = norm.NFC.String(word)
	return strings.Map(unicode.ToLower, word)
}

// NewTrie builds a dictionary from entries. Empty words are skipped; a
// duplicate spelling keeps its highest frequency.
func NewTrie(entries []Entry, opts Options) *Trie {
	t := &Trie{
		trie: patricia.NewTrie(),
		opts: opts.withDefaults(),
	}
	alphabet := make(map[rune]struct{})

	for _, e := range entries {
		if e.Word == "" {
			continue
		}
		e.Word = norm.NFC.String(e.Word)
		key := patricia.Prefix(foldKey(e.Word))
		item := t.trie.Get(key)
		if item == nil {
			t.trie.Insert(key, &variants{e})
			t.words++
			for _, r := range string(key) {
				alphabet[r] = struct{}{}
			}
			continue
		}
		vs := item.(*variants)
		if i := slices.IndexFunc(*vs, func(v Entry) bool { return v.Word == e.Word }); i >= 0 {
			(*vs)[i].Frequency = max((*vs)[i].Frequency, e.Frequency)
			continue
		}
		*vs = append(*vs, e)
		t.words++
	}

	t.alphabet = make([]rune, 0, len(alphabet))
	for r := range alphabet {
		t.alphabet = append(t.alphabet, r)
	}
	slices.Sort(t.alphabet)
	return t
}

// Open reads the corpus stored at [offset, offset+length) of r. A length of
// zero or less reads to the end of r, which then has to report its size.
func Open(r io.ReaderAt, offset, length int64, opts Options) (*Trie, error) {
	length, err := resolveLength(r, offset, length)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	entries, err := ReadCorpus(io.NewSectionReader(r, offset, length))
	if err != nil {
		return nil, err
	}
	t := NewTrie(entries, opts)
	log.Debugf("Corpus loaded: %d words, %d bytes at offset %d in %v", t.words, length, offset, time.Since(start))
	return t, nil
}

// OpenFile opens path and reads the corpus from it.
func OpenFile(path string, offset, length int64, opts Options) (*Trie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus %s: %w", path, err)
	}
	defer f.Close()
	t, err := Open(f, offset, length, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}
	return t, nil
}

type prefix struct {
	key  string
	hits int
}

// Lookup implements Dictionary.
func (t *Trie) Lookup(codes [][]rune, wildcard int) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed || len(codes) == 0 {
		return nil
	}
	if n := t.opts.MaxWordLength - 1; len(codes) > n {
		codes = codes[:n]
	}

	frontier := []prefix{{}}
	for i, set := range codes {
		var next []prefix
		candidates, primary := t.positionCodes(set, i == wildcard)
		for _, p := range frontier {
			for _, c := range candidates {
				key := p.key + string(c)
				if !t.trie.MatchSubtree(patricia.Prefix(key)) {
					continue
				}
				hits := p.hits
				if c == primary {
					hits++
				}
				next = append(next, prefix{key: key, hits: hits})
			}
		}
		if len(next) == 0 {
			return nil
		}
		frontier = next
	}

	inputLen := len(codes)
	var results []Entry
	for _, p := range frontier {
		t.trie.VisitSubtree(patricia.Prefix(p.key), func(key patricia.Prefix, item patricia.Item) error {
			keyLen := utf8.RuneCount(key)
			if keyLen >= t.opts.MaxWordLength {
				return nil
			}
			for _, v := range *item.(*variants) {
				results = append(results, Entry{
					Word:      v.Word,
					Frequency: t.score(v.Frequency, p.hits, keyLen == inputLen),
				})
			}
			return nil
		})
	}

	slices.SortFunc(results, func(a, b Entry) int {
		if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
			return c
		}
		return strings.Compare(a.Word, b.Word)
	})
	if len(results) > t.opts.MaxWords {
		results = results[:t.opts.MaxWords]
	}
	return results
}

// positionCodes returns the folded codes to try at one position and the
// folded primary. A wildcard position tries the whole alphabet and has no
// primary.
func (t *Trie) positionCodes(set []rune, wildcard bool) ([]rune, rune) {
	if wildcard {
		return t.alphabet, -1
	}
	out := make([]rune, 0, len(set))
	for _, c := range set {
		if c <= 0 {
			continue
		}
		c = unicode.ToLower(c)
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	primary := rune(-1)
	if len(set) > 0 && set[0] > 0 {
		primary = unicode.ToLower(set[0])
	}
	return out, primary
}

func (t *Trie) score(freq, hits int, fullWord bool) int {
	score := int64(freq)
	for i := 0; i < hits; i++ {
		score *= int64(t.opts.TypedLetterMultiplier)
		if score >= maxScore {
			return maxScore
		}
	}
	if fullWord {
		score *= int64(t.opts.FullWordMultiplier)
	}
	return int(min(score, maxScore))
}

// IsValid implements Dictionary. The spelling has to match exactly.
func (t *Trie) IsValid(word string) bool {
	if word == "" {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return false
	}
	word = norm.NFC.String(word)
	item := t.trie.Get(patricia.Prefix(foldKey(word)))
	if item == nil {
		return false
	}
	for _, v := range *item.(*variants) {
		if v.Word == word {
			return v.Frequency > 0
		}
	}
	return false
}

// Close implements Dictionary.
func (t *Trie) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.trie = patricia.NewTrie()
	t.alphabet = nil
	return nil
}

// Stats reports the size of the corpus.
func (t *Trie) Stats() TrieStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st := TrieStats{Words: t.words, AlphabetSize: len(t.alphabet)}
	if t.closed {
		return TrieStats{}
	}
	t.trie.Visit(func(_ patricia.Prefix, item patricia.Item) error {
		st.Keys++
		for _, v := range *item.(*variants) {
			st.MaxFrequency = max(st.MaxFrequency, v.Frequency)
		}
		return nil
	})
	return st
}
