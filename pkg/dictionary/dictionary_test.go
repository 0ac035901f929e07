package dictionary

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEntries = []Entry{
	{"a", 500},
	{"as", 100},
	{"ask", 50},
	{"asks", 10},
	{"at", 80},
	{"is", 30},
	{"us", 20},
	{"US", 40},
	{"zzz", 0},
}

func encode(t *testing.T, entries []Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteCorpus(&buf, entries))
	return buf.Bytes()
}

func TestCorpusRoundTrip(t *testing.T) {
	data := encode(t, testEntries)
	got, err := ReadCorpus(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, testEntries, got)
}

func TestCorpusErrors(t *testing.T) {
	data := encode(t, testEntries)

	_, err := ReadCorpus(bytes.NewReader(data[:len(data)-3]))
	assert.ErrorIs(t, err, ErrCorrupt, "truncated frequency")

	_, err = ReadCorpus(bytes.NewReader(data[:2]))
	assert.ErrorIs(t, err, ErrCorrupt, "truncated header")

	assert.ErrorIs(t, ValidateHeader(-1), ErrCorrupt)
	assert.ErrorIs(t, ValidateHeader(MaxCorpusWords+1), ErrCorrupt)
	assert.NoError(t, ValidateHeader(0))

	assert.Error(t, WriteCorpus(&bytes.Buffer{}, []Entry{{"", 1}}))
	assert.Error(t, WriteCorpus(&bytes.Buffer{}, []Entry{{"neg", -1}}))
}

func TestReadText(t *testing.T) {
	src := "# comment\nthe 900\n\nof\t400\nswipe\n"
	got, err := ReadText(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"the", 900}, {"of", 400}, {"swipe", 1}}, got)

	_, err = ReadText(strings.NewReader("bad -3\n"))
	assert.Error(t, err)
}

func TestOpenWindow(t *testing.T) {
	corpus := encode(t, testEntries)
	blob := append([]byte("HEADER!"), corpus...)
	blob = append(blob, []byte("trailing asset bytes")...)

	d, err := Open(bytes.NewReader(blob), 7, int64(len(corpus)), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, d.IsValid("ask"))
	assert.Equal(t, len(testEntries), d.Stats().Words)

	// to the end of the reader
	d, err = Open(bytes.NewReader(append([]byte("HEADER!"), corpus...)), 7, 0, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, d.IsValid("at"))

	_, err = Open(bytes.NewReader(blob), 0, int64(len(corpus)), DefaultOptions())
	assert.Error(t, err, "wrong offset")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en_dict.bin")
	require.NoError(t, os.WriteFile(path, encode(t, testEntries), 0o644))

	d, err := OpenFile(path, 0, 0, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, d.IsValid("as"))

	n, err := ValidateFile(path, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, len(testEntries), n)

	f, err := DetectFileFormat(path)
	require.NoError(t, err)
	assert.Equal(t, FormatBinary, f)

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.bin"), 0, 0, DefaultOptions())
	assert.Error(t, err)
}

func TestLookupScoring(t *testing.T) {
	d := NewTrie(testEntries, DefaultOptions())

	tests := []struct {
		name     string
		codes    [][]rune
		wildcard int
		want     []Entry
	}{
		{
			name:     "exact and completions",
			codes:    [][]rune{{'a'}, {'s'}},
			wildcard: NoWildcard,
			want:     []Entry{{"as", 800}, {"ask", 200}, {"asks", 40}},
		},
		{
			name:     "typed letter outranks alternative",
			codes:    [][]rune{{'a'}, {'t', 's'}},
			wildcard: NoWildcard,
			want:     []Entry{{"at", 640}, {"as", 400}, {"ask", 100}, {"asks", 20}},
		},
		{
			name:     "shifted codes fold",
			codes:    [][]rune{{'A', 'a'}, {'S'}},
			wildcard: NoWildcard,
			want:     []Entry{{"as", 800}, {"ask", 200}, {"asks", 40}},
		},
		{
			name:     "wildcard position",
			codes:    [][]rune{{'x'}, {'s'}},
			wildcard: 0,
			want:     []Entry{{"as", 400}, {"US", 160}, {"is", 120}, {"ask", 100}, {"us", 80}, {"asks", 20}},
		},
		{
			name:     "no match",
			codes:    [][]rune{{'x'}, {'s'}},
			wildcard: NoWildcard,
			want:     nil,
		},
		{
			name:     "wildcard past the end is ignored",
			codes:    [][]rune{{'a'}, {'t'}},
			wildcard: 5,
			want:     []Entry{{"at", 640}},
		},
		{
			name:     "zero frequency kept at the bottom",
			codes:    [][]rune{{'z'}, {'z'}, {'z'}},
			wildcard: NoWildcard,
			want:     []Entry{{"zzz", 0}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, d.Lookup(tc.codes, tc.wildcard))
		})
	}

	assert.Nil(t, d.Lookup(nil, NoWildcard))
}

func TestLookupBounds(t *testing.T) {
	d := NewTrie(testEntries, Options{MaxWords: 2, MaxWordLength: 4})
	got := d.Lookup([][]rune{{'a'}}, NoWildcard)
	assert.Equal(t, []Entry{{"a", 2000}, {"as", 200}}, got)

	// "asks" has four runes and is never returned
	got = NewTrie(testEntries, Options{MaxWordLength: 4}).Lookup([][]rune{{'a'}, {'s'}, {'k'}}, NoWildcard)
	assert.Equal(t, []Entry{{"ask", 800}}, got)

	// input longer than the limit is cut before matching
	got = NewTrie(testEntries, Options{MaxWordLength: 3}).Lookup([][]rune{{'a'}, {'s'}, {'k'}, {'s'}}, NoWildcard)
	assert.Equal(t, []Entry{{"as", 800}}, got)
}

func TestScoreSaturates(t *testing.T) {
	word := strings.Repeat("e", 40)
	d := NewTrie([]Entry{{word, 1 << 30}}, DefaultOptions())
	codes := make([][]rune, len(word))
	for i := range codes {
		codes[i] = []rune{'e'}
	}
	got := d.Lookup(codes, NoWildcard)
	require.Len(t, got, 1)
	assert.Equal(t, maxScore, got[0].Frequency)
}

func TestIsValid(t *testing.T) {
	d := NewTrie(testEntries, DefaultOptions())
	assert.True(t, d.IsValid("as"))
	assert.True(t, d.IsValid("US"))
	assert.True(t, d.IsValid("us"))
	assert.False(t, d.IsValid("Us"), "spelling must match")
	assert.False(t, d.IsValid("zzz"), "zero frequency")
	assert.False(t, d.IsValid("asksx"))
	assert.False(t, d.IsValid(""))
}

func TestNFCKeys(t *testing.T) {
	// "café" stored decomposed, typed composed
	d := NewTrie([]Entry{{"cafe\u0301", 10}}, DefaultOptions())
	assert.True(t, d.IsValid("caf\u00e9"))
	got := d.Lookup([][]rune{{'c'}, {'a'}, {'f'}, {'\u00e9'}}, NoWildcard)
	require.Len(t, got, 1)
	assert.Equal(t, "caf\u00e9", got[0].Word)
}

func TestDuplicateSpellingKeepsMax(t *testing.T) {
	d := NewTrie([]Entry{{"as", 5}, {"as", 9}, {"as", 1}}, DefaultOptions())
	assert.Equal(t, []Entry{{"as", 9 * 4 * 2}}, d.Lookup([][]rune{{'a'}, {'s'}}, NoWildcard))
	assert.Equal(t, 1, d.Stats().Words)
}

func TestCloseIdempotent(t *testing.T) {
	d := NewTrie(testEntries, DefaultOptions())
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Nil(t, d.Lookup([][]rune{{'a'}}, NoWildcard))
	assert.False(t, d.IsValid("as"))
	assert.Equal(t, TrieStats{}, d.Stats())
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLoaderRetries(t *testing.T) {
	var calls atomic.Int32
	l := NewLoader(func() (*Trie, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("disk not ready")
		}
		return NewTrie(testEntries, DefaultOptions()), nil
	}, 3)
	l.SetRetryDelay(time.Millisecond)
	defer l.Close()

	assert.False(t, l.Ready())
	assert.Nil(t, l.Lookup([][]rune{{'a'}}, NoWildcard))
	assert.False(t, l.IsValid("as"))

	l.Start()
	require.NoError(t, l.Wait(waitCtx(t)))
	assert.EqualValues(t, 3, calls.Load())
	assert.EqualValues(t, 1, l.Version())
	assert.True(t, l.IsValid("as"))

	st := l.Stats()
	assert.True(t, st.Loaded)
	assert.Equal(t, len(testEntries), st.Words)
	assert.Empty(t, st.LastError)
}

func TestLoaderGivesUp(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("corrupt")
	l := NewLoader(func() (*Trie, error) {
		calls.Add(1)
		return nil, boom
	}, 2)
	l.SetRetryDelay(time.Millisecond)
	defer l.Close()

	l.Start()
	assert.ErrorIs(t, l.Wait(waitCtx(t)), boom)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, "corrupt", l.Stats().LastError)
}

func TestLoaderReloadAndClose(t *testing.T) {
	var calls atomic.Int32
	l := NewLoader(func() (*Trie, error) {
		n := calls.Add(1)
		if n == 1 {
			return NewTrie([]Entry{{"old", 1}}, DefaultOptions()), nil
		}
		return NewTrie([]Entry{{"new", 1}}, DefaultOptions()), nil
	}, 1)
	l.Start()
	require.NoError(t, l.Wait(waitCtx(t)))
	assert.True(t, l.IsValid("old"))

	l.Reload()
	require.Eventually(t, func() bool { return l.Version() == 2 }, 5*time.Second, time.Millisecond)
	assert.True(t, l.IsValid("new"))
	assert.False(t, l.IsValid("old"))

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	assert.False(t, l.Ready())
	assert.ErrorIs(t, l.Wait(waitCtx(t)), ErrClosed)
}

func TestLoaderWaitContext(t *testing.T) {
	l := NewLoader(func() (*Trie, error) { return nil, errors.New("never") }, 1)
	defer l.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled, "not started, nothing to wait for")
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.bin")
	require.NoError(t, os.WriteFile(path, encode(t, testEntries), 0o644))

	l := NewLoader(FileSource(path, 0, 0, DefaultOptions()), 1)
	defer l.Close()
	l.Start()
	require.NoError(t, l.Wait(waitCtx(t)))
	assert.Equal(t, []Entry{{"at", 640}}, l.Lookup([][]rune{{'a'}, {'t'}}, NoWildcard))
}

func TestLoaderSetSource(t *testing.T) {
	l := NewLoader(func() (*Trie, error) {
		return NewTrie([]Entry{{"old", 1}}, DefaultOptions()), nil
	}, 1)
	defer l.Close()
	l.Start()
	require.NoError(t, l.Wait(waitCtx(t)))

	l.SetSource(func() (*Trie, error) {
		return NewTrie([]Entry{{"new", 1}}, DefaultOptions()), nil
	})
	assert.True(t, l.IsValid("old"), "serving until reloaded")

	l.Reload()
	require.Eventually(t, func() bool { return l.IsValid("new") }, 5*time.Second, time.Millisecond)
}
