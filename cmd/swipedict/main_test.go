package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/swipeserve/pkg/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare(t *testing.T) {
	got := prepare([]dictionary.Entry{
		{Word: "b", Frequency: 5},
		{Word: "a", Frequency: 5},
		{Word: "c", Frequency: 9},
		{Word: "b", Frequency: 7},
		{Word: "rare", Frequency: 1},
	}, 2)
	assert.Equal(t, []dictionary.Entry{{Word: "c", Frequency: 9}, {Word: "b", Frequency: 7}, {Word: "a", Frequency: 5}}, got)
}

func TestAppendToContainer(t *testing.T) {
	dir := t.TempDir()
	words := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(words, []byte("# test\nthe 100\nthen 40\nthe 90\n"), 0o644))
	pak := filepath.Join(dir, "assets.pak")
	require.NoError(t, os.WriteFile(pak, []byte("HEADER!"), 0o644))

	entries, err := readInput(words)
	require.NoError(t, err)
	entries = prepare(entries, 1)

	bin := filepath.Join(dir, "plain.bin")
	f, err := os.Create(bin)
	require.NoError(t, err)
	require.NoError(t, dictionary.WriteCorpus(f, entries))
	require.NoError(t, f.Close())
	data, err := os.ReadFile(bin)
	require.NoError(t, err)

	offset, err := writeOutput(pak, data, true)
	require.NoError(t, err)
	assert.EqualValues(t, 7, offset)

	trie, err := dictionary.OpenFile(pak, offset, int64(len(data)), dictionary.DefaultOptions())
	require.NoError(t, err)
	defer trie.Close()
	assert.True(t, trie.IsValid("then"))
	assert.Equal(t, 2, trie.Stats().Words)

	again, err := readInput(bin)
	require.NoError(t, err)
	assert.Equal(t, entries, again, "binary input re-encodes as is")

	offset, err = writeOutput(pak, data, false)
	require.NoError(t, err)
	assert.Zero(t, offset)
}
