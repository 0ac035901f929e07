package suggest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/bastiangx/swipeserve/pkg/composer"
	"github.com/bastiangx/swipeserve/pkg/dictionary"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

var stabilityPatterns = []string{
	"h", "he", "hel", "hell", "hello",
	"w", "wo", "wor", "worl", "world",
	"p", "pr", "pro", "prog", "program",
	"t", "th", "the", "ther", "there",
}

func stabilityCorpus() []dictionary.Entry {
	words := []string{"hello", "help", "world", "word", "program", "progress", "the", "there", "then", "they", "work", "pro"}
	var out []dictionary.Entry
	for i, w := range words {
		out = append(out, dictionary.Entry{Word: w, Frequency: 1000 - i})
		for j := 0; j < 20; j++ {
			out = append(out, dictionary.Entry{Word: fmt.Sprintf("%s%c", w, 'a'+j), Frequency: 10 + j})
		}
	}
	return out
}

func typedWords(patterns []string) []*composer.Word {
	out := make([]*composer.Word, len(patterns))
	for i, p := range patterns {
		w := composer.NewWord(0, 0)
		for _, r := range p {
			w.Append(r, []rune{r + 1})
		}
		out[i] = w
	}
	return out
}

// Suggest keeps serving while the dictionary is reloaded underneath it, and
// neither goroutines nor memory pile up.
func TestConcurrentReloadStability(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping long-running stability test in short mode")
	}
	log.SetLevel(log.ErrorLevel)
	defer log.SetLevel(log.WarnLevel)

	corpus := stabilityCorpus()
	loader := dictionary.NewLoader(func() (*dictionary.Trie, error) {
		return dictionary.NewTrie(corpus, dictionary.DefaultOptions()), nil
	}, 1)
	loader.Start()
	defer loader.Close()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, loader.Wait(ctx))

	e := NewEngine(loader, DefaultOptions())
	words := typedWords(stabilityPatterns)

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	const workers, iterations = 4, 200
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				for _, w := range words {
					for _, s := range e.Suggest(w) {
						if s.Frequency < 1 {
							t.Errorf("unusable candidate %q served", s.Word)
							return
						}
					}
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		loader.Reload()
		time.Sleep(time.Millisecond)
	}
	wg.Wait()

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)
	goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
	memDelta := int64(final.HeapAlloc) - int64(baseline.HeapAlloc)

	t.Logf("ops=%d mem_delta=%d bytes goroutine_delta=%d version=%d",
		workers*iterations*len(words), memDelta, goroutineDelta, loader.Version())

	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
	if memDelta > 8<<20 {
		t.Errorf("heap grew by %d bytes", memDelta)
	}
}
