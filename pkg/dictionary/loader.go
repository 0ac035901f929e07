package dictionary

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Source produces a fresh dictionary for each load attempt.
type Source func() (*Trie, error)

// FileSource reads the corpus window of path on every attempt.
func FileSource(path string, offset, length int64, opts Options) Source {
	return func() (*Trie, error) {
		return OpenFile(path, offset, length, opts)
	}
}

// LoaderStats provides statistics about the loading process
type LoaderStats struct {
	Version   uint64
	Loaded    bool
	IsLoading bool
	Failures  int
	LastError string
	LoadedAt  time.Time
	LoadTime  time.Duration
	TrieStats
}

// Loader loads a dictionary in the background and swaps in reloads. Until
// the first load succeeds it answers every lookup with nothing, which the
// engine treats as "no candidates".
type Loader struct {
	source     Source
	maxRetries int
	retryDelay time.Duration

	mu         sync.RWMutex
	dict       *Trie
	version    uint64
	errorCount int
	lastErr    error
	gaveUp     bool
	loading    bool
	loadedAt   time.Time
	loadTime   time.Duration
	closed     bool
	changed    chan struct{}

	loadingCh chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewLoader creates a loader for source. maxRetries below 1 means a single
// attempt per load request.
func NewLoader(source Source, maxRetries int) *Loader {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Loader{
		source:     source,
		maxRetries: maxRetries,
		retryDelay: time.Second,
		changed:    make(chan struct{}),
		loadingCh:  make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// SetRetryDelay sets the base delay between attempts; the n-th retry waits
// n times this long.
func (l *Loader) SetRetryDelay(d time.Duration) {
	l.mu.Lock()
	l.retryDelay = d
	l.mu.Unlock()
}

// SetSource replaces where the next load reads from. The current dictionary
// keeps serving until Reload is called.
func (l *Loader) SetSource(source Source) {
	l.mu.Lock()
	l.source = source
	l.mu.Unlock()
}

// Start begins the background loader and queues the initial load.
func (l *Loader) Start() {
	l.startOnce.Do(func() {
		l.wg.Add(1)
		go l.backgroundLoader()
		l.Reload()
	})
}

// Reload queues a fresh load. The current dictionary keeps serving until the
// new one is ready; a load that is already queued absorbs the request.
func (l *Loader) Reload() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.errorCount = 0
	l.gaveUp = false
	l.mu.Unlock()

	select {
	case l.loadingCh <- struct{}{}:
		log.Debugf("Queued dictionary load")
	default:
		log.Debugf("Dictionary load already queued")
	}
}

// backgroundLoader runs in a goroutine and serves the load queue
func (l *Loader) backgroundLoader() {
	defer l.wg.Done()
	for {
		select {
		case <-l.loadingCh:
			l.attempt()
		case <-l.done:
			return
		}
	}
}

func (l *Loader) attempt() {
	l.mu.Lock()
	l.loading = true
	source := l.source
	l.mu.Unlock()

	start := time.Now()
	dict, err := source()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false

	if l.closed {
		if dict != nil {
			dict.Close()
		}
		return
	}

	if err != nil {
		l.errorCount++
		l.lastErr = err
		errorCount := l.errorCount
		log.Errorf("Failed to load dictionary: %v", err)

		if errorCount < l.maxRetries {
			delay := time.Duration(errorCount) * l.retryDelay
			log.Debugf("Retrying dictionary load in %v (attempt %d/%d)", delay, errorCount+1, l.maxRetries)
			go func() {
				select {
				case <-time.After(delay):
				case <-l.done:
					return
				}
				select {
				case l.loadingCh <- struct{}{}:
				case <-l.done:
				}
			}()
		} else {
			log.Errorf("Dictionary load failed %d times, giving up", l.maxRetries)
			l.gaveUp = true
		}
		l.notify()
		return
	}

	old := l.dict
	l.dict = dict
	l.version++
	l.errorCount = 0
	l.lastErr = nil
	l.loadedAt = time.Now()
	l.loadTime = time.Since(start)
	if old != nil {
		old.Close()
	}
	log.Debugf("Dictionary version %d ready in %v", l.version, l.loadTime)
	l.notify()
}

// notify wakes every Wait call. Callers hold l.mu.
func (l *Loader) notify() {
	close(l.changed)
	l.changed = make(chan struct{})
}

// Wait blocks until a dictionary is available, the loader gives up, it is
// closed or ctx is done.
func (l *Loader) Wait(ctx context.Context) error {
	for {
		l.mu.RLock()
		ready, gaveUp, closed := l.dict != nil, l.gaveUp, l.closed
		err, changed := l.lastErr, l.changed
		l.mu.RUnlock()

		switch {
		case ready:
			return nil
		case closed:
			return ErrClosed
		case gaveUp:
			return err
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Ready reports whether a dictionary is loaded.
func (l *Loader) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dict != nil
}

// Version changes whenever the served dictionary does: on every successful
// load and on Close. Zero means nothing has been loaded yet.
func (l *Loader) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Lookup implements Dictionary.
func (l *Loader) Lookup(codes [][]rune, wildcard int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.dict == nil {
		return nil
	}
	return l.dict.Lookup(codes, wildcard)
}

// IsValid implements Dictionary.
func (l *Loader) IsValid(word string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.dict == nil {
		return false
	}
	return l.dict.IsValid(word)
}

// Stats returns current loader statistics
func (l *Loader) Stats() LoaderStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st := LoaderStats{
		Version:   l.version,
		Loaded:    l.dict != nil,
		IsLoading: l.loading,
		Failures:  l.errorCount,
		LoadedAt:  l.loadedAt,
		LoadTime:  l.loadTime,
	}
	if l.lastErr != nil {
		st.LastError = l.lastErr.Error()
	}
	if l.dict != nil {
		st.TrieStats = l.dict.Stats()
	}
	return st
}

// Close stops the background loader and releases the dictionary.
func (l *Loader) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		l.wg.Wait()

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.dict != nil {
			l.dict.Close()
			l.dict = nil
			l.version++
		}
		l.closed = true
		l.notify()
	})
	return nil
}
