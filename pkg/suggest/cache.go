package suggest

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/bastiangx/swipeserve/pkg/dictionary"
	"github.com/charmbracelet/log"
)

// LookupCache keeps recent dictionary answers keyed by code sequence and
// wildcard position, evicting the least recently used entry when full.
type LookupCache struct {
	entries     map[string][]dictionary.Entry
	accessTime  map[string]int64
	accessCount int64
	hits        int64
	maxEntries  int
	mu          sync.Mutex
}

func NewLookupCache(maxEntries int) *LookupCache {
	return &LookupCache{
		entries:    make(map[string][]dictionary.Entry, maxEntries),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

// cacheKey encodes a lookup. Positions are separated by a unit separator,
// which never appears among key codes.
func cacheKey(codes [][]rune, wildcard int) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(wildcard))
	for _, set := range codes {
		b.WriteByte(0x1f)
		for _, c := range set {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func (lc *LookupCache) Get(key string) ([]dictionary.Entry, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	entries, ok := lc.entries[key]
	if !ok {
		return nil, false
	}
	lc.hits++
	lc.markAccessed(key)
	return entries, true
}

func (lc *LookupCache) Put(key string, entries []dictionary.Entry) {
	if lc.maxEntries <= 0 {
		return
	}
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if _, ok := lc.entries[key]; !ok && len(lc.entries) >= lc.maxEntries {
		lc.evictLRU()
	}
	lc.entries[key] = entries
	lc.markAccessed(key)
}

// Purge drops every entry. Statistics survive.
func (lc *LookupCache) Purge() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	clear(lc.entries)
	clear(lc.accessTime)
}

func (lc *LookupCache) Len() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return len(lc.entries)
}

func (lc *LookupCache) Stats() map[string]int {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	return map[string]int{
		"cacheEntries":    len(lc.entries),
		"maxCacheEntries": lc.maxEntries,
		"cacheHits":       int(lc.hits),
	}
}

func (lc *LookupCache) markAccessed(key string) {
	lc.accessCount++
	lc.accessTime[key] = lc.accessCount
}

func (lc *LookupCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, accessTime := range lc.accessTime {
		if accessTime < oldestTime {
			oldestTime = accessTime
			oldestKey = key
		}
	}

	if oldestTime != math.MaxInt64 {
		delete(lc.entries, oldestKey)
		delete(lc.accessTime, oldestKey)
		log.Debugf("Evicted lookup %q from cache", oldestKey)
	}
}
