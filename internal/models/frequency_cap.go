package models

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/coocood/freecache"
)

const (
	frequencyCapExpireSeconds = 48 * 60 * 60
	minFrequencyCapSize       = 512 * 1024
)

// CreativeFrequencyCap counts how often each creative was displayed today.
// Counters are keyed by creative and UTC day so they roll over without a
// sweep; old days simply expire.
type CreativeFrequencyCap struct {
	mu    sync.Mutex
	cache *freecache.Cache
	clock clock.Clock
	limit int
}

// NewCreativeFrequencyCap returns a cap of limit views per creative per day.
// A limit of 0 disables capping.
func NewCreativeFrequencyCap(sizeBytes int, limit int, clk clock.Clock) *CreativeFrequencyCap {
	return &CreativeFrequencyCap{
		cache: freecache.NewCache(max(sizeBytes, minFrequencyCapSize)),
		clock: clk,
		limit: limit,
	}
}

func (f *CreativeFrequencyCap) key(creativeInstanceID string) []byte {
	return []byte(creativeInstanceID + ":" + f.clock.Now().UTC().Format(dayLayout))
}

func (f *CreativeFrequencyCap) count(key []byte) int {
	value, err := f.cache.Get(key)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(string(value))
	if err != nil {
		return 0
	}
	return n
}

func (f *CreativeFrequencyCap) Count(creativeInstanceID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count(f.key(creativeInstanceID))
}

// Allowed reports whether the creative may be displayed once more today.
func (f *CreativeFrequencyCap) Allowed(creativeInstanceID string) bool {
	if f.limit <= 0 || creativeInstanceID == "" {
		return true
	}
	return f.Count(creativeInstanceID) < f.limit
}

// Hit records one display.
func (f *CreativeFrequencyCap) Hit(creativeInstanceID string) error {
	if creativeInstanceID == "" {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := f.key(creativeInstanceID)
	n := f.count(key) + 1
	if err := f.cache.Set(key, []byte(strconv.Itoa(n)), frequencyCapExpireSeconds); err != nil {
		return fmt.Errorf("frequency cap: store counter: %w", err)
	}
	return nil
}
