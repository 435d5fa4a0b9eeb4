package ephemeral

import (
	"errors"
	"sync"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/utils"
)

var (
	ErrTooLong   = errors.New("key too long")
	ErrStoreFull = errors.New("ephemeral store full")
)

const (
	maxKeyLength    = 255
	defaultMaxItems = 10_000
	cleanupInterval = time.Minute
)

type item struct {
	value     string
	expiresAt time.Time
}

// coreStore is a bounded TTL map swept by a background goroutine until stop is closed.
type coreStore struct {
	data     map[string]item
	maxItems int
	mu       sync.RWMutex
	stop     chan struct{}
	once     sync.Once
	now      func() time.Time
}

func newCoreStore(maxItems int) *coreStore {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	store := &coreStore{
		data:     make(map[string]item),
		maxItems: maxItems,
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	go store.cleanup()
	return store
}

func (s *coreStore) set(key, value string, ttl time.Duration) error {
	if len(key) > maxKeyLength {
		logging.DebugLog("Store set failed: key too long [%s] (length: %d)", utils.HashToken(key), len(key))
		return ErrTooLong
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; !exists && len(s.data) >= s.maxItems {
		logging.WarnLog("Store set failed: store full (size: %d)", len(s.data))
		return ErrStoreFull
	}
	s.data[key] = item{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *coreStore) get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.data[key]
	if !ok || s.now().After(it.expiresAt) {
		return "", false
	}
	return it.value, true
}

func (s *coreStore) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *coreStore) sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, v := range s.data {
		if now.After(v.expiresAt) {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

func (s *coreStore) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if removed := s.sweep(); removed > 0 {
				logging.InfoLog("Store cleanup: removed %d expired items", removed)
			}
		}
	}
}

func (s *coreStore) close() {
	s.once.Do(func() { close(s.stop) })
}
