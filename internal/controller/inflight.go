package controller

import (
	"sync"

	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/utils"
)

// InFlightRegistry tracks submissions that are still waiting on the identity provider.
// A key can be held by one submission at a time; a second attempt is refused, not queued.
type InFlightRegistry struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{
		pending: make(map[string]struct{}),
	}
}

// TryAcquire marks key as in flight. It returns false if key is already held.
func (r *InFlightRegistry) TryAcquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.pending[key]; busy {
		logging.DebugLog("InFlight: rejected duplicate submission [%s]", utils.HashEmail(key))
		return false
	}
	r.pending[key] = struct{}{}
	return true
}

// Release frees key. Releasing a key that is not held is a no-op.
func (r *InFlightRegistry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, key)
}

// Count returns the number of submissions currently in flight.
func (r *InFlightRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
