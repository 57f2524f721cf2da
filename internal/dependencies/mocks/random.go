package mocks

import (
	"sync"

	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/random"
)

// MockRandom replays queued Intn results, returning 0 once the queue is drained
type MockRandom struct {
	mu      sync.Mutex
	results []int
	index   int
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result modulo n
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index >= len(r.results) || n <= 0 {
		return 0
	}
	result := r.results[r.index]
	r.index++
	return result % n
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = nil
	r.index = 0
}
