package window

import (
	"context"
	"sync"
	"time"

	id "caregate/pkg/domain"
)

// InMemoryStore implements Store using an in-memory sliding window of denial
// timestamps per user. Single-process only; multi-instance deployments use
// RedisStore so repeated denials spread across instances still escalate.
type InMemoryStore struct {
	mu      sync.Mutex
	denials map[id.UserID][]time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{denials: make(map[id.UserID][]time.Time)}
}

func (s *InMemoryStore) RecordDenial(_ context.Context, userID id.UserID, at time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := at.Add(-window)
	kept := s.denials[userID][:0]
	for _, ts := range s.denials[userID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, at)
	s.denials[userID] = kept
	return len(kept), nil
}
