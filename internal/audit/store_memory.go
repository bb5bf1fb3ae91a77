package audit

import (
	"context"
	"sync"

	id "caregate/pkg/domain"
)

// InMemoryAuditSink keeps the data-access stream in append order. A single
// slice under one mutex gives the per-subject read-back ordering guarantee
// for free: appends are totally ordered.
type InMemoryAuditSink struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryAuditSink() *InMemoryAuditSink {
	return &InMemoryAuditSink{}
}

func (s *InMemoryAuditSink) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryAuditSink) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries...), nil
}

func (s *InMemoryAuditSink) ListBySubject(_ context.Context, subjectID id.SubjectID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []Entry
	for _, e := range s.entries {
		if e.ResourceID == subjectID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// InMemorySecuritySink keeps the security stream in append order.
type InMemorySecuritySink struct {
	mu     sync.RWMutex
	events []SecurityEvent
}

func NewInMemorySecuritySink() *InMemorySecuritySink {
	return &InMemorySecuritySink{}
}

func (s *InMemorySecuritySink) Append(_ context.Context, event SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemorySecuritySink) List(_ context.Context) ([]SecurityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SecurityEvent{}, s.events...), nil
}
