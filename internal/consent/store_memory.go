package consent

import (
	"context"
	"sync"

	id "caregate/pkg/domain"
	"caregate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.SubjectID]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.SubjectID]Record)}
}

func (s *InMemoryStore) Get(_ context.Context, subjectID id.SubjectID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[subjectID]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	// Copy history so callers cannot mutate stored state.
	record.History = append([]Transition{}, record.History...)
	return record, nil
}

func (s *InMemoryStore) Append(_ context.Context, subjectID id.SubjectID, t Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[subjectID]
	if !ok {
		record = Record{SubjectID: subjectID}
	}
	record.Current = t.State
	record.ChangedAt = t.At
	record.History = append(record.History, t)
	s.records[subjectID] = record
	return nil
}

func (s *InMemoryStore) Wipe(_ context.Context, subjectID id.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, subjectID)
	return nil
}
