package lifecycle

import (
	"context"
	"sync"

	id "caregate/pkg/domain"
	"caregate/pkg/platform/sentinel"
)

// InMemoryTombstoneStore keys tombstones by subject hash so the store itself
// never holds the raw identifier beyond lookup time.
type InMemoryTombstoneStore struct {
	mu         sync.RWMutex
	tombstones map[string]Tombstone
}

func NewInMemoryTombstoneStore() *InMemoryTombstoneStore {
	return &InMemoryTombstoneStore{tombstones: make(map[string]Tombstone)}
}

func (s *InMemoryTombstoneStore) Put(_ context.Context, subjectID id.SubjectID, t Tombstone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := SubjectHash(subjectID)
	if _, exists := s.tombstones[key]; exists {
		return sentinel.ErrConflict
	}
	s.tombstones[key] = t
	return nil
}

func (s *InMemoryTombstoneStore) Get(_ context.Context, subjectID id.SubjectID) (Tombstone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tombstones[SubjectHash(subjectID)]
	if !ok {
		return Tombstone{}, sentinel.ErrNotFound
	}
	return t, nil
}

func (s *InMemoryTombstoneStore) IsErased(_ context.Context, subjectID id.SubjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tombstones[SubjectHash(subjectID)]
	return ok, nil
}

// InMemoryDirectory is a development stand-in for the external patient-data
// store: a map of subject to identifying fields.
type InMemoryDirectory struct {
	mu      sync.RWMutex
	records map[id.SubjectID]map[string]string
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{records: make(map[id.SubjectID]map[string]string)}
}

// Put registers identifying fields for a subject (test and demo seeding).
func (d *InMemoryDirectory) Put(subjectID id.SubjectID, fields map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	d.records[subjectID] = copied
}

// Fields returns a copy of the stored fields for assertions.
func (d *InMemoryDirectory) Fields(subjectID id.SubjectID) (map[string]string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fields, ok := d.records[subjectID]
	if !ok {
		return nil, false
	}
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return copied, true
}

func (d *InMemoryDirectory) Anonymize(_ context.Context, subjectID id.SubjectID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	fields, ok := d.records[subjectID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for k, v := range fields {
		fields[k] = Placeholder(v)
	}
	return nil
}

func (d *InMemoryDirectory) Unlink(_ context.Context, subjectID id.SubjectID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.records, subjectID)
	return nil
}
