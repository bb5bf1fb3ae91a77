//go:build integration

package lifecycle_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"caregate/internal/lifecycle"
	id "caregate/pkg/domain"
	"caregate/pkg/platform/sentinel"
	"caregate/pkg/testutil/containers"
)

type PostgresTombstoneSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *lifecycle.PostgresTombstoneStore
}

func TestPostgresTombstoneSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTombstoneSuite))
}

func (s *PostgresTombstoneSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = lifecycle.NewPostgresTombstoneStore(s.postgres.DB)
}

func (s *PostgresTombstoneSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "erasure_tombstones"))
}

func (s *PostgresTombstoneSuite) newTombstone(subject id.SubjectID) lifecycle.Tombstone {
	return lifecycle.Tombstone{
		SubjectHash: lifecycle.SubjectHash(subject),
		ErasedAt:    time.Now().UTC().Truncate(time.Microsecond),
		ActorID:     id.UserID("admin-1"),
	}
}

func (s *PostgresTombstoneSuite) TestPutAndGet() {
	ctx := context.Background()
	subject := id.SubjectID("patient-1")

	s.Require().NoError(s.store.Put(ctx, subject, s.newTombstone(subject)))

	got, err := s.store.Get(ctx, subject)
	s.Require().NoError(err)
	s.Equal(lifecycle.SubjectHash(subject), got.SubjectHash)
	s.Equal(id.UserID("admin-1"), got.ActorID)

	erased, err := s.store.IsErased(ctx, subject)
	s.Require().NoError(err)
	s.True(erased)
}

func (s *PostgresTombstoneSuite) TestDoublePutConflicts() {
	ctx := context.Background()
	subject := id.SubjectID("patient-2")

	s.Require().NoError(s.store.Put(ctx, subject, s.newTombstone(subject)))

	err := s.store.Put(ctx, subject, s.newTombstone(subject))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

// TestConcurrentErasure verifies that racing erasures agree on exactly one
// winner at the store boundary.
func (s *PostgresTombstoneSuite) TestConcurrentErasure() {
	ctx := context.Background()
	subject := id.SubjectID("patient-3")
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Put(ctx, subject, s.newTombstone(subject)); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
}

func (s *PostgresTombstoneSuite) TestGetUnknownSubject() {
	_, err := s.store.Get(context.Background(), id.SubjectID("nobody"))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	erased, err := s.store.IsErased(context.Background(), id.SubjectID("nobody"))
	s.Require().NoError(err)
	s.False(erased)
}
