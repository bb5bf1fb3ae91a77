package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"caregate/internal/audit"
	"caregate/internal/consent"
	"caregate/internal/guard"
	"caregate/internal/guard/store/window"
	"caregate/internal/identity"
	"caregate/internal/lifecycle"
	"caregate/internal/lifecycle/mocks"
	"caregate/internal/policy"
	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/keyedlock"
)

type ManagerSuite struct {
	suite.Suite
	manager *ManagerFixture
	locks   *keyedlock.KeyedMutex
	ctx     context.Context
	now     time.Time
}

// ManagerFixture bundles the fully wired manager with the collaborators the
// assertions need to reach.
type ManagerFixture struct {
	Manager    *lifecycle.Manager
	Guard      *guard.Guard
	Ledger     *consent.Ledger
	Directory  *lifecycle.InMemoryDirectory
	Tombstones *lifecycle.InMemoryTombstoneStore
	Log        *audit.Log
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	registry, err := identity.NewRegistry(identity.NewInMemoryStore())
	s.Require().NoError(err)
	for _, u := range []identity.User{
		{ID: id.UserID("doctor-1"), Role: identity.RoleDoctor},
		{ID: id.UserID("nurse-1"), Role: identity.RoleNurse},
		{ID: id.UserID("patient-1"), Role: identity.RolePatient},
		{ID: id.UserID("admin-1"), Role: identity.RoleAdmin},
	} {
		s.Require().NoError(registry.Register(s.ctx, u))
	}

	ledger, err := consent.NewLedger(consent.NewInMemoryStore())
	s.Require().NoError(err)

	log, err := audit.NewLog(audit.NewInMemoryAuditSink(), audit.NewInMemorySecuritySink(), audit.WithClock(clock))
	s.Require().NoError(err)

	tombstones := lifecycle.NewInMemoryTombstoneStore()
	locks := keyedlock.New()
	s.locks = locks

	g, err := guard.New(guard.Config{
		Roles:    registry,
		Table:    policy.DefaultTable(),
		Consents: ledger,
		Erasures: tombstones,
		Windows:  window.NewInMemoryStore(),
		Log:      log,
		Locks:    locks,
		Clock:    clock,
	})
	s.Require().NoError(err)

	directory := lifecycle.NewInMemoryDirectory()
	directory.Put(id.SubjectID("patient-1"), map[string]string{
		"name":    "Karolina Kowalska",
		"address": "ul. Prosta 1, Warszawa",
		"phone":   "+48 600 000 000",
	})

	manager, err := lifecycle.NewManager(lifecycle.Config{
		Guard:      g,
		Tombstones: tombstones,
		Directory:  directory,
		Consents:   ledger,
		Log:        log,
		Locks:      locks,
		Clock:      clock,
	})
	s.Require().NoError(err)

	s.manager = &ManagerFixture{
		Manager:    manager,
		Guard:      g,
		Ledger:     ledger,
		Directory:  directory,
		Tombstones: tombstones,
		Log:        log,
	}
}

// =============================================================================
// Anonymization
// =============================================================================

func (s *ManagerSuite) TestAnonymize() {
	m := s.manager

	s.Run("doctor anonymizes a consented subject", func() {
		s.Require().NoError(m.Ledger.Grant(s.ctx, id.SubjectID("patient-1"), s.now.Add(-time.Hour)))
		s.Require().NoError(m.Manager.Anonymize(s.ctx, id.SubjectID("patient-1"), id.UserID("doctor-1")))

		fields, ok := m.Directory.Fields(id.SubjectID("patient-1"))
		s.Require().True(ok)
		for _, v := range fields {
			s.Regexp(`^\*\*\*[0-9a-f]{16}$`, v)
		}
	})

	s.Run("placeholders are irreversible but stable", func() {
		s.Equal(lifecycle.Placeholder("Karolina Kowalska"), lifecycle.Placeholder("Karolina Kowalska"))
		s.NotEqual(lifecycle.Placeholder("Karolina Kowalska"), lifecycle.Placeholder("Jan Nowak"))
		s.NotContains(lifecycle.Placeholder("Karolina Kowalska"), "Karolina")
	})

	s.Run("completion entry is tagged with the minimization purpose", func() {
		entries, err := m.Log.ListAuditBySubject(s.ctx, id.SubjectID("patient-1"))
		s.Require().NoError(err)
		s.Require().NotEmpty(entries)
		last := entries[len(entries)-1]
		s.Equal("gdpr:data_minimization", last.Detail)
		s.Equal("allow", last.Outcome)
	})

	s.Run("nurse may not anonymize", func() {
		err := m.Manager.Anonymize(s.ctx, id.SubjectID("patient-1"), id.UserID("nurse-1"))
		s.True(dErrors.HasCode(err, dErrors.CodeRoleNotAuthorized))
	})

	s.Run("unknown subject yields not found", func() {
		err := m.Manager.Anonymize(s.ctx, id.SubjectID("patient-1"), id.UserID("admin-1"))
		s.NoError(err) // admin path still works on existing data

		err = m.Manager.Anonymize(s.ctx, id.SubjectID("patient-404"), id.UserID("admin-1"))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Erasure
// =============================================================================

func (s *ManagerSuite) TestErase() {
	m := s.manager
	subject := id.SubjectID("patient-1")

	s.Require().NoError(m.Ledger.Grant(s.ctx, subject, s.now.Add(-time.Hour)))
	s.Require().NoError(m.Manager.Erase(s.ctx, subject, id.UserID("admin-1")))

	s.Run("tombstone exists and carries no raw identifier", func() {
		t, err := m.Manager.TombstoneOf(s.ctx, subject)
		s.Require().NoError(err)
		s.Equal(lifecycle.SubjectHash(subject), t.SubjectHash)
		s.NotContains(t.SubjectHash, "patient-1")
		s.Equal(id.UserID("admin-1"), t.ActorID)
		s.Equal(s.now, t.ErasedAt)
	})

	s.Run("patient data is unlinked", func() {
		_, ok := m.Directory.Fields(subject)
		s.False(ok)
	})

	s.Run("consent record is wiped", func() {
		_, err := m.Ledger.HistoryOf(s.ctx, subject)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("subsequent checks deny with subject erased", func() {
		result, err := m.Guard.Check(s.ctx, guard.CheckRequest{
			UserID:   id.UserID("doctor-1"),
			Action:   policy.ActionRead,
			Resource: policy.ResourcePatientRecord,
			OwnerID:  subject,
		})
		s.Require().NoError(err)
		s.Equal(policy.DecisionDeny, result.Decision)
		s.Equal(guard.ReasonSubjectErased, result.Reason)
	})

	s.Run("stale consent can never resurface access", func() {
		// Granting consent for an erased subject is itself rejected.
		err := m.Guard.GrantConsent(s.ctx, id.UserID("doctor-1"), subject)
		s.True(dErrors.HasCode(err, dErrors.CodeSubjectErased))
	})

	s.Run("second erasure is rejected as already erased", func() {
		err := m.Manager.Erase(s.ctx, subject, id.UserID("admin-1"))
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyErased))
	})

	s.Run("prior audit entries for the subject survive erasure", func() {
		entries, err := m.Log.ListAuditBySubject(s.ctx, subject)
		s.Require().NoError(err)
		s.NotEmpty(entries, "the record that access happened outlives the data")

		var foundCompletion bool
		for _, e := range entries {
			if e.Detail == "gdpr:right_to_be_forgotten" {
				foundCompletion = true
			}
		}
		s.True(foundCompletion)
	})
}

func (s *ManagerSuite) TestEraseAuthorization() {
	m := s.manager

	s.Run("doctor may not erase under the default table", func() {
		err := m.Manager.Erase(s.ctx, id.SubjectID("patient-1"), id.UserID("doctor-1"))
		s.True(dErrors.HasCode(err, dErrors.CodeRoleNotAuthorized))
	})

	s.Run("unknown actor may not erase", func() {
		err := m.Manager.Erase(s.ctx, id.SubjectID("patient-1"), id.UserID("ghost"))
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownUser))
	})

	s.Run("denied attempts are audited", func() {
		entries, err := m.Log.ListAuditBySubject(s.ctx, id.SubjectID("patient-1"))
		s.Require().NoError(err)
		s.Require().NotEmpty(entries)
		s.Equal("deny", entries[len(entries)-1].Outcome)
	})
}

func (s *ManagerSuite) TestEraseRunsThroughAtomicRunner() {
	m := s.manager
	subject := id.SubjectID("patient-1")

	s.Run("a rejecting runner leaves the subject untouched", func() {
		rejected := errors.New("transaction begin failed")
		manager := s.managerWithAtomic(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return rejected
		})
		err := manager.Erase(s.ctx, subject, id.UserID("admin-1"))
		s.Require().ErrorIs(err, rejected)

		_, ok := m.Directory.Fields(subject)
		s.True(ok, "directory entry must survive a failed transaction")
		erased, err := m.Tombstones.IsErased(s.ctx, subject)
		s.Require().NoError(err)
		s.False(erased)
	})

	s.Run("the whole sequence runs inside one runner invocation", func() {
		var calls int
		manager := s.managerWithAtomic(func(ctx context.Context, fn func(ctx context.Context) error) error {
			calls++
			return fn(ctx)
		})
		s.Require().NoError(manager.Erase(s.ctx, subject, id.UserID("admin-1")))
		s.Equal(1, calls)

		_, ok := m.Directory.Fields(subject)
		s.False(ok)
		erased, err := m.Tombstones.IsErased(s.ctx, subject)
		s.Require().NoError(err)
		s.True(erased)
	})
}

// managerWithAtomic rebuilds the fixture's manager around a custom atomic
// runner, sharing every other collaborator.
func (s *ManagerSuite) managerWithAtomic(atomic lifecycle.AtomicRunner) *lifecycle.Manager {
	m := s.manager
	manager, err := lifecycle.NewManager(lifecycle.Config{
		Guard:      m.Guard,
		Tombstones: m.Tombstones,
		Directory:  m.Directory,
		Consents:   m.Ledger,
		Log:        m.Log,
		Locks:      s.locks,
		Clock:      func() time.Time { return s.now },
		Atomic:     atomic,
	})
	s.Require().NoError(err)
	return manager
}

func (s *ManagerSuite) TestNewManagerValidation() {
	_, err := lifecycle.NewManager(lifecycle.Config{})
	s.Require().Error(err)
}

// =============================================================================
// Directory Failure Paths (gomock)
// =============================================================================

func TestEraseDirectoryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	registry, err := identity.NewRegistry(identity.NewInMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(ctx, identity.User{ID: id.UserID("admin-1"), Role: identity.RoleAdmin}); err != nil {
		t.Fatal(err)
	}
	ledger, err := consent.NewLedger(consent.NewInMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	log, err := audit.NewLog(audit.NewInMemoryAuditSink(), audit.NewInMemorySecuritySink())
	if err != nil {
		t.Fatal(err)
	}
	tombstones := lifecycle.NewInMemoryTombstoneStore()
	locks := keyedlock.New()
	g, err := guard.New(guard.Config{
		Roles:    registry,
		Table:    policy.DefaultTable(),
		Consents: ledger,
		Erasures: tombstones,
		Windows:  window.NewInMemoryStore(),
		Log:      log,
		Locks:    locks,
	})
	if err != nil {
		t.Fatal(err)
	}

	subject := id.SubjectID("patient-1")
	directory := mocks.NewMockPatientDirectory(ctrl)
	gomock.InOrder(
		directory.EXPECT().Unlink(gomock.Any(), subject).Return(errors.New("directory unreachable")),
		directory.EXPECT().Unlink(gomock.Any(), subject).Return(nil),
	)

	manager, err := lifecycle.NewManager(lifecycle.Config{
		Guard:      g,
		Tombstones: tombstones,
		Directory:  directory,
		Consents:   ledger,
		Log:        log,
		Locks:      locks,
	})
	if err != nil {
		t.Fatal(err)
	}

	err = manager.Erase(ctx, subject, id.UserID("admin-1"))
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected CodeInternal, got %v", err)
	}

	// A failed unlink leaves no tombstone: the subject must stay erasable
	// rather than stranded half-erased behind a SubjectErased denial.
	erased, err := tombstones.IsErased(ctx, subject)
	if err != nil {
		t.Fatal(err)
	}
	if erased {
		t.Fatal("tombstone written before the unlink completed")
	}

	if err := manager.Erase(ctx, subject, id.UserID("admin-1")); err != nil {
		t.Fatalf("retry after transient directory failure: %v", err)
	}
	erased, err = tombstones.IsErased(ctx, subject)
	if err != nil {
		t.Fatal(err)
	}
	if !erased {
		t.Fatal("retry did not complete the erasure")
	}

	// Third attempt hits the tombstone; the mock would flag a third Unlink.
	err = manager.Erase(ctx, subject, id.UserID("admin-1"))
	if !dErrors.HasCode(err, dErrors.CodeAlreadyErased) {
		t.Fatalf("expected CodeAlreadyErased, got %v", err)
	}
}
