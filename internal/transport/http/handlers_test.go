package httptransport_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"caregate/internal/audit"
	"caregate/internal/consent"
	"caregate/internal/guard"
	"caregate/internal/guard/store/window"
	"caregate/internal/identity"
	"caregate/internal/lifecycle"
	"caregate/internal/policy"
	httptransport "caregate/internal/transport/http"
	id "caregate/pkg/domain"
	"caregate/pkg/platform/keyedlock"
	"caregate/pkg/testutil"
)

// passthroughValidator treats the bearer token itself as the asserted user
// id, so tests pick the acting user via the Authorization header.
type passthroughValidator struct{}

func (passthroughValidator) Validate(token string) (string, error) {
	if token == "invalid" {
		return "", errors.New("bad assertion")
	}
	return token, nil
}

type TransportSuite struct {
	suite.Suite
	router    http.Handler
	ledger    *consent.Ledger
	directory *lifecycle.InMemoryDirectory
	ctx       context.Context
}

func TestTransportSuite(t *testing.T) {
	suite.Run(t, new(TransportSuite))
}

func (s *TransportSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

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

	s.ledger, err = consent.NewLedger(consent.NewInMemoryStore())
	s.Require().NoError(err)

	log, err := audit.NewLog(audit.NewInMemoryAuditSink(), audit.NewInMemorySecuritySink())
	s.Require().NoError(err)

	tombstones := lifecycle.NewInMemoryTombstoneStore()
	locks := keyedlock.New()

	g, err := guard.New(guard.Config{
		Roles:    registry,
		Table:    policy.DefaultTable(),
		Consents: s.ledger,
		Erasures: tombstones,
		Windows:  window.NewInMemoryStore(),
		Log:      log,
		Locks:    locks,
		Logger:   logger,
	})
	s.Require().NoError(err)

	s.directory = lifecycle.NewInMemoryDirectory()
	s.directory.Put(id.SubjectID("patient-1"), map[string]string{"name": "Patient One"})

	manager, err := lifecycle.NewManager(lifecycle.Config{
		Guard:      g,
		Tombstones: tombstones,
		Directory:  s.directory,
		Consents:   s.ledger,
		Log:        log,
		Locks:      locks,
		Logger:     logger,
	})
	s.Require().NoError(err)

	handler := httptransport.NewHandler(logger, g, s.ledger, log, manager)
	s.router = httptransport.NewRouter(handler, passthroughValidator{})
}

func (s *TransportSuite) do(user, method, path string, body any) *http.Request {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+user)
	}
	return req
}

func (s *TransportSuite) grantConsent(subject string) {
	s.Require().NoError(s.ledger.Grant(s.ctx, id.SubjectID(subject), time.Now()))
}

// =============================================================================
// Access Checks
// =============================================================================

func (s *TransportSuite) TestAccessCheck() {
	s.Run("allowed check returns the decision", func() {
		s.grantConsent("patient-1")
		rr := testutil.DoRequest(s.router, s.do("doctor-1", http.MethodPost, "/access/check", map[string]string{
			"action":   "read",
			"resource": "patient_record",
			"owner_id": "patient-1",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
		s.Equal("allow", (*resp)["decision"])
		s.Equal("permitted", (*resp)["reason"])
	})

	s.Run("denied check still returns 200 with the decision", func() {
		rr := testutil.DoRequest(s.router, s.do("nurse-1", http.MethodPost, "/access/check", map[string]string{
			"action":   "delete",
			"resource": "clinical_note",
			"owner_id": "patient-1",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
		s.Equal("deny", (*resp)["decision"])
		s.Equal("role_not_authorized", (*resp)["reason"])
	})

	s.Run("unsupported action is a bad request", func() {
		rr := testutil.DoRequest(s.router, s.do("doctor-1", http.MethodPost, "/access/check", map[string]string{
			"action":   "drop_table",
			"resource": "patient_record",
			"owner_id": "patient-1",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertErrorCode(s.T(), rr, "invalid_input")
	})

	s.Run("patient data without owner id is a bad request", func() {
		rr := testutil.DoRequest(s.router, s.do("doctor-1", http.MethodPost, "/access/check", map[string]string{
			"action":   "read",
			"resource": "patient_record",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("missing assertion is unauthorized", func() {
		rr := testutil.DoRequest(s.router, s.do("", http.MethodPost, "/access/check", map[string]string{
			"action":   "read",
			"resource": "patient_record",
			"owner_id": "patient-1",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}

// =============================================================================
// Consent
// =============================================================================

func (s *TransportSuite) TestConsentEndpoints() {
	s.Run("patient grants own consent", func() {
		rr := testutil.DoRequest(s.router, s.do("patient-1", http.MethodPost, "/consent/grant", map[string]string{
			"subject_id": "patient-1",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("nurse cannot grant consent", func() {
		rr := testutil.DoRequest(s.router, s.do("nurse-1", http.MethodPost, "/consent/grant", map[string]string{
			"subject_id": "patient-1",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
		testutil.AssertErrorCode(s.T(), rr, "role_not_authorized")
	})

	s.Run("history requires an authorized, consented read", func() {
		rr := testutil.DoRequest(s.router, s.do("admin-1", http.MethodGet, "/consent/patient-1", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[struct {
			SubjectID string `json:"subject_id"`
			Current   string `json:"current"`
			History   []struct {
				State string `json:"state"`
			} `json:"history"`
		}](s.T(), rr)
		s.Equal("patient-1", resp.SubjectID)
		s.Equal("granted", resp.Current)
		s.Len(resp.History, 1)
	})

	s.Run("revoke then grant builds history", func() {
		rr := testutil.DoRequest(s.router, s.do("patient-1", http.MethodPost, "/consent/revoke", map[string]string{
			"subject_id": "patient-1",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

		record, err := s.ledger.HistoryOf(s.ctx, id.SubjectID("patient-1"))
		s.Require().NoError(err)
		s.Equal(consent.StateRevoked, record.Current)
		s.Len(record.History, 2)
	})

	s.Run("history of unknown subject is not found", func() {
		rr := testutil.DoRequest(s.router, s.do("admin-1", http.MethodGet, "/consent/patient-404", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})
}

// =============================================================================
// Audit Surfaces
// =============================================================================

func (s *TransportSuite) TestAuditEndpoints() {
	s.grantConsent("patient-1")
	// Produce a couple of entries.
	testutil.DoRequest(s.router, s.do("doctor-1", http.MethodPost, "/access/check", map[string]string{
		"action": "read", "resource": "patient_record", "owner_id": "patient-1",
	}))
	testutil.DoRequest(s.router, s.do("nurse-1", http.MethodPost, "/access/check", map[string]string{
		"action": "delete", "resource": "clinical_note", "owner_id": "patient-1",
	}))

	s.Run("admin reads the audit stream", func() {
		rr := testutil.DoRequest(s.router, s.do("admin-1", http.MethodGet, "/audit", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		entries := testutil.UnmarshalResponse[[]map[string]any](s.T(), rr)
		// Two checks above plus the admin's own audited audit-log read.
		s.GreaterOrEqual(len(*entries), 2)
	})

	s.Run("subject filter narrows the stream", func() {
		rr := testutil.DoRequest(s.router, s.do("admin-1", http.MethodGet, "/audit?subject_id=patient-1", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		entries := testutil.UnmarshalResponse[[]map[string]any](s.T(), rr)
		for _, e := range *entries {
			s.Equal("patient-1", e["resource_id"])
		}
	})

	s.Run("doctor may not read the audit stream", func() {
		rr := testutil.DoRequest(s.router, s.do("doctor-1", http.MethodGet, "/audit", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})

	s.Run("admin reads the security stream", func() {
		rr := testutil.DoRequest(s.router, s.do("admin-1", http.MethodGet, "/audit/security", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}

// =============================================================================
// Lifecycle
// =============================================================================

func (s *TransportSuite) TestLifecycleEndpoints() {
	s.grantConsent("patient-1")

	s.Run("doctor anonymizes", func() {
		rr := testutil.DoRequest(s.router, s.do("doctor-1", http.MethodPost, "/lifecycle/anonymize", map[string]string{
			"subject_id": "patient-1",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("admin erases", func() {
		rr := testutil.DoRequest(s.router, s.do("admin-1", http.MethodPost, "/lifecycle/erase", map[string]string{
			"subject_id": "patient-1",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("second erase conflicts", func() {
		rr := testutil.DoRequest(s.router, s.do("admin-1", http.MethodPost, "/lifecycle/erase", map[string]string{
			"subject_id": "patient-1",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
		testutil.AssertErrorCode(s.T(), rr, "already_erased")
	})

	s.Run("erased subject denies further checks", func() {
		rr := testutil.DoRequest(s.router, s.do("doctor-1", http.MethodPost, "/access/check", map[string]string{
			"action": "read", "resource": "patient_record", "owner_id": "patient-1",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
		s.Equal("deny", (*resp)["decision"])
		s.Equal("subject_erased", (*resp)["reason"])
	})

	s.Run("doctor may not erase", func() {
		rr := testutil.DoRequest(s.router, s.do("doctor-1", http.MethodPost, "/lifecycle/erase", map[string]string{
			"subject_id": "patient-2",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})
}

func (s *TransportSuite) TestHealthAndMetrics() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}
