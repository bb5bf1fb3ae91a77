package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"caregate/internal/consent"
	"caregate/internal/platform/middleware"
	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
)

type consentMutationRequest struct {
	SubjectID string `json:"subject_id"`
}

type consentTransitionResponse struct {
	State string    `json:"state"`
	At    time.Time `json:"at"`
}

type consentHistoryResponse struct {
	SubjectID string                      `json:"subject_id"`
	Current   string                      `json:"current"`
	ChangedAt time.Time                   `json:"changed_at"`
	History   []consentTransitionResponse `json:"history"`
}

func (h *Handler) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	h.mutateConsent(w, r, h.guard.GrantConsent)
}

func (h *Handler) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	h.mutateConsent(w, r, h.guard.RevokeConsent)
}

func (h *Handler) mutateConsent(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, actorID id.UserID, subjectID id.SubjectID) error,
) {
	ctx := r.Context()

	actorID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	var req consentMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed request body"))
		return
	}
	subjectID, err := id.ParseSubjectID(req.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := op(ctx, actorID, subjectID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleConsentHistory returns the full transition history for a subject.
// Reading consent state is itself a guarded read of patient data.
func (h *Handler) handleConsentHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.requireAllowed(ctx, actorID, readPatientRecord(subjectID)); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.consents.HistoryOf(ctx, subjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConsentHistoryResponse(record))
}

func toConsentHistoryResponse(record consent.Record) consentHistoryResponse {
	resp := consentHistoryResponse{
		SubjectID: record.SubjectID.String(),
		Current:   string(record.Current),
		ChangedAt: record.ChangedAt,
		History:   make([]consentTransitionResponse, 0, len(record.History)),
	}
	for _, t := range record.History {
		resp.History = append(resp.History, consentTransitionResponse{
			State: string(t.State),
			At:    t.At,
		})
	}
	return resp
}
