package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"caregate/internal/platform/middleware"
	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
)

type lifecycleRequest struct {
	SubjectID string `json:"subject_id"`
}

func (h *Handler) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	h.runLifecycle(w, r, h.lifecycle.Anonymize)
}

func (h *Handler) handleErase(w http.ResponseWriter, r *http.Request) {
	h.runLifecycle(w, r, h.lifecycle.Erase)
}

func (h *Handler) runLifecycle(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, subjectID id.SubjectID, actingUserID id.UserID) error,
) {
	ctx := r.Context()

	actorID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	var req lifecycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed request body"))
		return
	}
	subjectID, err := id.ParseSubjectID(req.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := op(ctx, subjectID, actorID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
