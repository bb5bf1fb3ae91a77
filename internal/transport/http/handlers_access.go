package httptransport

import (
	"encoding/json"
	"net/http"

	"caregate/internal/guard"
	"caregate/internal/platform/middleware"
	"caregate/internal/policy"
	id "caregate/pkg/domain"
	dErrors "caregate/pkg/domain-errors"
)

type checkRequest struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
	OwnerID  string `json:"owner_id,omitempty"`
}

type checkResponse struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// handleCheck evaluates one access attempt for the authenticated caller. The
// acting user always comes from the identity assertion, never from the body.
func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed request body"))
		return
	}

	action, err := policy.ParseAction(req.Action)
	if err != nil {
		writeError(w, err)
		return
	}
	resource, err := policy.ParseResourceType(req.Resource)
	if err != nil {
		writeError(w, err)
		return
	}
	var ownerID id.SubjectID
	if req.OwnerID != "" {
		ownerID, err = id.ParseSubjectID(req.OwnerID)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	result, err := h.guard.Check(ctx, guard.CheckRequest{
		UserID:   actorID,
		Action:   action,
		Resource: resource,
		OwnerID:  ownerID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{
		Decision: result.Decision.String(),
		Reason:   result.Reason.String(),
	})
}
