package httptransport

import (
	"net/http"
	"time"

	"caregate/internal/audit"
	"caregate/internal/platform/middleware"
	id "caregate/pkg/domain"
)

type auditEntryResponse struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason"`
	Detail     string    `json:"detail,omitempty"`
}

type securityEventResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Detail    string    `json:"detail,omitempty"`
}

// handleListAudit returns the access audit stream, optionally filtered by
// subject. Reading the log is itself a guarded, audited operation.
func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.requireAllowed(ctx, actorID, viewAuditLog()); err != nil {
		writeError(w, err)
		return
	}

	var entries []audit.Entry
	if subject := r.URL.Query().Get("subject_id"); subject != "" {
		subjectID, err := id.ParseSubjectID(subject)
		if err != nil {
			writeError(w, err)
			return
		}
		entries, err = h.log.ListAuditBySubject(ctx, subjectID)
		if err != nil {
			writeError(w, err)
			return
		}
	} else {
		entries, err = h.log.ListAudit(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:         e.ID,
			Timestamp:  e.Timestamp,
			UserID:     e.UserID.String(),
			Action:     e.Action,
			Resource:   e.Resource,
			ResourceID: e.ResourceID.String(),
			Outcome:    e.Outcome,
			Reason:     e.Reason,
			Detail:     e.Detail,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListSecurity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, err := id.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.requireAllowed(ctx, actorID, viewAuditLog()); err != nil {
		writeError(w, err)
		return
	}

	events, err := h.log.ListSecurity(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]securityEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, securityEventResponse{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			UserID:    e.UserID.String(),
			Type:      string(e.Type),
			Severity:  string(e.Severity),
			Detail:    e.Detail,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
