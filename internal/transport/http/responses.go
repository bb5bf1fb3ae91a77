package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "caregate/pkg/domain-errors"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil || status == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
	// Description stays generic for authorization failures: structured
	// reason codes are for the log, not for probing callers.
	Description string `json:"error_description,omitempty"`
}

// writeError centralizes domain error translation to HTTP responses so every
// handler returns the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := http.StatusInternalServerError
	description := ""
	switch code {
	case dErrors.CodeInvalidInput:
		status = http.StatusBadRequest
		description = "invalid request"
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeDuplicateUser, dErrors.CodeConflict:
		status = http.StatusConflict
	case dErrors.CodeAlreadyErased:
		status = http.StatusConflict
		description = "subject already erased"
	case dErrors.CodeUnknownUser, dErrors.CodeRoleNotAuthorized, dErrors.CodeConsentMissing:
		status = http.StatusForbidden
		description = "operation not permitted"
	case dErrors.CodeSubjectErased:
		status = http.StatusGone
	case dErrors.CodeAuditUnavailable:
		status = http.StatusServiceUnavailable
		description = "operation denied: audit log unavailable"
	}
	writeJSON(w, status, errorResponse{Error: string(code), Description: description})
}
