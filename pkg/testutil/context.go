package testutil

import (
	"context"
	"net/http"

	"caregate/internal/platform/middleware"
)

// WithUserID adds an authenticated user id to the request context, simulating
// what the identity middleware does for validated requests.
func WithUserID(req *http.Request, userID string) *http.Request {
	if userID == "" {
		return req
	}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, userID)
	return req.WithContext(ctx)
}
