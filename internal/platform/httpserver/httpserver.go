package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults. Per-request deadlines are
// enforced by the router's timeout middleware; these limits only bound
// slow or idle connections.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
