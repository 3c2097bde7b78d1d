package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server for the operator and order-intake routes.
// ReadHeaderTimeout guards against slow-header clients; per-request
// deadlines are owned by the router's timeout middleware.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
