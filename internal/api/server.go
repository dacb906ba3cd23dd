// Package api implements the JSON analysis API for leadlens.
package api

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// DefaultWriteTimeout bounds one response end to end. A full failover
// walk can cross several provider timeouts plus backoff pauses, so this
// stays well above a single provider call.
const DefaultWriteTimeout = 300 * time.Second

// Server wraps http.Server with leadlens configuration.
type Server struct {
	httpServer *http.Server
	addr       string
}

// NewServer creates a Server with timeouts sized for slow AI upstreams.
// Timeout rationale:
//   - ReadTimeout: 10s - protect against slowloris attacks
//   - WriteTimeout: writeTimeout, or DefaultWriteTimeout when <= 0
//   - IdleTimeout: 120s - reasonable keep-alive
//
// If enableHTTP2 is true, the handler is wrapped for HTTP/2 cleartext
// (h2c) so multiplexed clients work without TLS.
func NewServer(addr string, handler http.Handler, enableHTTP2 bool, writeTimeout time.Duration) *Server {
	finalHandler := handler
	if enableHTTP2 {
		h2s := &http2.Server{}
		finalHandler = h2c.NewHandler(handler, h2s)
	}

	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}

	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      finalHandler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: writeTimeout,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe starts the server (blocks).
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
