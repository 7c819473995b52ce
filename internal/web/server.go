// Package web serves the watch daemon's HTTP API and metrics.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/patrickspencer/cronhive/internal/logs"
	"github.com/patrickspencer/cronhive/internal/web/api"
)

// Server is the HTTP server for the CronHive API.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a Server exposing a's routes and, when metrics is not
// nil, a Prometheus endpoint at /metrics.
func NewServer(addr string, a *api.API, metrics http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(a, metrics),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewHandler builds the request router.
func NewHandler(a *api.API, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	a.RegisterRoutes(mux)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/api/v1/report", http.StatusTemporaryRedirect)
			return
		}
		http.NotFound(w, r)
	})
	return corsMiddleware(mux)
}

// Listen binds the server's address. Start calls it when needed.
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Start begins serving HTTP requests. It blocks until the server stops.
func (s *Server) Start() error {
	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}
	logs.Info("http server listening on %s", s.listener.Addr())
	return s.httpServer.Serve(s.listener)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware allows read-only cross-origin access to the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Last-Event-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
