package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/patrickspencer/cronhive/internal/config"
	"github.com/patrickspencer/cronhive/internal/inventory"
	"github.com/patrickspencer/cronhive/internal/logs"
	"github.com/patrickspencer/cronhive/internal/realtime"
	"github.com/patrickspencer/cronhive/internal/store"
)

// API holds dependencies for all API handlers.
type API struct {
	// Report returns the latest inventory, or nil before the first scan.
	Report      func() *inventory.Report
	Runs        store.RunReader
	Events      *realtime.Broker
	GetConfig   func() *config.Config
	NextRunTime func(key string) (time.Time, bool)
	Now         func() time.Time
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/jobs/", a.routeJobs)
	mux.HandleFunc("/api/v1/jobs", a.handleListJobs)
	mux.HandleFunc("/api/v1/report", a.handleReport)
	mux.HandleFunc("/api/v1/validate", a.handleValidate)
	mux.HandleFunc("/api/v1/events", a.handleEvents)
	mux.HandleFunc("/api/v1/config", a.handleConfig)
	mux.HandleFunc("/api/v1/health", a.handleHealth)
}

// routeJobs dispatches /api/v1/jobs/{name} requests.
func (a *API) routeJobs(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/"), "/")
	if name == "" {
		a.handleListJobs(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	a.handleGetJob(w, r, name)
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *API) report() *inventory.Report {
	if a.Report == nil {
		return nil
	}
	return a.Report()
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logs.Error("failed to write JSON response: %v", err)
	}
}
