package api

import "net/http"

type healthResponse struct {
	Status     string `json:"status"`
	LastScan   string `json:"last_scan,omitempty"`
	Jobs       int    `json:"jobs"`
	DeadJobs   int    `json:"dead_jobs"`
	Subscribed int    `json:"subscribers"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if rep := a.report(); rep != nil {
		resp.LastScan = rep.GeneratedAt
		resp.Jobs = rep.Total
		resp.DeadJobs = rep.Dead
	}
	if a.Events != nil {
		resp.Subscribed = a.Events.Subscribers()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if a.GetConfig == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "config provider unavailable"})
		return
	}

	cfg := a.GetConfig()
	if cfg == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "config unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	rep := a.report()
	if rep == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no scan has completed yet"})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
