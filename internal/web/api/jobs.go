package api

import (
	"net/http"
	"time"

	"github.com/patrickspencer/cronhive/internal/inventory"
	"github.com/patrickspencer/cronhive/internal/logs"
	"github.com/patrickspencer/cronhive/internal/store"
)

type jobSummary struct {
	inventory.Entry
	Key           string     `json:"key"`
	ScheduledNext *time.Time `json:"scheduled_next,omitempty"`
}

type jobDetail struct {
	jobSummary
	Stats      *store.JobStats `json:"stats,omitempty"`
	RecentRuns []*store.Run    `json:"recent_runs,omitempty"`
}

func (a *API) summarize(e inventory.Entry) jobSummary {
	s := jobSummary{Entry: e, Key: e.Key()}
	if a.NextRunTime != nil {
		if next, ok := a.NextRunTime(s.Key); ok {
			s.ScheduledNext = &next
		}
	}
	return s
}

func (a *API) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rep := a.report()
	if rep == nil {
		writeJSON(w, http.StatusOK, []jobSummary{})
		return
	}

	deadOnly := r.URL.Query().Get("dead") == "true"
	result := make([]jobSummary, 0, len(rep.Jobs))
	for _, e := range rep.Jobs {
		if deadOnly && !e.Dead {
			continue
		}
		result = append(result, a.summarize(e))
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleGetJob(w http.ResponseWriter, r *http.Request, name string) {
	rep := a.report()
	if rep == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	e, ok := rep.Find(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	detail := jobDetail{jobSummary: a.summarize(e)}
	if a.Runs != nil {
		stats, err := a.Runs.GetJobStats(r.Context(), name)
		if err != nil {
			logs.Error("failed to get job stats for %s: %v", name, err)
		} else {
			detail.Stats = stats
		}
		runs, err := a.Runs.RecentRuns(r.Context(), name, 10)
		if err != nil {
			logs.Error("failed to list runs for %s: %v", name, err)
		} else {
			detail.RecentRuns = runs
		}
	}
	writeJSON(w, http.StatusOK, detail)
}
