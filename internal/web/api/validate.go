package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/patrickspencer/cronhive/internal/cronexpr"
	"github.com/patrickspencer/cronhive/internal/deadjob"
)

const (
	defaultNextCount = 5
	maxNextCount     = 100
)

type validateResponse struct {
	Expr     string      `json:"expr"`
	Valid    bool        `json:"valid"`
	Periodic bool        `json:"periodic"`
	Next     []time.Time `json:"next"`
	Error    string      `json:"error,omitempty"`
}

// handleValidate answers GET /api/v1/validate?expr=...&count=N[&from=TIME].
func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	q := r.URL.Query()
	expr := q.Get("expr")
	count := defaultNextCount
	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxNextCount {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "count must be between 0 and 100"})
			return
		}
		count = n
	}
	from := a.now()
	if raw := q.Get("from"); raw != "" {
		t, err := deadjob.ParseTime(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		from = t
	}

	resp := validateResponse{Expr: expr, Valid: cronexpr.Valid(expr), Next: []time.Time{}}
	s, err := cronexpr.Parse(expr)
	if err == nil && !resp.Valid {
		err = cronexpr.ErrInvalidSchedule
	}
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Periodic = s.Periodic()

	c := s.Cursor(from)
	for i := 0; i < count && resp.Periodic; i++ {
		next, err := c.Next()
		if err != nil {
			resp.Error = err.Error()
			break
		}
		resp.Next = append(resp.Next, next)
	}
	writeJSON(w, http.StatusOK, resp)
}
