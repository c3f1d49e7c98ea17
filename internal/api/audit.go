package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/spaceapi-core/internal/audit"
)

// handleListAudit returns recent sensor write attempts.
//
// Query parameters:
//   - sensor: filter by sensor key
//   - outcome: accepted or rejected
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		SensorKey: q.Get("sensor"),
		Outcome:   audit.Outcome(q.Get("outcome")),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit entries failed", "error", err)
		writeInternalError(w, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
