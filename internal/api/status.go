package api

import (
	"net/http"
)

// handleStatus serves the assembled status document.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	body, err := s.status.Build(r.Context())
	if err != nil {
		s.logger.Error("building status document failed", "error", err)
		writeInternalError(w, msgInternal)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // Best-effort write to response
}
