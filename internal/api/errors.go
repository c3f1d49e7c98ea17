package api

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Messages returned to clients.
const (
	msgInvalidSession   = "invalid or expired session"
	msgUnknownSensor    = "unknown sensor"
	msgInvalidValue     = "invalid value"
	msgInvalidSignature = "malformed signature"
	msgInvalidBody      = "invalid request body"
	msgStoreUnavailable = "datastore unavailable"
	msgInternal         = "internal server error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes the {"status":"error","reason":...} envelope.
func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, ErrorResponse{Status: "error", Reason: reason})
}

func writeBadRequest(w http.ResponseWriter, reason string) {
	writeError(w, http.StatusBadRequest, reason)
}

func writeUnauthorized(w http.ResponseWriter, reason string) {
	writeError(w, http.StatusUnauthorized, reason)
}

func writeInternalError(w http.ResponseWriter, reason string) {
	writeError(w, http.StatusInternalServerError, reason)
}
