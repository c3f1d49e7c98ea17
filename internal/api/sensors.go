package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/spaceapi-core/internal/audit"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/kvstore"
	"github.com/nerrad567/spaceapi-core/internal/notify"
	"github.com/nerrad567/spaceapi-core/internal/sensor"
	"github.com/nerrad567/spaceapi-core/internal/session"
)

// UpdateRequest is the body of PUT /sensors/{sensor}. It is accepted as
// JSON or as a form with the same field names.
type UpdateRequest struct {
	Value     string `json:"value"`
	SessionID string `json:"session_id"`
	Signature string `json:"signature"`
}

// handleCreateSession issues a single-use update session for a sensor.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "sensor")

	token, err := s.sessions.Create(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrUnknownSensor):
			writeBadRequest(w, msgUnknownSensor)
		case errors.Is(err, session.ErrUnavailable):
			s.logger.Error("creating session failed", "sensor", key, "error", err)
			writeInternalError(w, msgStoreUnavailable)
		default:
			s.logger.Error("creating session failed", "sensor", key, "error", err)
			writeInternalError(w, msgInternal)
		}
		return
	}

	s.logger.Debug("session created", "sensor", key, "session_id", token.SessionID)
	writeJSON(w, http.StatusCreated, token)
}

// handleUpdateSensor verifies a signed update, consumes its session and
// stores the value.
//
// The value is checked against the sensor's template before the session is
// touched, so a malformed value does not burn the session.
func (s *Server) handleUpdateSensor(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "sensor")
	ev := notify.Event{
		SensorKey:  key,
		Source:     audit.SourceHTTP,
		RemoteAddr: r.RemoteAddr,
	}
	reject := func(status int, reason string) {
		ev.Outcome = audit.OutcomeRejected
		ev.Reason = reason
		s.notifier.Notify(r.Context(), ev)
		writeError(w, status, reason)
	}

	req, err := decodeUpdateRequest(r)
	if err != nil {
		reject(http.StatusBadRequest, msgInvalidBody)
		return
	}
	ev.SessionID = req.SessionID

	spec, ok := s.registry.Lookup(key)
	if !ok {
		reject(http.StatusBadRequest, msgUnknownSensor)
		return
	}
	ev.Kind = string(spec.Template.Kind())
	ev.Location = spec.Template.Describe().Location

	if err := spec.Template.Validate(req.Value); err != nil {
		reject(http.StatusBadRequest, msgInvalidValue)
		return
	}

	if err := s.sessions.VerifyAndConsume(r.Context(), req.SessionID, req.Signature, key, req.Value); err != nil {
		switch {
		case session.IsAuthFailure(err):
			s.logger.Info("sensor update rejected", "sensor", key, "error", err)
			reject(http.StatusUnauthorized, msgInvalidSession)
		case errors.Is(err, session.ErrMalformedSignature):
			reject(http.StatusBadRequest, msgInvalidSignature)
		case errors.Is(err, session.ErrUnknownSensor):
			reject(http.StatusBadRequest, msgUnknownSensor)
		default:
			s.logger.Error("verifying session failed", "sensor", key, "error", err)
			reject(http.StatusInternalServerError, msgStoreUnavailable)
		}
		return
	}

	if err := s.registry.Update(r.Context(), key, req.Value); err != nil {
		switch {
		case errors.Is(err, sensor.ErrUnknownSensor):
			reject(http.StatusBadRequest, msgUnknownSensor)
		case errors.Is(err, sensor.ErrInvalidValue):
			reject(http.StatusBadRequest, msgInvalidValue)
		case errors.Is(err, kvstore.ErrUnavailable), errors.Is(err, kvstore.ErrBackend):
			s.logger.Error("storing sensor value failed", "sensor", key, "error", err)
			reject(http.StatusInternalServerError, msgStoreUnavailable)
		default:
			s.logger.Error("storing sensor value failed", "sensor", key, "error", err)
			reject(http.StatusInternalServerError, msgInternal)
		}
		return
	}

	ev.Outcome = audit.OutcomeAccepted
	ev.Value = req.Value
	s.notifier.Notify(r.Context(), ev)

	s.logger.Info("sensor updated", "sensor", key, "request_id", requestIDFrom(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// decodeUpdateRequest reads a JSON or form-encoded update body.
func decodeUpdateRequest(r *http.Request) (UpdateRequest, error) {
	var req UpdateRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")) //nolint:errcheck // empty type falls through to JSON
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Value = r.PostForm.Get("value")
		req.SessionID = r.PostForm.Get("session_id")
		req.Signature = r.PostForm.Get("signature")
		return req, nil
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}
