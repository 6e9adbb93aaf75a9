package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"delivery-dispatch-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("encode response failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinels onto HTTP statuses. Unrecognized
// errors become opaque 500s; their detail stays in the server log.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "operation not allowed for this role")
	case errors.Is(err, domain.ErrRouteLocked):
		writeError(w, r, http.StatusConflict, "route is locked")
	case errors.Is(err, domain.ErrStaleTransition):
		writeError(w, r, http.StatusConflict, "state changed concurrently, refresh and retry")
	case errors.Is(err, domain.ErrEmptySelection):
		writeError(w, r, http.StatusBadRequest, "at least one order is required")
	case errors.Is(err, domain.ErrInvalidSequence):
		writeError(w, r, http.StatusBadRequest, "stop ids must be a permutation of the route's stops")
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// actorFrom builds the acting identity from trusted gateway headers. The
// console sits behind auth; this service only needs name and role.
func actorFrom(r *http.Request) domain.Actor {
	actor := domain.Actor{
		Name: r.Header.Get("X-Actor-Name"),
		Role: domain.RoleDriver,
	}
	if r.Header.Get("X-Actor-Role") == string(domain.RoleDispatcher) {
		actor.Role = domain.RoleDispatcher
	}
	return actor
}

// dayFrom parses a YYYY-MM-DD query parameter, defaulting to today.
func dayFrom(r *http.Request, param string) (time.Time, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", raw)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
