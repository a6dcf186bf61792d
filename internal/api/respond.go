package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/genid/internal/auth"
	"example.com/genid/internal/domain"
)

const dateLayout = "2006-01-02"

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeDomainError maps service errors onto problem responses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Error())
	case errors.Is(err, domain.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken", "username already taken")
	case errors.Is(err, domain.ErrProfileExists):
		writeError(w, http.StatusConflict, "profile_exists", "profile already set up")
	case errors.Is(err, domain.ErrActivityExists):
		writeError(w, http.StatusConflict, "activity_exists", "activity already logged for this date")
	case errors.Is(err, domain.ErrIdentifierExists):
		writeError(w, http.StatusConflict, "genid_exists", "genid already issued")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrIdentifierExhausted):
		writeError(w, http.StatusServiceUnavailable, "genid_exhausted", "no free genid available, try again later")
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	return true
}

// requireClaims returns the caller's claims or writes 401.
func requireClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	return claims, true
}

// admin wraps a handler so only admins reach it.
func (h *Handler) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}
		if !h.admins.Allows(claims) {
			writeError(w, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		next(w, r)
	}
}

// parseDate reads a YYYY-MM-DD date. An empty value yields the zero time.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: "activity_date", Reason: "must be YYYY-MM-DD"}
	}
	return t, nil
}
