package api

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"example.com/genid/internal/auth"
	"example.com/genid/internal/domain"
	"example.com/genid/internal/persistence"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminActivityPatch is the payload for PATCH /v1/admin/activities/{id}.
type AdminActivityPatch struct {
	ActivityDate   *string `json:"activity_date,omitempty"`
	Steps          *int    `json:"steps,omitempty"`
	Pushups        *int    `json:"pushups,omitempty"`
	WorkoutMinutes *int    `json:"workout_minutes,omitempty"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	items := make([]UserView, 0, len(users))
	for _, u := range users {
		items = append(items, toUserView(u))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) adminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

func (h *Handler) eradicateUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	report, err := h.eradicator.Begin(userID).Run(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"admin_id": auth.CallerID(r.Context()),
		"success":  report.Success,
	}).Info("account eradication finished")
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) verifyUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eradicator.Verify(r.Context(), r.PathValue("id")))
}

func (h *Handler) forceCleanup(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eradicator.ForceCleanup(r.Context(), r.PathValue("id")))
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.eradicator.Audit(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": entries})
}

func (h *Handler) listRecentActivities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultPageSize
	if raw := query.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		if v > maxPageSize {
			v = maxPageSize
		}
		limit = v
	}

	cursor, err := persistence.DecodeCursor(query.Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rows, next, err := h.activities.ListRecent(r.Context(), cursor, limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	items := make([]ActivityView, 0, len(rows))
	for _, row := range rows {
		view := toActivityView(row.Activity)
		view.Username = row.Username
		view.DisplayName = row.DisplayName
		items = append(items, view)
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{Items: items, NextCursor: persistence.EncodeCursor(next)})
}

func (h *Handler) adminUpdateActivity(w http.ResponseWriter, r *http.Request) {
	var req AdminActivityPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	patch := domain.ActivityPatch{Steps: req.Steps, Pushups: req.Pushups, WorkoutMinutes: req.WorkoutMinutes}
	if req.ActivityDate != nil {
		date, err := parseDate(*req.ActivityDate)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		patch.Date = &date
	}
	activity, err := h.activities.UpdateByID(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) adminDeleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := h.activities.DeleteByID(r.Context(), r.PathValue("id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listGenIDs(w http.ResponseWriter, r *http.Request) {
	rows, err := h.identifiers.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	items := make([]GenIDView, 0, len(rows))
	for _, row := range rows {
		view := toGenIDView(row.Identifier)
		view.Username = row.Username
		view.DisplayName = row.DisplayName
		view.Email = row.Email
		items = append(items, view)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) deleteGenID(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.identifiers.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGenIDView(*deleted))
}
