package api

import (
	"net/http"

	"example.com/genid/internal/domain"
)

// SetupRequest is the payload for POST /v1/me/setup.
type SetupRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// LogActivityRequest is the payload for logging or updating a day.
type LogActivityRequest struct {
	ActivityDate   string `json:"activity_date"`
	Steps          int    `json:"steps"`
	Pushups        int    `json:"pushups"`
	WorkoutMinutes int    `json:"workout_minutes"`
}

func (h *Handler) setupProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req SetupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.Setup(r.Context(), domain.SetupInput{
		UserID:      claims.Subject,
		Email:       claims.Email,
		Username:    req.Username,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserView(*user))
}

func (h *Handler) updateOwnProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req domain.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	// Owners change username and display name only; email follows the identity provider.
	req.Email = nil
	user, err := h.users.UpdateProfile(r.Context(), claims.Subject, req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	dash, err := h.profiles.Dashboard(r.Context(), claims.Subject)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	view := DashboardView{
		User:              toUserView(dash.User),
		NeedsRegeneration: dash.NeedsRegeneration,
		Activities:        toActivityViews(dash.Activities),
		Stats:             dash.Stats,
		Badges:            dash.Badges,
	}
	if dash.Identifier != nil {
		g := toGenIDView(*dash.Identifier)
		view.GenID = &g
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) listOwnActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	activities, err := h.activities.ListByUser(r.Context(), claims.Subject)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": toActivityViews(activities)})
}

func (h *Handler) logActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req LogActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := activityInput(claims.Subject, req.ActivityDate, req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	activity, err := h.activities.Log(r.Context(), input)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityView(*activity))
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req LogActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := activityInput(claims.Subject, r.PathValue("date"), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if input.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "validation_failed", "activity_date: is required")
		return
	}
	activity, err := h.activities.Update(r.Context(), input)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) issueGenID(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	if _, err := h.users.Get(r.Context(), claims.Subject); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	result, err := h.issuer.Issue(r.Context(), claims.Subject)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IssueGenIDResponse{
		GenID:        toGenIDView(result.Identifier),
		UsedFallback: result.UsedFallback,
	})
}

func activityInput(userID, rawDate string, req LogActivityRequest) (domain.ActivityInput, error) {
	date, err := parseDate(rawDate)
	if err != nil {
		return domain.ActivityInput{}, err
	}
	return domain.ActivityInput{
		UserID:         userID,
		Date:           date,
		Steps:          req.Steps,
		Pushups:        req.Pushups,
		WorkoutMinutes: req.WorkoutMinutes,
	}, nil
}
