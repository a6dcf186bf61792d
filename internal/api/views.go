package api

import (
	"time"

	"example.com/genid/internal/domain"
	"example.com/genid/internal/scoring"
)

// UserView exposes a profile row.
type UserView struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityView exposes one logged day with its score.
type ActivityView struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ActivityDate   string    `json:"activity_date"`
	Steps          int       `json:"steps"`
	Pushups        int       `json:"pushups"`
	WorkoutMinutes int       `json:"workout_minutes"`
	Score          int       `json:"score"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Username       string    `json:"username,omitempty"`
	DisplayName    string    `json:"display_name,omitempty"`
}

// GenIDView exposes an identifier.
type GenIDView struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ShortID     string    `json:"short_id"`
	Display     string    `json:"display"`
	PublicCode  string    `json:"public_code"`
	Legacy      bool      `json:"legacy"`
	CreatedAt   time.Time `json:"created_at"`
	Username    string    `json:"username,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
}

// DashboardView is the owner's home screen.
type DashboardView struct {
	User              UserView        `json:"user"`
	GenID             *GenIDView      `json:"genid,omitempty"`
	NeedsRegeneration bool            `json:"needs_regeneration"`
	Activities        []ActivityView  `json:"activities"`
	Stats             scoring.Stats   `json:"stats"`
	Badges            []scoring.Badge `json:"badges"`
}

// ListActivitiesResponse packages admin list results.
type ListActivitiesResponse struct {
	Items      []ActivityView `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// IssueGenIDResponse describes a freshly issued GenID.
type IssueGenIDResponse struct {
	GenID        GenIDView `json:"genid"`
	UsedFallback bool      `json:"used_fallback"`
}

// MemberView is the registration response.
type MemberView struct {
	Success   bool   `json:"success"`
	MemberID  string `json:"member_id"`
	CardURL   string `json:"card_url"`
	IssueDate string `json:"issue_date"`
}

// HealthDataView reports a stored health record without its payload.
type HealthDataView struct {
	Success   bool      `json:"success"`
	MemberID  string    `json:"member_id"`
	DataHash  string    `json:"data_hash"`
	Timestamp time.Time `json:"timestamp"`
	HasData   bool      `json:"has_data,omitempty"`
}

func toUserView(u domain.User) UserView {
	return UserView{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toActivityView(a domain.Activity) ActivityView {
	return ActivityView{
		ID:             a.ID,
		UserID:         a.UserID,
		ActivityDate:   a.Date.Format(dateLayout),
		Steps:          a.Counters.Steps,
		Pushups:        a.Counters.Pushups,
		WorkoutMinutes: a.Counters.WorkoutMinutes,
		Score:          a.Score(),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toActivityViews(activities []domain.Activity) []ActivityView {
	out := make([]ActivityView, 0, len(activities))
	for _, a := range activities {
		out = append(out, toActivityView(a))
	}
	return out
}

func toGenIDView(g domain.Identifier) GenIDView {
	return GenIDView{
		ID:         g.ID,
		UserID:     g.UserID,
		ShortID:    g.ShortID,
		Display:    g.DisplayShortID(),
		PublicCode: g.PublicCode,
		Legacy:     g.IsLegacy(),
		CreatedAt:  g.CreatedAt,
	}
}
