// Package events defines the payloads published through the outbox.
package events

import "time"

// Event types.
const (
	TypeActivityLogged    = "activity.logged"
	TypeActivityUpdated   = "activity.updated"
	TypeGenIDIssued       = "genid.issued"
	TypeAccountEradicated = "account.eradicated"
)

// ActivityLogged is emitted when a user logs a new day.
type ActivityLogged struct {
	ActivityID     string    `json:"activity_id"`
	UserID         string    `json:"user_id"`
	ActivityDate   string    `json:"activity_date"`
	Steps          int       `json:"steps"`
	Pushups        int       `json:"pushups"`
	WorkoutMinutes int       `json:"workout_minutes"`
	Score          int       `json:"score"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ActivityUpdated is emitted when a logged day's counters or date change.
type ActivityUpdated struct {
	ActivityID     string    `json:"activity_id"`
	UserID         string    `json:"user_id"`
	ActivityDate   string    `json:"activity_date"`
	Steps          int       `json:"steps"`
	Pushups        int       `json:"pushups"`
	WorkoutMinutes int       `json:"workout_minutes"`
	Score          int       `json:"score"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// GenIDIssued is emitted when a user receives a GenID.
type GenIDIssued struct {
	IdentifierID string    `json:"identifier_id"`
	UserID       string    `json:"user_id"`
	ShortID      string    `json:"short_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// AccountEradicated is emitted when a user's profile row is removed.
type AccountEradicated struct {
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
