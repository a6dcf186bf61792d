package domain

import (
	"regexp"
	"time"

	"example.com/genid/internal/scoring"
)

// User is the profile row keyed by the identity provider's subject.
type User struct {
	ID          string
	Username    string
	DisplayName string
	Email       string
	CreatedAt   time.Time
}

// Activity is one day of logged counters. (UserID, Date) is unique.
type Activity struct {
	ID        string
	UserID    string
	Date      time.Time
	Counters  scoring.Counters
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Score is the activity's daily score.
func (a Activity) Score() int {
	return scoring.DailyScore(a.Counters)
}

// ActivityWithOwner joins an activity with its owner for admin views.
type ActivityWithOwner struct {
	Activity
	Username    string
	DisplayName string
}

// Identifier is a user's GenID. UserID and ShortID are each unique.
type Identifier struct {
	ID         string
	UserID     string
	ShortID    string
	PublicCode string
	CreatedAt  time.Time
}

// IdentifierWithOwner joins an identifier with its owner for admin views.
type IdentifierWithOwner struct {
	Identifier
	Username    string
	DisplayName string
	Email       string
}

var shortIDPattern = regexp.MustCompile(`^\d{6}$`)

// ValidShortID reports whether s is exactly six ASCII digits.
func ValidShortID(s string) bool {
	return shortIDPattern.MatchString(s)
}

// IsLegacy reports whether the identifier predates the six digit format and should be reissued.
func (i Identifier) IsLegacy() bool {
	return !ValidShortID(i.ShortID)
}

// DisplayShortID renders the short id for cards, or INVALID for legacy values.
func (i Identifier) DisplayShortID() string {
	if i.IsLegacy() {
		return "INVALID"
	}
	return "#" + i.ShortID
}

// Entries converts activities into scoring input.
func Entries(activities []Activity) []scoring.Entry {
	out := make([]scoring.Entry, 0, len(activities))
	for _, a := range activities {
		out = append(out, scoring.Entry{Date: a.Date, Counters: a.Counters})
	}
	return out
}

// Cursor models the admin activity pagination token.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}
