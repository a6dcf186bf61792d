package domain

import (
	"time"

	"example.com/genid/internal/scoring"
)

// Calendar answers "what day is it" in the service's configured zone.
type Calendar struct {
	Location *time.Location
	Now      func() time.Time
}

// Today returns the current calendar day at midnight UTC.
func (c Calendar) Today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return scoring.Today(now(), c.Location)
}

func (c Calendar) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}
