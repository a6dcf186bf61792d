package scoring

import (
	"sort"
	"time"
)

// DayOf truncates t to its calendar day, expressed as midnight UTC.
// The calendar day is read in t's own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DayOf(now.In(loc))
}

// Streak counts consecutive days ending today. Unique days are sorted newest
// first and the day at position i must equal today minus i days; the walk
// stops at the first mismatch. A user whose latest day is yesterday has a
// streak of zero.
func Streak(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	seen := make(map[time.Time]struct{}, len(days))
	unique := make([]time.Time, 0, len(days))
	for _, d := range days {
		day := DayOf(d)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		unique = append(unique, day)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].After(unique[j]) })

	today = DayOf(today)
	streak := 0
	for i, day := range unique {
		if !day.Equal(today.AddDate(0, 0, -i)) {
			break
		}
		streak++
	}
	return streak
}
