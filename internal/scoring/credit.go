package scoring

import "time"

// MaxStreakBonus caps the one-off bonus added for an active streak.
const MaxStreakBonus = 10

// Entry is one scored day.
type Entry struct {
	Date     time.Time
	Counters Counters
}

// Stats summarises a user's history as of a given day.
type Stats struct {
	TotalCredit   int `json:"total_credit"`
	CurrentStreak int `json:"current_streak"`
	TodayScore    int `json:"today_score"`
}

// StreakBonus is min(streak, MaxStreakBonus); negative streaks earn nothing.
func StreakBonus(streak int) int {
	return min(max(streak, 0), MaxStreakBonus)
}

// TotalCredit sums every day's score and adds the streak bonus once.
func TotalCredit(entries []Entry, today time.Time) int {
	return Summarize(entries, today).TotalCredit
}

// Summarize computes credit, streak and today's score in one pass.
func Summarize(entries []Entry, today time.Time) Stats {
	today = DayOf(today)
	days := make([]time.Time, 0, len(entries))
	var stats Stats
	for _, e := range entries {
		score := DailyScore(e.Counters)
		stats.TotalCredit += score
		if DayOf(e.Date).Equal(today) {
			stats.TodayScore = score
		}
		days = append(days, e.Date)
	}
	stats.CurrentStreak = Streak(days, today)
	stats.TotalCredit += StreakBonus(stats.CurrentStreak)
	return stats
}
