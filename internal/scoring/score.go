// Package scoring turns logged activity counters into points, streaks, credit and badges.
// Every function in this package is pure; callers supply the reference day.
package scoring

// Band caps and step sizes for the daily score.
const (
	StepsPerBand   = 1000
	StepsPoints    = 10
	StepsCap       = 40
	PushupsPerBand = 10
	PushupsPoints  = 5
	PushupsCap     = 30
	MinutesPerBand = 10
	MinutesPoints  = 5
	MinutesCap     = 30

	MaxDailyScore = StepsCap + PushupsCap + MinutesCap
)

// Counters are the raw quantities a user logs for one calendar day.
type Counters struct {
	Steps          int `json:"steps"`
	Pushups        int `json:"pushups"`
	WorkoutMinutes int `json:"workout_minutes"`
}

// Normalize clamps negative counters to zero.
func (c Counters) Normalize() Counters {
	return Counters{
		Steps:          max(c.Steps, 0),
		Pushups:        max(c.Pushups, 0),
		WorkoutMinutes: max(c.WorkoutMinutes, 0),
	}
}

// ScoreBreakdown reports the points earned by each band.
type ScoreBreakdown struct {
	Steps          int `json:"steps"`
	Pushups        int `json:"pushups"`
	WorkoutMinutes int `json:"workout_minutes"`
	Total          int `json:"total"`
}

// Breakdown scores each band independently.
func Breakdown(c Counters) ScoreBreakdown {
	c = c.Normalize()
	b := ScoreBreakdown{
		Steps:          band(c.Steps, StepsPerBand, StepsPoints, StepsCap),
		Pushups:        band(c.Pushups, PushupsPerBand, PushupsPoints, PushupsCap),
		WorkoutMinutes: band(c.WorkoutMinutes, MinutesPerBand, MinutesPoints, MinutesCap),
	}
	b.Total = b.Steps + b.Pushups + b.WorkoutMinutes
	return b
}

// DailyScore returns the points for one day, always within [0, MaxDailyScore].
func DailyScore(c Counters) int {
	return Breakdown(c).Total
}

func band(value, per, points, limit int) int {
	return min((value/per)*points, limit)
}
