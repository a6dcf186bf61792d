package scoring

// Badge is an achievement derived from credit and streak. Badges are never stored.
type Badge string

const (
	BadgeCenturion   Badge = "Centurion"
	BadgeWeekWarrior Badge = "Week Warrior"
	BadgeMonthMaster Badge = "Month Master"
)

// Badge thresholds.
const (
	CenturionCredit   = 100
	WeekWarriorStreak = 7
	MonthMasterStreak = 30
)

// Badges lists the badges earned, in display order.
func Badges(credit, streak int) []Badge {
	badges := make([]Badge, 0, 3)
	if credit >= CenturionCredit {
		badges = append(badges, BadgeCenturion)
	}
	if streak >= WeekWarriorStreak {
		badges = append(badges, BadgeWeekWarrior)
	}
	if streak >= MonthMasterStreak {
		badges = append(badges, BadgeMonthMaster)
	}
	return badges
}
