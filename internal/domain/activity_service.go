package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"example.com/genid/internal/scoring"
)

// MaxRecentActivities bounds admin activity listings.
const MaxRecentActivities = 100

// ActivityService logs, edits and lists daily activities.
type ActivityService struct {
	repo     ActivityRepository
	users    UserRepository
	cache    ProfileCache
	calendar Calendar
}

// NewActivityService constructs an ActivityService.
func NewActivityService(repo ActivityRepository, users UserRepository, cache ProfileCache, calendar Calendar) *ActivityService {
	return &ActivityService{repo: repo, users: users, cache: cache, calendar: calendar}
}

// ActivityInput captures one day's counters. A zero Date means today.
type ActivityInput struct {
	UserID         string    `json:"user_id" validate:"required"`
	Date           time.Time `json:"activity_date"`
	Steps          int       `json:"steps" validate:"min=0"`
	Pushups        int       `json:"pushups" validate:"min=0"`
	WorkoutMinutes int       `json:"workout_minutes" validate:"min=0"`
}

// Counters returns the input's counters.
func (in ActivityInput) Counters() scoring.Counters {
	return scoring.Counters{Steps: in.Steps, Pushups: in.Pushups, WorkoutMinutes: in.WorkoutMinutes}
}

// ActivityPatch carries admin edits to an existing activity. Nil fields are left untouched.
type ActivityPatch struct {
	Date           *time.Time `json:"activity_date,omitempty"`
	Steps          *int       `json:"steps,omitempty" validate:"omitempty,min=0"`
	Pushups        *int       `json:"pushups,omitempty" validate:"omitempty,min=0"`
	WorkoutMinutes *int       `json:"workout_minutes,omitempty" validate:"omitempty,min=0"`
}

// Preview scores counters without storing anything.
func (s *ActivityService) Preview(c scoring.Counters) scoring.ScoreBreakdown {
	return scoring.Breakdown(c)
}

// Log records a new day. A second log for the same date returns ErrActivityExists
// and leaves the stored row unchanged.
func (s *ActivityService) Log(ctx context.Context, input ActivityInput) (*Activity, error) {
	date, err := s.checkInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, input.UserID); err != nil {
		return nil, err
	}

	now := s.calendar.now()
	activity := Activity{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Date:      date,
		Counters:  input.Counters(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, input.UserID)
	return &activity, nil
}

// Update overwrites the counters of an already logged date.
func (s *ActivityService) Update(ctx context.Context, input ActivityInput) (*Activity, error) {
	date, err := s.checkInput(input)
	if err != nil {
		return nil, err
	}

	activity, err := s.repo.GetActivityByDate(ctx, input.UserID, date)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}

	activity.Counters = input.Counters()
	activity.UpdatedAt = s.calendar.now()
	if err := s.repo.UpdateActivity(ctx, *activity); err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, input.UserID)
	return activity, nil
}

// ListByUser returns a user's activities, newest date first.
func (s *ActivityService) ListByUser(ctx context.Context, userID string) ([]Activity, error) {
	return s.repo.ListActivitiesByUser(ctx, userID)
}

// UpdateByID applies an admin patch. Moving an activity onto a date that is
// already logged returns ErrActivityExists.
func (s *ActivityService) UpdateByID(ctx context.Context, id string, patch ActivityPatch) (*Activity, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	activity, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}

	if patch.Date != nil {
		date := scoring.DayOf(*patch.Date)
		if date.After(s.calendar.Today()) {
			return nil, invalid("activity_date", "cannot be in the future")
		}
		activity.Date = date
	}
	if patch.Steps != nil {
		activity.Counters.Steps = *patch.Steps
	}
	if patch.Pushups != nil {
		activity.Counters.Pushups = *patch.Pushups
	}
	if patch.WorkoutMinutes != nil {
		activity.Counters.WorkoutMinutes = *patch.WorkoutMinutes
	}
	activity.UpdatedAt = s.calendar.now()

	if err := s.repo.UpdateActivity(ctx, *activity); err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, activity.UserID)
	return activity, nil
}

// DeleteByID removes a single activity.
func (s *ActivityService) DeleteByID(ctx context.Context, id string) error {
	activity, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		return err
	}
	if activity == nil {
		return ErrActivityNotFound
	}
	if err := s.repo.DeleteActivity(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, activity.UserID)
	return nil
}

// ListRecent pages through every user's activities, newest first.
func (s *ActivityService) ListRecent(ctx context.Context, cursor *Cursor, limit int) ([]ActivityWithOwner, *Cursor, error) {
	if limit <= 0 || limit > MaxRecentActivities {
		limit = MaxRecentActivities
	}
	return s.repo.ListRecentActivities(ctx, cursor, limit)
}

func (s *ActivityService) checkInput(input ActivityInput) (time.Time, error) {
	if err := validateStruct(input); err != nil {
		return time.Time{}, err
	}
	today := s.calendar.Today()
	if input.Date.IsZero() {
		return today, nil
	}
	date := scoring.DayOf(input.Date)
	if date.After(today) {
		return time.Time{}, invalid("activity_date", "cannot be in the future")
	}
	return date, nil
}

func (s *ActivityService) requireUser(ctx context.Context, userID string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}
