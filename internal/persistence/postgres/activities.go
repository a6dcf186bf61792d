package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/genid/internal/domain"
	"example.com/genid/internal/observability"
	platformevents "example.com/genid/internal/platform/events"
)

const activityColumns = `a.id, a.user_id, a.activity_date, a.steps, a.pushups, a.workout_minutes, a.created_at, a.updated_at`

const dateLayout = "2006-01-02"

func scanActivity(row pgx.Row, extra ...any) (*domain.Activity, error) {
	var a domain.Activity
	dest := append([]any{&a.ID, &a.UserID, &a.Date, &a.Counters.Steps, &a.Counters.Pushups, &a.Counters.WorkoutMinutes, &a.CreatedAt, &a.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.Date = a.Date.UTC()
	return &a, nil
}

// CreateActivity inserts the day and its outbox event atomically.
func (r *Repository) CreateActivity(ctx context.Context, activity domain.Activity) error {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO activities (id, user_id, activity_date, steps, pushups, workout_minutes, created_at, updated_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			activity.ID, activity.UserID, activity.Date,
			activity.Counters.Steps, activity.Counters.Pushups, activity.Counters.WorkoutMinutes,
			activity.CreatedAt, activity.UpdatedAt,
		)
		if err != nil {
			return translate(err)
		}
		return insertOutbox(ctx, tx, platformevents.TypeActivityLogged, activity.ID, activity.UserID, platformevents.ActivityLogged{
			ActivityID:     activity.ID,
			UserID:         activity.UserID,
			ActivityDate:   activity.Date.Format(dateLayout),
			Steps:          activity.Counters.Steps,
			Pushups:        activity.Counters.Pushups,
			WorkoutMinutes: activity.Counters.WorkoutMinutes,
			Score:          activity.Score(),
			OccurredAt:     activity.CreatedAt,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrActivityExists) {
			observability.RecordActivityConflict()
		}
		return err
	}
	observability.RecordActivityPersisted(activity.UpdatedAt)
	return nil
}

// UpdateActivity overwrites the date and counters of an existing row.
func (r *Repository) UpdateActivity(ctx context.Context, activity domain.Activity) error {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE activities SET activity_date=$2, steps=$3, pushups=$4, workout_minutes=$5, updated_at=$6 WHERE id=$1`,
			activity.ID, activity.Date,
			activity.Counters.Steps, activity.Counters.Pushups, activity.Counters.WorkoutMinutes,
			activity.UpdatedAt,
		)
		if err != nil {
			return translate(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrActivityNotFound
		}
		return insertOutbox(ctx, tx, platformevents.TypeActivityUpdated, activity.ID, activity.UserID, platformevents.ActivityUpdated{
			ActivityID:     activity.ID,
			UserID:         activity.UserID,
			ActivityDate:   activity.Date.Format(dateLayout),
			Steps:          activity.Counters.Steps,
			Pushups:        activity.Counters.Pushups,
			WorkoutMinutes: activity.Counters.WorkoutMinutes,
			Score:          activity.Score(),
			OccurredAt:     activity.UpdatedAt,
		})
	})
	if errors.Is(err, domain.ErrActivityExists) {
		observability.RecordActivityConflict()
	}
	return err
}

// GetActivity returns one activity or nil.
func (r *Repository) GetActivity(ctx context.Context, id string) (*domain.Activity, error) {
	a, err := scanActivity(r.pool.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities a WHERE a.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// GetActivityByDate returns the user's activity on date or nil.
func (r *Repository) GetActivityByDate(ctx context.Context, userID string, date time.Time) (*domain.Activity, error) {
	a, err := scanActivity(r.pool.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM activities a WHERE a.user_id=$1 AND a.activity_date=$2`, userID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListActivitiesByUser returns a user's activities, most recent date first.
func (r *Repository) ListActivitiesByUser(ctx context.Context, userID string) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+activityColumns+` FROM activities a WHERE a.user_id=$1 ORDER BY a.activity_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]domain.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// ListRecentActivities pages every user's activities by (created_at, id) descending.
func (r *Repository) ListRecentActivities(ctx context.Context, cursor *domain.Cursor, limit int) ([]domain.ActivityWithOwner, *domain.Cursor, error) {
	args := []any{limit + 1}
	query := `SELECT ` + activityColumns + `, COALESCE(u.username, ''), COALESCE(u.display_name, '')
        FROM activities a LEFT JOIN users u ON u.id = a.user_id`

	if cursor != nil {
		query += ` WHERE (a.created_at, a.id) < ($2, $3)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}
	query += ` ORDER BY a.created_at DESC, a.id DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.ActivityWithOwner, 0, limit)
	for rows.Next() {
		var owner domain.ActivityWithOwner
		a, err := scanActivity(rows, &owner.Username, &owner.DisplayName)
		if err != nil {
			return nil, nil, err
		}
		owner.Activity = *a
		results = append(results, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(results) > limit {
		results = results[:limit]
		last := results[len(results)-1]
		next = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return results, next, nil
}

// DeleteActivity removes one activity.
func (r *Repository) DeleteActivity(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrActivityNotFound
	}
	return nil
}
