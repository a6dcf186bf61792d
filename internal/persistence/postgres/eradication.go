package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	platformevents "example.com/genid/internal/platform/events"
)

// DeleteActivitiesByUser removes every activity the user owns.
func (r *Repository) DeleteActivitiesByUser(ctx context.Context, userID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE user_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// DeleteIdentifierByUser removes the user's GenID.
func (r *Repository) DeleteIdentifierByUser(ctx context.Context, userID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM gen_ids WHERE user_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// DeleteUser removes the profile row and records account.eradicated when a row went away.
func (r *Repository) DeleteUser(ctx context.Context, userID string) (int, error) {
	var affected int
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id=$1`, userID)
		if err != nil {
			return err
		}
		affected = int(tag.RowsAffected())
		if affected == 0 {
			return nil
		}
		return insertOutbox(ctx, tx, platformevents.TypeAccountEradicated, userID, userID, platformevents.AccountEradicated{
			UserID:     userID,
			OccurredAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// CountActivitiesByUser counts the user's remaining activities.
func (r *Repository) CountActivitiesByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activities WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}

// CountIdentifiersByUser counts the user's remaining GenIDs.
func (r *Repository) CountIdentifiersByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM gen_ids WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}
