package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"example.com/genid/internal/domain"
	platformevents "example.com/genid/internal/platform/events"
)

const identifierColumns = `g.id, g.user_id, g.short_id, g.public_code, g.created_at`

// GenerateShortID calls the generate_short_id procedure.
func (r *Repository) GenerateShortID(ctx context.Context) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT generate_short_id()`).Scan(&id)
	return id, err
}

// GeneratePublicCode calls the generate_public_code procedure.
func (r *Repository) GeneratePublicCode(ctx context.Context) (string, error) {
	var code string
	err := r.pool.QueryRow(ctx, `SELECT generate_public_code()`).Scan(&code)
	return code, err
}

// ShortIDExists reports whether the short id is already issued.
func (r *Repository) ShortIDExists(ctx context.Context, shortID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM gen_ids WHERE short_id=$1)`, shortID).Scan(&exists)
	return exists, err
}

// InsertIdentifier records the GenID and its outbox event atomically.
func (r *Repository) InsertIdentifier(ctx context.Context, identifier domain.Identifier) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO gen_ids (id, user_id, short_id, public_code, created_at) VALUES ($1,$2,$3,$4,$5)`,
			identifier.ID, identifier.UserID, identifier.ShortID, identifier.PublicCode, identifier.CreatedAt,
		)
		if err != nil {
			return translate(err)
		}
		return insertOutbox(ctx, tx, platformevents.TypeGenIDIssued, identifier.ID, identifier.UserID, platformevents.GenIDIssued{
			IdentifierID: identifier.ID,
			UserID:       identifier.UserID,
			ShortID:      identifier.ShortID,
			OccurredAt:   identifier.CreatedAt,
		})
	})
}

// GetIdentifierByUser returns the user's GenID or nil.
func (r *Repository) GetIdentifierByUser(ctx context.Context, userID string) (*domain.Identifier, error) {
	var g domain.Identifier
	err := r.pool.QueryRow(ctx, `SELECT `+identifierColumns+` FROM gen_ids g WHERE g.user_id=$1`, userID).
		Scan(&g.ID, &g.UserID, &g.ShortID, &g.PublicCode, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListIdentifiers returns every GenID with its owner, newest first.
func (r *Repository) ListIdentifiers(ctx context.Context) ([]domain.IdentifierWithOwner, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+identifierColumns+`, COALESCE(u.username, ''), COALESCE(u.display_name, ''), COALESCE(u.email, '')
        FROM gen_ids g LEFT JOIN users u ON u.id = g.user_id
        ORDER BY g.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.IdentifierWithOwner, 0)
	for rows.Next() {
		var g domain.IdentifierWithOwner
		if err := rows.Scan(&g.ID, &g.UserID, &g.ShortID, &g.PublicCode, &g.CreatedAt, &g.Username, &g.DisplayName, &g.Email); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteIdentifier removes a GenID by id and returns the deleted row.
func (r *Repository) DeleteIdentifier(ctx context.Context, id string) (*domain.Identifier, error) {
	var g domain.Identifier
	err := r.pool.QueryRow(ctx, `DELETE FROM gen_ids g WHERE g.id=$1 RETURNING `+identifierColumns, id).
		Scan(&g.ID, &g.UserID, &g.ShortID, &g.PublicCode, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIdentifierNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}
