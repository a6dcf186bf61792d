package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"example.com/genid/internal/domain"
)

const userColumns = `id, username, display_name, email, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a profile row.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, display_name, email, created_at) VALUES ($1,$2,$3,$4,$5)`,
		user.ID, user.Username, user.DisplayName, user.Email, user.CreatedAt,
	)
	return translate(err)
}

// GetUser returns the profile or nil.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// GetUserByUsername looks a profile up case-insensitively.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username)=lower($1)`, username))
}

// UpdateUser overwrites username and display name.
func (r *Repository) UpdateUser(ctx context.Context, user domain.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET username=$2, display_name=$3, email=$4 WHERE id=$1`,
		user.ID, user.Username, user.DisplayName, user.Email,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListUsers returns every profile, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
