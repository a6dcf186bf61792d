package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"example.com/genid/internal/membercard"
)

// CreateMember inserts a card member.
func (r *Repository) CreateMember(ctx context.Context, member membercard.Member) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO card_members (id, name, email, issue_date, created_at) VALUES ($1,$2,$3,$4,$5)`,
		member.ID, member.Name, member.Email, member.IssueDate, member.CreatedAt,
	)
	return translate(err)
}

// GetMember returns a card member or nil.
func (r *Repository) GetMember(ctx context.Context, id string) (*membercard.Member, error) {
	var m membercard.Member
	err := r.pool.QueryRow(ctx, `SELECT id, name, email, issue_date, created_at FROM card_members WHERE id=$1`, id).
		Scan(&m.ID, &m.Name, &m.Email, &m.IssueDate, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// PutHealthRecord upserts the member's latest health payload.
func (r *Repository) PutHealthRecord(ctx context.Context, record membercard.HealthRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO health_records (member_id, encoded_data, data_hash, recorded_at) VALUES ($1,$2,$3,$4)
         ON CONFLICT (member_id) DO UPDATE SET encoded_data=EXCLUDED.encoded_data, data_hash=EXCLUDED.data_hash, recorded_at=EXCLUDED.recorded_at`,
		record.MemberID, record.EncodedData, record.DataHash, record.RecordedAt,
	)
	return err
}

// GetHealthRecord returns the member's health record or nil.
func (r *Repository) GetHealthRecord(ctx context.Context, memberID string) (*membercard.HealthRecord, error) {
	var h membercard.HealthRecord
	err := r.pool.QueryRow(ctx, `SELECT member_id, encoded_data, data_hash, recorded_at FROM health_records WHERE member_id=$1`, memberID).
		Scan(&h.MemberID, &h.EncodedData, &h.DataHash, &h.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}
