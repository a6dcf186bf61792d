// Package postgres implements the domain stores on top of pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/genid/internal/domain"
	platformevents "example.com/genid/internal/platform/events"
)

const uniqueViolation = "23505"

// Repository provides Postgres-backed persistence for profiles, activities, GenIDs,
// card members and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// withTx runs fn inside a transaction and commits when it returns nil.
func (r *Repository) withTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// translate maps unique violations onto domain conflicts by constraint name.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_pkey":
		return domain.ErrProfileExists
	case "users_username_key":
		return domain.ErrUsernameTaken
	case "activities_user_date_key":
		return domain.ErrActivityExists
	case "gen_ids_user_id_key":
		return domain.ErrIdentifierExists
	case "gen_ids_short_id_key":
		return domain.ErrShortIDTaken
	case "card_members_pkey":
		return domain.ErrMemberIDTaken
	}
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	AggregateType string
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	platformevents.TypeActivityLogged: {
		AggregateType: "activity",
		Topic:         "activity_events",
		SchemaSubject: "activity_events-value",
	},
	platformevents.TypeActivityUpdated: {
		AggregateType: "activity",
		Topic:         "activity_events",
		SchemaSubject: "activity_events-value",
	},
	platformevents.TypeGenIDIssued: {
		AggregateType: "genid",
		Topic:         "genid_events",
		SchemaSubject: "genid_events-value",
	},
	platformevents.TypeAccountEradicated: {
		AggregateType: "user",
		Topic:         "account_events",
		SchemaSubject: "account_events-value",
	},
}

// insertOutbox records an event in the same transaction as the aggregate change.
// Events are partitioned by user so a user's history stays ordered.
func insertOutbox(ctx context.Context, tx pgx.Tx, eventType, aggregateID, userID string, payload any) error {
	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		meta.AggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		userID,
		body,
		fmt.Sprintf("%s:%s", aggregateID, eventType),
	)
	return err
}
