//go:build integration

package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/genid/internal/testsupport"
)

func TestPersistenceHandlerStoresEventsOnce(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	handler := NewPersistenceHandler(pool)

	msg := Message{
		Topic:         "genid_events",
		Partition:     2,
		Offset:        77,
		Timestamp:     time.Now().UTC(),
		EventType:     "genid.issued",
		SchemaSubject: "genid_events-value",
		SchemaID:      3,
		Payload:       []byte(`{"user_id":"u1","short_id":"482913"}`),
	}
	require.NoError(t, handler.Handle(ctx, msg))
	require.NoError(t, handler.Handle(ctx, msg))

	var count int
	var shortID string
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*), MAX(payload->>'short_id') FROM event_log WHERE topic = $1`, msg.Topic).Scan(&count, &shortID))
	require.Equal(t, 1, count)
	require.Equal(t, "482913", shortID)
}
