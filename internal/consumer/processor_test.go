package consumer

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"example.com/genid/internal/domain"
)

func frame(schemaID int, payload string) []byte {
	value := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(value[1:5], uint32(schemaID))
	copy(value[5:], payload)
	return value
}

func record(offset int64, eventType, payload string) kafka.Message {
	return kafka.Message{
		Topic:     "activity_events",
		Partition: 0,
		Offset:    offset,
		Key:       []byte("user-1"),
		Time:      time.Now().UTC(),
		Value:     frame(42, payload),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "schema_subject", Value: []byte("activity_events-value")},
		},
	}
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	payload := `{"activity_id":"abc","user_id":"user-1"}`
	reader := &stubReader{messages: []kafka.Message{record(10, "activity.logged", payload)}}
	handler := &stubHandler{}

	before := testutil.ToFloat64(processedCounter.WithLabelValues("activity_events", "activity.logged"))
	err := NewProcessor(reader, handler, WithLogger(quietLogger())).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, "activity.logged", handler.last.EventType)
	require.Equal(t, "activity_events-value", handler.last.SchemaSubject)
	require.Equal(t, "user-1", handler.last.Key)
	require.Equal(t, 42, handler.last.SchemaID)
	require.JSONEq(t, payload, string(handler.last.Payload))
	require.InDelta(t, before+1, testutil.ToFloat64(processedCounter.WithLabelValues("activity_events", "activity.logged")), 0.0001)
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{record(20, "activity.updated", `{"activity_id":"def"}`)}}
	handler := &stubHandler{err: errors.New("boom")}

	err := NewProcessor(reader, handler, WithLogger(quietLogger())).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Zero(t, reader.commitCalls)
}

func TestProcessorCommitsUndecodableMessages(t *testing.T) {
	noHeader := record(1, "activity.logged", `{}`)
	noHeader.Headers = nil
	short := record(2, "activity.logged", `{}`)
	short.Value = []byte{0, 1}
	badJSON := record(3, "activity.logged", `{nope`)

	reader := &stubReader{messages: []kafka.Message{noHeader, short, badJSON}}
	handler := &stubHandler{}

	before := testutil.ToFloat64(decodeErrorCounter.WithLabelValues("activity_events"))
	err := NewProcessor(reader, handler, WithLogger(quietLogger())).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Zero(t, handler.calls)
	require.Equal(t, 3, reader.commitCalls)
	require.InDelta(t, before+3, testutil.ToFloat64(decodeErrorCounter.WithLabelValues("activity_events")), 0.0001)
}

func TestProcessorStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &stubReader{messages: []kafka.Message{record(1, "activity.logged", `{}`)}}
	err := NewProcessor(reader, &stubHandler{}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, reader.index)
}

func TestChainStopsAtFirstError(t *testing.T) {
	first := &stubHandler{err: errors.New("first")}
	second := &stubHandler{}

	err := Chain(first, second).Handle(context.Background(), Message{})
	require.EqualError(t, err, "first")
	require.Equal(t, 1, first.calls)
	require.Zero(t, second.calls)
}

type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) GetProfile(context.Context, string) (*domain.PublicProfile, error) {
	return nil, nil
}

func (c *recordingCache) PutProfile(context.Context, domain.PublicProfile) error { return nil }

func (c *recordingCache) Invalidate(_ context.Context, userID string) error {
	c.invalidated = append(c.invalidated, userID)
	return nil
}

func TestCacheInvalidationHandler(t *testing.T) {
	cache := &recordingCache{}
	handler := NewCacheInvalidationHandler(cache)
	ctx := context.Background()

	require.NoError(t, handler.Handle(ctx, Message{EventType: "genid.issued", Payload: []byte(`{"user_id":"u1"}`)}))
	require.NoError(t, handler.Handle(ctx, Message{EventType: "account.eradicated", Key: "u2", Payload: []byte(`{}`)}))
	require.NoError(t, handler.Handle(ctx, Message{EventType: "activity.logged", Payload: []byte(`{}`)}))
	require.Error(t, handler.Handle(ctx, Message{EventType: "activity.logged", Payload: []byte(`[]`)}))

	require.Equal(t, []string{"u1", "u2"}, cache.invalidated)
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}
