//go:build integration

package consumer

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/genid/internal/outbox"
	"example.com/genid/internal/testsupport"
)

func TestKafkaRoundTripLandsInEventLog(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	brokers := testsupport.StartKafka(ctx, t)
	pool := testsupport.StartPostgres(ctx, t)
	topic := "account_events"

	conn, err := kafka.Dial("tcp", brokers[0])
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     "genid-integration",
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	consumerCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		_ = NewProcessor(reader, NewPersistenceHandler(pool), WithLogger(quietLogger())).Run(consumerCtx)
	}()

	payload := []byte(`{"user_id":"u-42","occurred_at":"2026-05-10T12:00:00Z"}`)
	value := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(value[1:5], 9)
	copy(value[5:], payload)

	producer := outbox.NewKafkaProducer(brokers)
	defer producer.Close()
	require.NoError(t, producer.WriteMessages(ctx, topic, kafka.Message{
		Key:   []byte("u-42"),
		Value: value,
		Headers: []kafka.Header{
			{Key: outbox.HeaderEventType, Value: []byte("account.eradicated")},
			{Key: outbox.HeaderSchemaSubject, Value: []byte("account_events-value")},
		},
	}))

	require.Eventually(t, func() bool {
		var count int
		err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM event_log WHERE event_type = 'account.eradicated' AND schema_id = 9 AND payload->>'user_id' = 'u-42'`).Scan(&count)
		return err == nil && count == 1
	}, 60*time.Second, 500*time.Millisecond)
}
