package outbox

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestKafkaProducerReusesWritersPerTopic(t *testing.T) {
	p := NewKafkaProducer([]string{"localhost:9092"},
		WithClientID("genid-test"),
		WithBatchTimeout(10*time.Millisecond),
		WithProducerLogger(quietLogger()),
	)

	activity := p.writer("activity_events")
	require.Same(t, activity, p.writer("activity_events"))
	require.NotSame(t, activity, p.writer("genid_events"))

	require.Equal(t, "activity_events", activity.Topic)
	require.IsType(t, &kafka.Hash{}, activity.Balancer)
	require.Equal(t, 10*time.Millisecond, activity.BatchTimeout)
	require.NotNil(t, activity.ErrorLogger)
	transport, ok := activity.Transport.(*kafka.Transport)
	require.True(t, ok)
	require.Equal(t, "genid-test", transport.ClientID)

	require.NoError(t, p.Close())
	require.Empty(t, p.writers)
}

func TestKafkaProducerDefaults(t *testing.T) {
	p := NewKafkaProducer(nil, WithClientID(""), WithBatchTimeout(0))
	w := p.writer("account_events")
	require.Equal(t, defaultClientID, w.Transport.(*kafka.Transport).ClientID)
	require.Equal(t, 50*time.Millisecond, w.BatchTimeout)
	require.Nil(t, w.ErrorLogger)
	require.NoError(t, p.Close())
}
