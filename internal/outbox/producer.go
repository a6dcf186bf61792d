package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const defaultClientID = "genid-outbox"

// ProducerOption configures a KafkaProducer.
type ProducerOption func(*KafkaProducer)

// WithClientID sets the client id the writers present to the brokers.
func WithClientID(id string) ProducerOption {
	return func(p *KafkaProducer) {
		if id != "" {
			p.clientID = id
		}
	}
}

// WithBatchTimeout bounds how long a writer waits to fill a batch.
func WithBatchTimeout(d time.Duration) ProducerOption {
	return func(p *KafkaProducer) {
		if d > 0 {
			p.batchTimeout = d
		}
	}
}

// WithProducerLogger routes writer errors to logger.
func WithProducerLogger(logger logrus.FieldLogger) ProducerOption {
	return func(p *KafkaProducer) {
		p.logger = logger
	}
}

// KafkaProducer keeps one writer per GenID topic. Messages are keyed by user id,
// and the hash balancer keeps one user's events in order on one partition.
type KafkaProducer struct {
	brokers      []string
	clientID     string
	batchTimeout time.Duration
	logger       logrus.FieldLogger

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaProducer creates a KafkaProducer for the given brokers.
func NewKafkaProducer(brokers []string, opts ...ProducerOption) *KafkaProducer {
	p := &KafkaProducer{
		brokers:      brokers,
		clientID:     defaultClientID,
		batchTimeout: 50 * time.Millisecond,
		writers:      make(map[string]*kafka.Writer),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WriteMessages writes messages to topic.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writer(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		BatchTimeout: p.batchTimeout,
		Transport:    &kafka.Transport{ClientID: p.clientID},
	}
	if p.logger != nil {
		log := p.logger.WithField("topic", topic)
		w.ErrorLogger = kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Errorf(msg, args...)
		})
	}
	p.writers[topic] = w
	return w
}

// Close flushes and releases every writer.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs error
	for topic, w := range p.writers {
		errs = errors.Join(errs, w.Close())
		delete(p.writers, topic)
	}
	return errs
}
