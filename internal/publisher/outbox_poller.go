package publisher

import (
	"context"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/repository"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTopic     = "order-placed"
	defaultEventTick = time.Second
	defaultBatchSize = 100
)

// MessageWriter is the part of *kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller relays unprocessed order outbox events to Kafka. An event is
// marked processed only after the broker accepted it, so delivery is
// at-least-once.
type OutboxPoller struct {
	eventTick time.Duration
	batchSize int
	repo      repository.OutboxRepository
	writer    MessageWriter
	log       logrus.FieldLogger
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

func NewOutboxPoller(repo repository.OutboxRepository, writer MessageWriter, log logrus.FieldLogger) *OutboxPoller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OutboxPoller{
		eventTick: defaultEventTick,
		batchSize: defaultBatchSize,
		repo:      repo,
		writer:    writer,
		log:       log.WithField("component", "outbox_poller"),
	}
}

// Run polls until ctx is cancelled, then closes the writer.
func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	defer func() {
		if err := p.writer.Close(); err != nil {
			p.log.WithError(err).Warn("failed to close kafka writer")
		}
	}()

	p.log.Info("outbox poller started")
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			p.log.Info("outbox poller stopped")
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.log.WithError(err).Error("failed to fetch outbox events")
		return
	}

	for _, event := range events {
		entry := p.log.WithFields(logrus.Fields{
			"event_id": event.ID,
			"order_id": event.AggregateID,
		})

		if err := p.publishToKafka(ctx, event); err != nil {
			entry.WithError(err).Error("failed to publish outbox event")
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			entry.WithError(err).Error("failed to mark outbox event as processed")
			continue
		}
		entry.Debug("outbox event published")
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id for ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
