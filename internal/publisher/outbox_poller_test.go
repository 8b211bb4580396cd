package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/repository"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type MockRepository struct {
	mu           sync.RWMutex
	OutboxEvents []*repository.OutboxEvent
	GetErr       error
	MarkErr      error
	ProcessedIDs []int64
}

func (m *MockRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*repository.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	var out []*repository.OutboxEvent
	for _, e := range m.OutboxEvents {
		if m.isProcessed(e.ID) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockRepository) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.ProcessedIDs = append(m.ProcessedIDs, id)
	return nil
}

func (m *MockRepository) isProcessed(id int64) bool {
	for _, p := range m.ProcessedIDs {
		if p == id {
			return true
		}
	}
	return false
}

func (m *MockRepository) processed() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int64(nil), m.ProcessedIDs...)
}

type MockWriter struct {
	mu       sync.RWMutex
	Messages []kafkaGo.Message
	FailKeys map[string]bool
	Closed   bool
}

func (w *MockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range msgs {
		if w.FailKeys[string(m.Key)] {
			return errors.New("broker unavailable")
		}
		w.Messages = append(w.Messages, m)
	}
	return nil
}

func (w *MockWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Closed = true
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func event(id int64, orderID string) *repository.OutboxEvent {
	return &repository.OutboxEvent{
		ID:          id,
		AggregateID: orderID,
		EventType:   repository.EventOrderPlaced,
		Payload:     json.RawMessage(fmt.Sprintf(`{"order_id":%q,"user_id":"user-456"}`, orderID)),
		CreatedAt:   time.Now(),
	}
}

func TestProcessUnpublishedEvents_PublishesAndMarks(t *testing.T) {
	repo := &MockRepository{OutboxEvents: []*repository.OutboxEvent{event(1, "order-1"), event(2, "order-2")}}
	writer := &MockWriter{}
	poller := NewOutboxPoller(repo, writer, quietLogger())

	poller.processUnpublishedEvents(context.Background())

	require.Len(t, writer.Messages, 2)
	msg := writer.Messages[0]
	assert.Equal(t, "order-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, repository.EventOrderPlaced, string(msg.Headers[0].Value))
	assert.JSONEq(t, `{"order_id":"order-1","user_id":"user-456"}`, string(msg.Value))
	assert.Equal(t, []int64{1, 2}, repo.processed())
}

func TestProcessUnpublishedEvents_FailedPublishIsRetriedNextTick(t *testing.T) {
	repo := &MockRepository{OutboxEvents: []*repository.OutboxEvent{event(1, "order-1"), event(2, "order-2")}}
	writer := &MockWriter{FailKeys: map[string]bool{"order-1": true}}
	poller := NewOutboxPoller(repo, writer, quietLogger())

	poller.processUnpublishedEvents(context.Background())
	assert.Equal(t, []int64{2}, repo.processed())

	writer.mu.Lock()
	writer.FailKeys = nil
	writer.mu.Unlock()

	poller.processUnpublishedEvents(context.Background())
	assert.Equal(t, []int64{2, 1}, repo.processed())
}

func TestProcessUnpublishedEvents_RepositoryError(t *testing.T) {
	repo := &MockRepository{GetErr: errors.New("database connection error")}
	writer := &MockWriter{}
	poller := NewOutboxPoller(repo, writer, quietLogger())

	poller.processUnpublishedEvents(context.Background())

	assert.Empty(t, writer.Messages)
	assert.Empty(t, repo.processed())
}

func TestProcessUnpublishedEvents_MarkErrorKeepsGoing(t *testing.T) {
	repo := &MockRepository{
		OutboxEvents: []*repository.OutboxEvent{event(1, "order-1"), event(2, "order-2")},
		MarkErr:      errors.New("deadlock"),
	}
	writer := &MockWriter{}
	poller := NewOutboxPoller(repo, writer, quietLogger())

	poller.processUnpublishedEvents(context.Background())
	assert.Len(t, writer.Messages, 2)
}

func TestRun_StopsOnCancelAndClosesWriter(t *testing.T) {
	repo := &MockRepository{OutboxEvents: []*repository.OutboxEvent{event(7, "order-7")}}
	writer := &MockWriter{}
	poller := NewOutboxPoller(repo, writer, quietLogger())
	poller.eventTick = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(repo.processed()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	writer.mu.RLock()
	defer writer.mu.RUnlock()
	assert.True(t, writer.Closed)
	assert.Len(t, writer.Messages, 1)
}

func TestMemoryRepositoryDrainedByPoller(t *testing.T) {
	repo := repository.NewMemoryRepository(repository.WithOutbox())
	order := newOrder()
	require.NoError(t, repo.CreateOrder(context.Background(), order))

	writer := &MockWriter{}
	poller := NewOutboxPoller(repo, writer, quietLogger())
	poller.processUnpublishedEvents(context.Background())

	require.Len(t, writer.Messages, 1)
	assert.Equal(t, order.ID.String(), string(writer.Messages[0].Key))

	events, err := repo.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func setupKafka(t *testing.T) (string, func()) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func TestOutboxPoller_PublishesEventsToKafka(t *testing.T) {
	brokerAddr, cleanup := setupKafka(t)
	defer cleanup()

	repo := &MockRepository{OutboxEvents: []*repository.OutboxEvent{event(1, "order-123")}}
	writer := NewKafkaWriter("order-placed-test", brokerAddr)
	poller := NewOutboxPoller(repo, writer, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go poller.Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    "order-placed-test",
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-123", string(msg.Key))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "order-123", payload["order_id"])

	require.Eventually(t, func() bool { return len(repo.processed()) == 1 }, 10*time.Second, 100*time.Millisecond)
}
