package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return logger
}

func TestDestinationNaming(t *testing.T) {
	assert.Equal(t, "recursos:incidente.nuevo", redisQueueKey("recursos", RoutingKeyIncidentCreated))
	assert.Equal(t, "recursos.incidente.actualizado", natsSubject("recursos", RoutingKeyIncidentUpdated))
}

func TestIncidentCreatedEvent_WireFormat(t *testing.T) {
	lat, lon := 0.0, -70.5
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	event := IncidentCreatedEvent{
		IncidentID: "abc",
		Type:       "incendio",
		Priority:   "critica",
		Latitude:   &lat,
		Longitude:  &lon,
		Timestamp:  ts,
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "abc", decoded["incidenteId"])
	assert.Equal(t, "incendio", decoded["tipo"])
	assert.Equal(t, "critica", decoded["prioridad"])
	assert.Equal(t, 0.0, decoded["latitude"])
	assert.Equal(t, "2024-05-01T12:00:00Z", decoded["timestamp"])
}

func receiveOne(t *testing.T, b Broker, exchange, routingKey string, publish func()) []byte {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan []byte, 1)
	err := b.Subscribe(ctx, exchange, routingKey, "test.queue", func(_ context.Context, payload []byte) {
		received <- payload
	})
	require.NoError(t, err)

	publish()

	select {
	case payload := <-received:
		return payload
	case <-time.After(5 * time.Second):
		t.Fatal("message was not delivered")
		return nil
	}
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	b := NewRedisBroker(client, newTestLogger())

	exchange := "test-" + time.Now().Format("150405.000000")
	payload := receiveOne(t, b, exchange, RoutingKeyIncidentCreated, func() {
		require.NoError(t, b.Publish(context.Background(), exchange, RoutingKeyIncidentCreated, IncidentCreatedEvent{IncidentID: "r-1"}))
	})

	var event IncidentCreatedEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "r-1", event.IncidentID)
}

func TestNATSBroker_PublishSubscribe(t *testing.T) {
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("TEST_NATS_URL not set")
	}

	conn, err := nats.Connect(url)
	require.NoError(t, err)
	b := NewNATSBroker(conn, newTestLogger())
	defer b.Close()

	payload := receiveOne(t, b, "recursos", RoutingKeyIncidentUpdated, func() {
		require.NoError(t, b.Publish(context.Background(), "recursos", RoutingKeyIncidentUpdated, IncidentStatusChangedEvent{IncidentID: "n-1", Status: "resuelto"}))
	})

	var event IncidentStatusChangedEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "n-1", event.IncidentID)
	assert.Equal(t, "resuelto", event.Status)
}

type ctxKey struct{}

func TestHandlerContext_SurvivesSubscriptionCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-1"))
	hctx := handlerContext(parent)

	cancel()

	require.Error(t, parent.Err())
	assert.NoError(t, hctx.Err())
	assert.Equal(t, "req-1", hctx.Value(ctxKey{}))
}

// deliveryRecorder запоминает ошибку контекста каждого вызова обработчика
type deliveryRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *deliveryRecorder) handle(delay time.Duration) Handler {
	return func(ctx context.Context, _ []byte) {
		time.Sleep(delay)
		r.mu.Lock()
		r.errs = append(r.errs, ctx.Err())
		r.mu.Unlock()
	}
}

func (r *deliveryRecorder) snapshot() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func TestNATSBroker_CloseDeliversBufferedMessages(t *testing.T) {
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("TEST_NATS_URL not set")
	}

	conn, err := nats.Connect(url)
	require.NoError(t, err)
	b := NewNATSBroker(conn, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	exchange := "test-" + time.Now().Format("150405.000000")
	recorder := &deliveryRecorder{}
	require.NoError(t, b.Subscribe(ctx, exchange, RoutingKeyIncidentCreated, "test.queue", recorder.handle(20*time.Millisecond)))

	const total = 20
	for i := 0; i < total; i++ {
		require.NoError(t, b.Publish(context.Background(), exchange, RoutingKeyIncidentCreated, IncidentCreatedEvent{IncidentID: "n"}))
	}
	require.NoError(t, conn.Flush())

	// Порядок завершения как в main: сначала отмена, затем Close
	cancel()
	require.NoError(t, b.Close())

	errs := recorder.snapshot()
	assert.Len(t, errs, total)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.True(t, conn.IsClosed())
	assert.NoError(t, b.Close())
}

func TestRedisBroker_HandlerFinishesAfterCancel(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	b := NewRedisBroker(client, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	exchange := "test-" + time.Now().Format("150405.000000")
	started := make(chan struct{}, 1)
	recorder := &deliveryRecorder{}
	slow := recorder.handle(100 * time.Millisecond)
	require.NoError(t, b.Subscribe(ctx, exchange, RoutingKeyIncidentCreated, "test.queue", func(hctx context.Context, payload []byte) {
		started <- struct{}{}
		slow(hctx, payload)
	}))

	require.NoError(t, b.Publish(context.Background(), exchange, RoutingKeyIncidentCreated, IncidentCreatedEvent{IncidentID: "r"}))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("message was not delivered")
	}

	cancel()
	require.NoError(t, b.Close())

	errs := recorder.snapshot()
	require.Len(t, errs, 1)
	assert.NoError(t, errs[0])
}
