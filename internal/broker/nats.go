package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSBroker - реализация Broker поверх NATS.
// Обменник и ключ маршрутизации отображаются в subject "<exchange>.<routingKey>",
// имя очереди - в queue group.
type NATSBroker struct {
	conn   *nats.Conn
	logger *logrus.Logger
}

const natsDrainPoll = 50 * time.Millisecond

func NewNATSBroker(conn *nats.Conn, logger *logrus.Logger) *NATSBroker {
	return &NATSBroker{
		conn:   conn,
		logger: logger,
	}
}

func natsSubject(exchange, routingKey string) string {
	return exchange + "." + routingKey
}

// Publish публикует событие в subject обменника
func (b *NATSBroker) Publish(ctx context.Context, exchange, routingKey string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.conn.Publish(natsSubject(exchange, routingKey), data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}
	return nil
}

// Subscribe регистрирует queue-подписку. Подписка живет до Close;
// handler получает ctx без отмены, чтобы дренированные сообщения не терялись.
func (b *NATSBroker) Subscribe(ctx context.Context, exchange, routingKey, queue string, handler Handler) error {
	subject := natsSubject(exchange, routingKey)
	hctx := handlerContext(ctx)

	if _, err := b.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(hctx, msg.Data)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.logger.WithFields(logrus.Fields{
		"broker":  "nats",
		"subject": subject,
		"queue":   queue,
	}).Info("Subscribed to subject")
	return nil
}

// Close дренирует соединение: сообщения, уже полученные подписками, обрабатываются,
// после чего соединение закрывается. Drain асинхронный, поэтому ждем закрытия.
func (b *NATSBroker) Close() error {
	if b.conn.IsClosed() {
		return nil
	}
	if err := b.conn.Drain(); err != nil {
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}

	ticker := time.NewTicker(natsDrainPoll)
	defer ticker.Stop()
	for !b.conn.IsClosed() {
		<-ticker.C
	}
	return nil
}
