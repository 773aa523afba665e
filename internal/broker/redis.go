package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisRetryDelay = time.Second

// RedisBroker - реализация Broker поверх списков Redis.
// Каждая пара exchange/routingKey - отдельный список; подписчики одного списка конкурируют за сообщения.
type RedisBroker struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	wg          sync.WaitGroup
}

// NewRedisBroker создает новый RedisBroker
func NewRedisBroker(client *redis.Client, logger *logrus.Logger) *RedisBroker {
	return &RedisBroker{
		redisClient: client,
		logger:      logger,
	}
}

func redisQueueKey(exchange, routingKey string) string {
	return fmt.Sprintf("%s:%s", exchange, routingKey)
}

// Publish публикует событие в очередь Redis
func (b *RedisBroker) Publish(ctx context.Context, exchange, routingKey string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// LPUSH добавляет событие в левую часть списка, потребитель забирает справа
	if err := b.redisClient.LPush(ctx, redisQueueKey(exchange, routingKey), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event to Redis: %w", err)
	}
	return nil
}

// Subscribe запускает горутину, которая вычитывает очередь до отмены ctx.
// Отмена прекращает BRPOP; уже извлеченное сообщение обрабатывается с ctx без отмены.
func (b *RedisBroker) Subscribe(ctx context.Context, exchange, routingKey, queue string, handler Handler) error {
	key := redisQueueKey(exchange, routingKey)
	log := b.logger.WithFields(logrus.Fields{
		"broker": "redis",
		"key":    key,
		"queue":  queue,
	})
	log.Info("Starting queue consumer...")
	hctx := handlerContext(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				log.Info("Stopping queue consumer.")
				return
			default:
				// BRPOP с таймаутом, чтобы периодически проверять ctx
				result, err := b.redisClient.BRPop(ctx, time.Second, key).Result()
				if err != nil {
					if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
						continue
					}
					log.WithError(err).Error("Failed to pop message from Redis")
					time.Sleep(redisRetryDelay)
					continue
				}

				// result[0] - ключ, result[1] - значение
				handler(hctx, []byte(result[1]))
			}
		}
	}()
	return nil
}

// Close дожидается остановки всех потребителей; клиент Redis закрывает владелец
func (b *RedisBroker) Close() error {
	b.wg.Wait()
	return nil
}
