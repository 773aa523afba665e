package broker

import (
	"context"
	"time"
)

// Handler обрабатывает одно доставленное сообщение
type Handler func(ctx context.Context, payload []byte)

// handlerContext отвязывает обработчик от отмены ctx подписки.
// Отмена останавливает прием новых сообщений, но уже полученное сообщение обрабатывается до конца.
func handlerContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// Publisher - интерфейс для публикации событий в обменник
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, payload any) error
}

// Subscriber - интерфейс для подписки на сообщения обменника
type Subscriber interface {
	Subscribe(ctx context.Context, exchange, routingKey, queue string, handler Handler) error
}

// Broker объединяет публикацию и подписку поверх конкретного транспорта
type Broker interface {
	Publisher
	Subscriber
	Close() error
}

const (
	RoutingKeyIncidentCreated = "incidente.nuevo"
	RoutingKeyIncidentUpdated = "incidente.actualizado"
)

// IncidentCreatedEvent - событие о новом инциденте для сервиса ресурсов
type IncidentCreatedEvent struct {
	IncidentID string    `json:"incidenteId"`
	Type       string    `json:"tipo"`
	Priority   string    `json:"prioridad"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// IncidentStatusChangedEvent - событие об изменении статуса инцидента
type IncidentStatusChangedEvent struct {
	IncidentID        string    `json:"incidenteId"`
	Status            string    `json:"estado"`
	AssignedResources []string  `json:"recursos_asignados"`
	Timestamp         time.Time `json:"timestamp"`
}
