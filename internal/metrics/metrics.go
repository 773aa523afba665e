package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "incident_triage"

// Collector - метрики Prometheus для HTTP-трафика и конвейера обработки инцидентов.
// nil *Collector допустим и ничего не записывает.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	classifications *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	droppedMessages *prometheus.CounterVec
}

// NewCollector создает коллектор с собственным реестром
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	classifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Incidents classified, by detected type and priority tier.",
	}, []string{"type", "priority"})

	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Outbound broker events, by routing key and result.",
	}, []string{"routing_key", "result"})

	droppedMessages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inbound_messages_dropped_total",
		Help:      "Inbound broker messages dropped without creating an incident.",
	}, []string{"reason"})

	for _, c := range []prometheus.Collector{requestDuration, requestTotal, classifications, eventsPublished, droppedMessages} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		classifications: classifications,
		eventsPublished: eventsPublished,
		droppedMessages: droppedMessages,
	}, nil
}

// Handler возвращает HTTP-обработчик для отдачи метрик
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GinMiddleware считает запросы и задержку по шаблону маршрута
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		if c == nil {
			return
		}
		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		method := ctx.Request.Method

		c.requestTotal.WithLabelValues(method, path, status).Inc()
		c.requestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
	}
}

// ObserveClassification учитывает результат классификации по типу и приоритету
func (c *Collector) ObserveClassification(emergencyType, priority string) {
	if c == nil {
		return
	}
	c.classifications.WithLabelValues(emergencyType, priority).Inc()
}

// ObservePublish учитывает попытку публикации события
func (c *Collector) ObservePublish(routingKey string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.eventsPublished.WithLabelValues(routingKey, result).Inc()
}

// ObserveDropped учитывает входящее сообщение, отброшенное без создания инцидента
func (c *Collector) ObserveDropped(reason string) {
	if c == nil {
		return
	}
	c.droppedMessages.WithLabelValues(reason).Inc()
}
