package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"

	"github.com/shenikar/incident_triage/internal/assignment"
	"github.com/shenikar/incident_triage/internal/broker"
	"github.com/shenikar/incident_triage/internal/classification"
	"github.com/shenikar/incident_triage/internal/config"
	httpapi "github.com/shenikar/incident_triage/internal/handler/http"
	v1 "github.com/shenikar/incident_triage/internal/handler/http/v1"
	"github.com/shenikar/incident_triage/internal/metrics"
	"github.com/shenikar/incident_triage/internal/repository"
	"github.com/shenikar/incident_triage/internal/service"
	"github.com/shenikar/incident_triage/pkg/logger"
	natsclient "github.com/shenikar/incident_triage/pkg/nats"
	"github.com/shenikar/incident_triage/pkg/postgres"
	redisclient "github.com/shenikar/incident_triage/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/incident_triage/docs"
)

// @title Incident Triage API
// @version 1.0
// @description Classifies emergency reports, tracks incident lifecycle and notifies the resources service.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(cfg.MigrationsPath, migrationURL)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// newBroker выбирает транспорт событий по BROKER_DRIVER
func newBroker(cfg *config.Config, redisClient *redis.Client, log *logrus.Logger) (broker.Broker, error) {
	switch cfg.BrokerDriver {
	case config.BrokerRedis:
		return broker.NewRedisBroker(redisClient, log), nil
	case config.BrokerNATS:
		conn, err := natsclient.Connect(cfg, log)
		if err != nil {
			return nil, err
		}
		return broker.NewNATSBroker(conn, log), nil
	default:
		return nil, fmt.Errorf("unsupported broker driver %q", cfg.BrokerDriver)
	}
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Инициализация брокера событий
	eventBroker, err := newBroker(cfg, redisClient, log)
	if err != nil {
		log.Fatalf("Failed to initialize broker: %v", err)
	}
	log.WithField("driver", cfg.BrokerDriver).Info("Broker initialized")

	collector, err := metrics.NewCollector()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Инициализация репозиториев
	incidentRepo := repository.NewIncidentRepository(dbpool, redisClient, cfg.CacheTTL)

	// Классификатор и таблица ресурсов неизменяемы и разделяются между запросами
	engine := classification.NewEngine(classification.DefaultCatalog(), log)
	resources := assignment.DefaultTable()

	// Инициализация сервисов
	incidentService := service.NewIncidentService(incidentRepo, eventBroker, engine, resources, log, cfg, collector)

	// Подписка на входящие сообщения от шлюза мессенджера
	if err := eventBroker.Subscribe(ctx, cfg.InboundExchange, cfg.InboundRoutingKey, cfg.InboundQueue, incidentService.HandleReportMessage); err != nil {
		log.Fatalf("Failed to subscribe to inbound reports: %v", err)
	}

	// Инициализация хэндлеров и роутера
	handler := v1.NewHandler(incidentService, log, cfg,
		v1.HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return postgres.Ping(ctx, dbpool) }},
		v1.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redisclient.Ping(ctx, redisClient) }},
	)
	router := httpapi.NewRouter(cfg, handler, collector, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Отмена ctx прекращает прием новых сообщений; Close дожидается обработки уже полученных.
	// Обработчики работают с ctx без отмены, поэтому пул бд и Redis закрываются только после Close.
	cancel()
	if err := eventBroker.Close(); err != nil {
		log.WithError(err).Warn("Failed to close broker")
	}

	log.Info("Server gracefully stopped")
}
