package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/incident_triage/internal/broker"
	"github.com/shenikar/incident_triage/internal/classification"
	"github.com/shenikar/incident_triage/internal/config"
	"github.com/shenikar/incident_triage/internal/metrics"
	"github.com/shenikar/incident_triage/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrIncidentNotFound - инцидента с таким id нет; это не ошибка инфраструктуры
	ErrIncidentNotFound = errors.New("incident not found")
	// ErrInvalidTransition - недопустимый переход статуса (только в строгом режиме)
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrEventNotPublished - инцидент сохранен, но событие для сервиса ресурсов не отправлено
	ErrEventNotPublished = errors.New("incident event not published")
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	Find(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	UpdateAndReturn(ctx context.Context, id uuid.UUID, patch models.IncidentPatch) (*models.Incident, error)
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// Classifier - движок классификации сообщений
type Classifier interface {
	Classify(report *models.IncidentReport) classification.Result
	Overview() classification.Overview
}

// ResourceResolver возвращает роли служб реагирования по типу происшествия
type ResourceResolver interface {
	Resolve(emergencyType string) []string
}

// IncidentService определяет контракт бизнес-логики жизненного цикла инцидентов
type IncidentService interface {
	CreateIncident(ctx context.Context, report *models.IncidentReport) (*models.Incident, error)
	ListIncidents(ctx context.Context) ([]*models.Incident, error)
	FindIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
	FindByType(ctx context.Context, emergencyType string) ([]*models.Incident, error)
	FindByStatus(ctx context.Context, status models.Status) ([]*models.Incident, error)
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	UpdateIncident(ctx context.Context, id uuid.UUID, patch models.IncidentPatch) (*models.Incident, error)
	GetSummary(ctx context.Context) (*models.IncidentSummary, error)
	ClassificationOverview() classification.Overview
	HandleReportMessage(ctx context.Context, payload []byte)
}

type incidentService struct {
	repo       IncidentRepository
	publisher  broker.Publisher
	classifier Classifier
	resources  ResourceResolver
	logger     *logrus.Logger
	cfg        *config.Config
	metrics    *metrics.Collector
	validate   *validator.Validate
	now        func() time.Time
}

func NewIncidentService(
	repo IncidentRepository,
	publisher broker.Publisher,
	classifier Classifier,
	resources ResourceResolver,
	logger *logrus.Logger,
	cfg *config.Config,
	collector *metrics.Collector,
) IncidentService {
	return &incidentService{
		repo:       repo,
		publisher:  publisher,
		classifier: classifier,
		resources:  resources,
		logger:     logger,
		cfg:        cfg,
		metrics:    collector,
		validate:   validator.New(),
		now:        time.Now,
	}
}

// CreateIncident - синхронный путь создания: ошибка публикации события возвращается вызывающему
func (s *incidentService) CreateIncident(ctx context.Context, report *models.IncidentReport) (*models.Incident, error) {
	incident, err := s.createIncident(ctx, report)
	if err != nil {
		return nil, err
	}

	if err := s.publishNewIncident(ctx, incident); err != nil {
		return incident, fmt.Errorf("service: %w: %w", ErrEventNotPublished, err)
	}
	return incident, nil
}

// createIncident классифицирует сообщение и сохраняет инцидент, не публикуя событий
func (s *incidentService) createIncident(ctx context.Context, report *models.IncidentReport) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "incident",
		"method":     "CreateIncident",
		"message_id": report.MessageID,
	})
	log.Info("Attempting to create a new incident")

	result := s.classifier.Classify(report)
	s.metrics.ObserveClassification(result.EmergencyType, string(result.Priority))

	incident := &models.Incident{
		From:                  report.From,
		WaID:                  report.WaID,
		Name:                  report.Name,
		MessageID:             report.MessageID,
		Timestamp:             report.Timestamp,
		Text:                  report.Text,
		ClaimedType:           report.ClaimedType,
		Latitude:              report.Latitude,
		Longitude:             report.Longitude,
		Status:                models.StatusPending,
		Priority:              result.Priority,
		DetectedType:          result.EmergencyType,
		AssignedResources:     s.resources.Resolve(report.ClaimedType),
		ClassificationScore:   result.Score,
		ClassificationFactors: result.Factors,
		ResponseTime:          result.ResponseTime,
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}

	log.WithFields(logrus.Fields{
		"incident_id":   incident.ID,
		"type":          result.EmergencyType,
		"priority":      result.Priority,
		"score":         result.Score,
		"response_time": result.ResponseTime,
	}).Info("Incident created successfully")
	return incident, nil
}

// publishNewIncident - единственное место, где публикуется событие о новом инциденте
func (s *incidentService) publishNewIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "publishNewIncident",
		"incident_id": incident.ID,
	})

	event := broker.IncidentCreatedEvent{
		IncidentID: incident.ID.String(),
		Type:       incident.ClaimedType,
		Priority:   string(incident.Priority),
		Latitude:   incident.Latitude,
		Longitude:  incident.Longitude,
		Timestamp:  incident.Timestamp,
	}

	err := s.publisher.Publish(ctx, s.cfg.OutboundExchange, broker.RoutingKeyIncidentCreated, event)
	s.metrics.ObservePublish(broker.RoutingKeyIncidentCreated, err)
	if err != nil {
		log.WithError(err).Error("Failed to publish new incident event")
		return err
	}

	log.Info("New incident event published")
	return nil
}

// ListIncidents возвращает все инциденты, новые первыми
func (s *incidentService) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	return s.FindIncidents(ctx, models.IncidentFilter{})
}

// FindByType возвращает инциденты с заявленным типом
func (s *incidentService) FindByType(ctx context.Context, emergencyType string) ([]*models.Incident, error) {
	return s.FindIncidents(ctx, models.IncidentFilter{Type: emergencyType})
}

// FindByStatus возвращает инциденты с указанным статусом
func (s *incidentService) FindByStatus(ctx context.Context, status models.Status) ([]*models.Incident, error) {
	return s.FindIncidents(ctx, models.IncidentFilter{Status: status})
}

// FindIncidents возвращает инциденты, удовлетворяющие всем заданным условиям фильтра
func (s *incidentService) FindIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "incident",
		"method":   "FindIncidents",
		"status":   filter.Status,
		"type":     filter.Type,
		"priority": filter.Priority,
	})
	log.Debug("Listing incidents")

	incidents, err := s.repo.Find(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Debug("Incidents listed successfully")
	return incidents, nil
}

// GetIncident получает инцидент по ID, сначала из кеша
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})
	log.Debug("Fetching incident by ID")

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident from cache")
	}
	if cached != nil {
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrIncidentNotFound) {
			log.Warn("Incident not found")
			return nil, err
		}
		log.WithError(err).Error("Failed to get incident in repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}
	return incident, nil
}

// UpdateIncident применяет частичное обновление и уведомляет о смене статуса
func (s *incidentService) UpdateIncident(ctx context.Context, id uuid.UUID, patch models.IncidentPatch) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncident",
		"incident_id": id,
	})
	log.Info("Attempting to update incident")

	// В строгом режиме проверка перехода выполняется в том же UPDATE
	if s.cfg.StrictStatusTransitions && patch.Status != nil {
		patch.AllowedFrom = models.AllowedSources(*patch.Status)
	}

	updated, err := s.repo.UpdateAndReturn(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ErrIncidentNotFound) {
			log.Warn("Attempted to update a non-existent incident")
			return nil, err
		}
		if errors.Is(err, ErrInvalidTransition) {
			log.WithError(err).Warn("Status transition rejected")
			return nil, err
		}
		log.WithError(err).Error("Failed to update incident in repository")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}
	log.Info("Incident updated successfully")

	if patch.Status != nil {
		s.publishStatusChanged(ctx, updated)
	}
	return updated, nil
}

// publishStatusChanged публикует смену статуса; ошибка только логируется
func (s *incidentService) publishStatusChanged(ctx context.Context, incident *models.Incident) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "publishStatusChanged",
		"incident_id": incident.ID,
		"status":      incident.Status,
	})

	event := broker.IncidentStatusChangedEvent{
		IncidentID:        incident.ID.String(),
		Status:            string(incident.Status),
		AssignedResources: incident.AssignedResources,
		Timestamp:         s.now(),
	}

	err := s.publisher.Publish(ctx, s.cfg.OutboundExchange, broker.RoutingKeyIncidentUpdated, event)
	s.metrics.ObservePublish(broker.RoutingKeyIncidentUpdated, err)
	if err != nil {
		log.WithError(err).Error("Failed to publish status change event")
		return
	}
	log.Info("Status change event published")
}

// ClassificationOverview возвращает сводку по активному каталогу правил
func (s *incidentService) ClassificationOverview() classification.Overview {
	return s.classifier.Overview()
}
