package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/incident_triage/internal/config"
	"github.com/shenikar/incident_triage/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	serviceName        = "ms-incidentes"
	healthCheckTimeout = 2 * time.Second
)

// HealthCheck проверяет доступность одной внешней зависимости
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handler struct {
	incidentService service.IncidentService
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
	healthChecks    []HealthCheck
	now             func() time.Time
}

func NewHandler(incidentService service.IncidentService, logger *logrus.Logger, cfg *config.Config, healthChecks ...HealthCheck) *Handler {
	return &Handler{
		incidentService: incidentService,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
		healthChecks:    healthChecks,
		now:             time.Now,
	}
}

// @Summary Register an incident report
// @Description Classify an incoming report, persist it and notify the resources service. Requires API key when keys are configured.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param incident body CreateIncidentRequest true "Incident report"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Failure 502 {object} PublishFailedResponse "Incident stored but event not published"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	log := h.logger.WithField("method", "createIncident")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incident, err := h.incidentService.CreateIncident(c.Request.Context(), DTOToIncidentReport(input))
	if err != nil {
		if errors.Is(err, service.ErrEventNotPublished) && incident != nil {
			log.WithError(err).WithField("id", incident.ID).Error("Incident stored but event not published")
			c.JSON(http.StatusBadGateway, PublishFailedResponse{
				Error:    "incident stored but event not published",
				Incident: ModelToIncidentResponse(incident),
			})
			return
		}
		log.WithError(err).Error("Failed to create incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(incident))
}

// @Summary Get a list of incidents
// @Description List incidents, most recent report first. Filters are combined with AND. Requires API key when keys are configured.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Status filter" Enums(pendiente, en_proceso, resuelto)
// @Param type query string false "Claimed emergency type"
// @Param priority query string false "Priority filter" Enums(baja, media, alta, critica)
// @Success 200 {array} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")

	var query ListIncidentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		log.WithError(err).Warn("Failed to bind query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}
	if err := h.validate.Struct(query); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incidents, err := h.incidentService.FindIncidents(c.Request.Context(), QueryToIncidentFilter(query))
	if err != nil {
		log.WithError(err).Error("Failed to list incident from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID. Requires API key when keys are configured.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrIncidentNotFound) {
			log.WithError(err).Warn("Incident not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		log.WithError(err).Error("Failed to get incident from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Update an incident
// @Description Partially update status, assigned resources or notes. A status change notifies the resources service. Requires API key when keys are configured.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param incident body UpdateIncidentRequest true "Incident update request"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Status transition not allowed"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [patch]
func (h *Handler) updateIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "updateIncident").WithField("id", id)

	var input UpdateIncidentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incident, err := h.incidentService.UpdateIncident(c.Request.Context(), id, DTOToIncidentPatch(input))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIncidentNotFound):
			log.WithError(err).Warn("Incident not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		case errors.Is(err, service.ErrInvalidTransition):
			log.WithError(err).Warn("Status transition rejected")
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.WithError(err).Error("Failed to update incident in service")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update incident in service"})
		}
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Get incident statistics
// @Description Totals by status, claimed type and priority. Requires API key when keys are configured.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} SummaryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/stats/summary [get]
func (h *Handler) getSummary(c *gin.Context) {
	log := h.logger.WithField("method", "getSummary")

	summary, err := h.incidentService.GetSummary(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get summary from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, SummaryToResponse(summary))
}

// @Summary Get classification overview
// @Description Active rules, emergency types, tier thresholds and modifiers of the classifier
// @Tags Classification
// @Produce json
// @Success 200 {object} classification.Overview
// @Router /classification/overview [get]
func (h *Handler) classificationOverview(c *gin.Context) {
	c.JSON(http.StatusOK, h.incidentService.ClassificationOverview())
}

// @Summary Get application health status
// @Description Ping the database and cache. Returns 503 when any dependency is unavailable.
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse "Status OK"
// @Failure 503 {object} HealthResponse "Dependency unavailable"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:  "ok",
		Service: serviceName,
	}
	code := http.StatusOK
	if len(h.healthChecks) > 0 {
		resp.Checks = make(map[string]string, len(h.healthChecks))
	}
	for _, hc := range h.healthChecks {
		if err := hc.Check(ctx); err != nil {
			h.logger.WithError(err).WithField("dependency", hc.Name).Error("Health check failed")
			resp.Checks[hc.Name] = "unavailable"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[hc.Name] = "ok"
	}
	resp.Timestamp = h.now().UTC()

	c.JSON(code, resp)
}
