package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shenikar/incident_triage/internal/classification"
	"github.com/shenikar/incident_triage/internal/config"
	"github.com/shenikar/incident_triage/internal/models"
	"github.com/shenikar/incident_triage/internal/service"
	"github.com/shenikar/incident_triage/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var apiKeyHeader = map[string]string{"X-API-Key": "test-api-key"}

// newTestHandler создает новый экземпляр Handler с мокированным сервисом
func newTestHandler(t *testing.T, apiKeys ...string) (*Handler, *mocks.MockIncidentService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockIncidentService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		APIKeys: apiKeys,
	}

	handler := NewHandler(mockService, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return handler, mockService, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validCreateRequest() CreateIncidentRequest {
	lat, lon := -34.6, -58.4
	return CreateIncidentRequest{
		From:      "5491100000000",
		WaID:      "5491100000000",
		Name:      "Ana",
		MessageID: "wamid.1",
		Timestamp: time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC),
		Text:      "Hay un incendio con personas atrapadas",
		Type:      "incendio",
		Latitude:  &lat,
		Longitude: &lon,
	}
}

func storedIncident(id uuid.UUID) *models.Incident {
	return &models.Incident{
		ID:                    id,
		Name:                  "Ana",
		MessageID:             "wamid.1",
		Text:                  "Hay un incendio con personas atrapadas",
		ClaimedType:           "incendio",
		Status:                models.StatusPending,
		Priority:              models.PriorityCritical,
		DetectedType:          "incendio",
		AssignedResources:     []string{"bomberos", "ambulancia", "policia"},
		ClassificationScore:   14,
		ClassificationFactors: []string{"Type: incendio (9 pts)"},
		ResponseTime:          "<5 minutes",
		CreatedAt:             time.Now(),
		UpdatedAt:             time.Now(),
	}
}

func TestCreateIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	reqBody := validCreateRequest()

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, report *models.IncidentReport) (*models.Incident, error) {
			// Маппер должен перенести заявленный тип и координаты
			assert.Equal(t, "incendio", report.ClaimedType)
			require.NotNil(t, report.Latitude)
			assert.Equal(t, -34.6, *report.Latitude)
			return storedIncident(incidentID), nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, "critica", resp.Priority)
	assert.Equal(t, "pendiente", resp.Status)
	assert.Equal(t, []string{"bomberos", "ambulancia", "policia"}, resp.AssignedResources)
}

func TestCreateIncident_InvalidJSON(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(`{"name": "test"`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateIncident_ValidationError(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*CreateIncidentRequest)
	}{
		{"missing message_id", func(r *CreateIncidentRequest) { r.MessageID = "" }},
		{"missing tipo", func(r *CreateIncidentRequest) { r.Type = "" }},
		{"latitude out of range", func(r *CreateIncidentRequest) {
			lat := 91.0
			r.Latitude = &lat
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, mockService, router := newTestHandler(t)
			reqBody := validCreateRequest()
			tc.mutate(&reqBody)

			mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

			bodyBytes, _ := json.Marshal(reqBody)
			w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes))

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateIncident_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("service error")).
		Times(1)

	bodyBytes, _ := json.Marshal(validCreateRequest())
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestCreateIncident_PublishFailed(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		Return(storedIncident(incidentID), fmt.Errorf("service: %w: broker down", service.ErrEventNotPublished)).
		Times(1)

	bodyBytes, _ := json.Marshal(validCreateRequest())
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp PublishFailedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Incident)
	assert.Equal(t, incidentID, resp.Incident.ID)
	assert.NotEmpty(t, resp.Error)
}

func TestGetIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().
		GetIncident(gomock.Any(), incidentID).
		Return(storedIncident(incidentID), nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/"+incidentID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, "incendio", resp.Type)
}

func TestGetIncident_InvalidID(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().GetIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/incidents/invalid-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestGetIncident_NotFound(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().
		GetIncident(gomock.Any(), incidentID).
		Return(nil, fmt.Errorf("incident with id %s: %w", incidentID, service.ErrIncidentNotFound)).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/"+incidentID.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "incident not found")
}

func TestGetIncident_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().
		GetIncident(gomock.Any(), incidentID).
		Return(nil, errors.New("database error")).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/"+incidentID.String(), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListIncidents_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	expected := []*models.Incident{storedIncident(uuid.New()), storedIncident(uuid.New())}

	mockService.EXPECT().
		FindIncidents(gomock.Any(), models.IncidentFilter{}).
		Return(expected, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestListIncidents_WithFilters(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		FindIncidents(gomock.Any(), models.IncidentFilter{
			Status:   models.StatusPending,
			Type:     "robo",
			Priority: models.PriorityHigh,
		}).
		Return([]*models.Incident{}, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents?status=pendiente&type=robo&priority=alta", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListIncidents_InvalidFilter(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().FindIncidents(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/incidents?status=cerrado", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListIncidents_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		FindIncidents(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("service error")).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUpdateIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	updated := storedIncident(incidentID)
	updated.Status = models.StatusResolved

	mockService.EXPECT().
		UpdateIncident(gomock.Any(), incidentID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, patch models.IncidentPatch) (*models.Incident, error) {
			require.NotNil(t, patch.Status)
			assert.Equal(t, models.StatusResolved, *patch.Status)
			// Не переданные поля не должны попадать в патч
			assert.Nil(t, patch.Notes)
			assert.Nil(t, patch.AssignedResources)
			return updated, nil
		}).Times(1)

	w := makeRequest(router, "PATCH", "/api/v1/incidents/"+incidentID.String(),
		bytes.NewBufferString(`{"status":"resuelto","unknown_field":true}`))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "resuelto", resp.Status)
}

func TestUpdateIncident_InvalidID(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().UpdateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "PATCH", "/api/v1/incidents/invalid-uuid", bytes.NewBufferString(`{"notes":"x"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestUpdateIncident_InvalidStatus(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().UpdateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "PATCH", "/api/v1/incidents/"+uuid.NewString(), bytes.NewBufferString(`{"status":"cerrado"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateIncident_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", fmt.Errorf("wrapped: %w", service.ErrIncidentNotFound), http.StatusNotFound},
		{"invalid transition", fmt.Errorf("%w: resuelto -> pendiente", service.ErrInvalidTransition), http.StatusConflict},
		{"service error", errors.New("database error"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, mockService, router := newTestHandler(t)
			incidentID := uuid.New()

			mockService.EXPECT().
				UpdateIncident(gomock.Any(), incidentID, gomock.Any()).
				Return(nil, tc.err).
				Times(1)

			w := makeRequest(router, "PATCH", "/api/v1/incidents/"+incidentID.String(), bytes.NewBufferString(`{"status":"pendiente"}`))

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestGetSummary_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		GetSummary(gomock.Any()).
		Return(&models.IncidentSummary{
			Total:      2,
			ByStatus:   map[models.Status]int{models.StatusPending: 2},
			ByType:     map[string]int{"robo": 2},
			ByPriority: map[models.Priority]int{models.PriorityHigh: 2},
		}, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/stats/summary", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.ByStatus["pendiente"])
	assert.Equal(t, 2, resp.ByPriority["alta"])
}

func TestGetSummary_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().GetSummary(gomock.Any()).Return(nil, errors.New("service error")).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/stats/summary", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestClassificationOverview_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		ClassificationOverview().
		Return(classification.DefaultCatalog().Overview()).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/classification/overview", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active_rules":10`)
}

func TestHealthCheck_Success(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"service":"ms-incidentes"`)
}

// newHealthRouter собирает роутер с заданными проверками зависимостей
func newHealthRouter(t *testing.T, checks ...HealthCheck) *gin.Engine {
	ctrl := gomock.NewController(t)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	handler := NewHandler(mocks.NewMockIncidentService(ctrl), logger, &config.Config{}, checks...)
	handler.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestHealthCheck_DependenciesUp(t *testing.T) {
	var pinged []string
	check := func(name string) HealthCheck {
		return HealthCheck{Name: name, Check: func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			pinged = append(pinged, name)
			return nil
		}}
	}
	router := newHealthRouter(t, check("postgres"), check("redis"))

	w := makeRequest(router, "GET", "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"postgres", "redis"}, pinged)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, resp.Checks)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), resp.Timestamp)
}

func TestHealthCheck_DependencyDown(t *testing.T) {
	router := newHealthRouter(t,
		HealthCheck{Name: "postgres", Check: func(context.Context) error { return errors.New("connection refused") }},
		HealthCheck{Name: "redis", Check: func(context.Context) error { return nil }},
	)

	w := makeRequest(router, "GET", "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "ms-incidentes", resp.Service)
	assert.Equal(t, map[string]string{"postgres": "unavailable", "redis": "ok"}, resp.Checks)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRoutes_RequireAPIKeyWhenConfigured(t *testing.T) {
	_, mockService, router := newTestHandler(t, "test-api-key")

	mockService.EXPECT().FindIncidents(gomock.Any(), gomock.Any()).Return([]*models.Incident{}, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = makeRequest(router, "GET", "/api/v1/incidents", nil, apiKeyHeader)
	assert.Equal(t, http.StatusOK, w.Code)

	// Health и overview доступны без ключа
	w = makeRequest(router, "GET", "/api/v1/system/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyAuthMiddleware_Success(t *testing.T) {
	// Создаем Gin-роутер и добавляем middleware
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{
		APIKeys: []string{"other-key", "valid-key"},
	}

	router.Use(APIKeyAuthMiddleware(cfg, logger))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil, map[string]string{"X-API-Key": "valid-key"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = makeRequest(router, "GET", "/test", nil, map[string]string{"Authorization": "Bearer valid-key"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyAuthMiddleware_MissingKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{
		APIKeys: []string{"valid-key"},
	}

	router.Use(APIKeyAuthMiddleware(cfg, logger))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil) // Нет API ключа
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "API key required")
}

func TestAPIKeyAuthMiddleware_InvalidKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{
		APIKeys: []string{"valid-key"},
	}

	router.Use(APIKeyAuthMiddleware(cfg, logger))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil, map[string]string{"X-API-Key": "invalid-key"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}
