package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateIncidentRequest DTO для регистрации сообщения об инциденте
// @Description DTO для регистрации сообщения об инциденте
type CreateIncidentRequest struct {
	From      string    `json:"from" validate:"required"`
	WaID      string    `json:"wa_id" validate:"required"`
	Name      string    `json:"name" validate:"required,max=255"`
	MessageID string    `json:"message_id" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Text      string    `json:"text" validate:"required"`
	Type      string    `json:"tipo" validate:"required"`
	Latitude  *float64  `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64  `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// UpdateIncidentRequest DTO для частичного обновления инцидента
// @Description DTO для частичного обновления инцидента; отсутствующие поля не меняются
type UpdateIncidentRequest struct {
	Status            *string   `json:"status,omitempty" validate:"omitempty,oneof=pendiente en_proceso resuelto"`
	AssignedResources *[]string `json:"assigned_resources,omitempty" validate:"omitempty,dive,required"`
	Notes             *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ListIncidentsQuery параметры фильтрации списка инцидентов
type ListIncidentsQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=pendiente en_proceso resuelto"`
	Type     string `form:"type"`
	Priority string `form:"priority" validate:"omitempty,oneof=baja media alta critica"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID                    uuid.UUID `json:"id"`
	From                  string    `json:"from"`
	WaID                  string    `json:"wa_id"`
	Name                  string    `json:"name"`
	MessageID             string    `json:"message_id"`
	Timestamp             time.Time `json:"timestamp"`
	Text                  string    `json:"text"`
	Type                  string    `json:"tipo"`
	Latitude              *float64  `json:"latitude,omitempty"`
	Longitude             *float64  `json:"longitude,omitempty"`
	Status                string    `json:"status"`
	Priority              string    `json:"priority"`
	DetectedType          string    `json:"detected_type"`
	AssignedResources     []string  `json:"assigned_resources"`
	Notes                 string    `json:"notes,omitempty"`
	ClassificationScore   int       `json:"classification_score"`
	ClassificationFactors []string  `json:"classification_factors"`
	ResponseTime          string    `json:"response_time"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// PublishFailedResponse - инцидент сохранен, но событие не отправлено
// @Description Инцидент сохранен, но событие для сервиса ресурсов не отправлено
type PublishFailedResponse struct {
	Error    string            `json:"error"`
	Incident *IncidentResponse `json:"incident"`
}

// SummaryResponse DTO со сводной статистикой
// @Description DTO со сводной статистикой
type SummaryResponse struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByType     map[string]int `json:"by_type"`
	ByPriority map[string]int `json:"by_priority"`
}

// HealthResponse DTO для health-check
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
