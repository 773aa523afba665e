package models

import (
	"time"

	"github.com/google/uuid"
)

// Status - состояние жизненного цикла инцидента
type Status string

const (
	StatusPending    Status = "pendiente"
	StatusInProgress Status = "en_proceso"
	StatusResolved   Status = "resuelto"
)

// Statuses перечисляет все известные статусы в порядке жизненного цикла
var Statuses = []Status{StatusPending, StatusInProgress, StatusResolved}

// transitions - допустимые переходы между статусами
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusResolved},
	StatusInProgress: {StatusResolved},
	StatusResolved:   {},
}

// CanTransitionTo сообщает, допустим ли переход из s в next.
// Повторная установка того же статуса считается допустимой.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedSources возвращает статусы, из которых допустим переход в next
func AllowedSources(next Status) []Status {
	var sources []Status
	for _, s := range Statuses {
		if s.CanTransitionTo(next) {
			sources = append(sources, s)
		}
	}
	return sources
}

// Priority - уровень приоритета (baja < media < alta < critica)
type Priority string

const (
	PriorityLow      Priority = "baja"
	PriorityMedium   Priority = "media"
	PriorityHigh     Priority = "alta"
	PriorityCritical Priority = "critica"
)

// Priorities перечисляет уровни от низшего к высшему
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// IncidentReport - входящее сообщение об инциденте от шлюза мессенджера
type IncidentReport struct {
	From        string    `json:"from" validate:"required"`
	WaID        string    `json:"wa_id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	MessageID   string    `json:"message_id" validate:"required"`
	Timestamp   time.Time `json:"timestamp" validate:"required"`
	Text        string    `json:"text" validate:"required"`
	ClaimedType string    `json:"tipo" validate:"required"`
	Latitude    *float64  `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64  `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// HasLocation - координаты считаются заданными, если присутствуют обе (включая 0)
func (r *IncidentReport) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

type Incident struct {
	ID                    uuid.UUID `json:"id"`
	From                  string    `json:"from"`
	WaID                  string    `json:"wa_id"`
	Name                  string    `json:"name"`
	MessageID             string    `json:"message_id"`
	Timestamp             time.Time `json:"timestamp"`
	Text                  string    `json:"text"`
	ClaimedType           string    `json:"tipo"`
	Latitude              *float64  `json:"latitude,omitempty"`
	Longitude             *float64  `json:"longitude,omitempty"`
	Status                Status    `json:"status"`
	Priority              Priority  `json:"priority"`
	DetectedType          string    `json:"detected_type"`
	AssignedResources     []string  `json:"assigned_resources"`
	Notes                 string    `json:"notes,omitempty"`
	ClassificationScore   int       `json:"classification_score"`
	ClassificationFactors []string  `json:"classification_factors"`
	ResponseTime          string    `json:"response_time"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// IncidentPatch - частичное обновление; nil означает "поле не передано"
type IncidentPatch struct {
	Status            *Status
	AssignedResources *[]string
	Notes             *string

	// AllowedFrom ограничивает обновление текущими статусами из списка; пустой список - без ограничения
	AllowedFrom []Status
}

// IsEmpty сообщает, что патч не меняет ни одного поля
func (p IncidentPatch) IsEmpty() bool {
	return p.Status == nil && p.AssignedResources == nil && p.Notes == nil
}

// IncidentFilter - условия выборки, объединяемые через AND; пустые поля не ограничивают выборку
type IncidentFilter struct {
	Status   Status
	Type     string
	Priority Priority
}
