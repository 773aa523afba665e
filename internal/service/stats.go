package service

import (
	"context"
	"fmt"

	"github.com/shenikar/incident_triage/internal/models"
	"github.com/sirupsen/logrus"
)

// GetSummary считает сводную статистику по всем инцидентам
func (s *incidentService) GetSummary(ctx context.Context) (*models.IncidentSummary, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "GetSummary",
	})

	incidents, err := s.repo.Find(ctx, models.IncidentFilter{})
	if err != nil {
		log.WithError(err).Error("Failed to load incidents for summary")
		return nil, fmt.Errorf("service: could not build summary: %w", err)
	}

	summary := summarize(incidents)
	log.WithField("total", summary.Total).Debug("Summary built")
	return summary, nil
}

func summarize(incidents []*models.Incident) *models.IncidentSummary {
	summary := &models.IncidentSummary{
		Total:      len(incidents),
		ByStatus:   make(map[models.Status]int),
		ByType:     make(map[string]int),
		ByPriority: make(map[models.Priority]int),
	}
	for _, st := range models.Statuses {
		summary.ByStatus[st] = 0
	}
	for _, p := range models.Priorities {
		summary.ByPriority[p] = 0
	}
	for _, inc := range incidents {
		summary.ByStatus[inc.Status]++
		summary.ByType[inc.ClaimedType]++
		summary.ByPriority[inc.Priority]++
	}
	return summary
}
