package service

import (
	"context"
	"encoding/json"

	"github.com/shenikar/incident_triage/internal/models"
	"github.com/sirupsen/logrus"
)

// HandleReportMessage обрабатывает сообщение из очереди входящих сообщений.
// Некорректные сообщения логируются и отбрасываются, инцидент не создается.
// Событие о новом инциденте публикуется один раз, ошибка публикации не возвращается брокеру.
func (s *incidentService) HandleReportMessage(ctx context.Context, payload []byte) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "HandleReportMessage",
	})

	var report models.IncidentReport
	if err := json.Unmarshal(payload, &report); err != nil {
		log.WithError(err).Warn("Dropping inbound message: malformed JSON")
		s.metrics.ObserveDropped("decode")
		return
	}

	if err := s.validate.Struct(&report); err != nil {
		log.WithError(err).WithField("message_id", report.MessageID).Warn("Dropping inbound message: validation failed")
		s.metrics.ObserveDropped("validation")
		return
	}

	incident, err := s.createIncident(ctx, &report)
	if err != nil {
		log.WithError(err).WithField("message_id", report.MessageID).Error("Dropping inbound message: incident not created")
		s.metrics.ObserveDropped("persistence")
		return
	}

	// ошибка уже залогирована внутри; повторной публикации нет
	_ = s.publishNewIncident(ctx, incident)
}
