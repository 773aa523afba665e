package v1

import "github.com/shenikar/incident_triage/internal/models"

// DTOToIncidentReport преобразует DTO создания в входящее сообщение
func DTOToIncidentReport(dto CreateIncidentRequest) *models.IncidentReport {
	return &models.IncidentReport{
		From:        dto.From,
		WaID:        dto.WaID,
		Name:        dto.Name,
		MessageID:   dto.MessageID,
		Timestamp:   dto.Timestamp,
		Text:        dto.Text,
		ClaimedType: dto.Type,
		Latitude:    dto.Latitude,
		Longitude:   dto.Longitude,
	}
}

// DTOToIncidentPatch преобразует DTO обновления в патч; отсутствующие поля остаются nil
func DTOToIncidentPatch(dto UpdateIncidentRequest) models.IncidentPatch {
	patch := models.IncidentPatch{
		AssignedResources: dto.AssignedResources,
		Notes:             dto.Notes,
	}
	if dto.Status != nil {
		status := models.Status(*dto.Status)
		patch.Status = &status
	}
	return patch
}

func QueryToIncidentFilter(q ListIncidentsQuery) models.IncidentFilter {
	return models.IncidentFilter{
		Status:   models.Status(q.Status),
		Type:     q.Type,
		Priority: models.Priority(q.Priority),
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:                    model.ID,
		From:                  model.From,
		WaID:                  model.WaID,
		Name:                  model.Name,
		MessageID:             model.MessageID,
		Timestamp:             model.Timestamp,
		Text:                  model.Text,
		Type:                  model.ClaimedType,
		Latitude:              model.Latitude,
		Longitude:             model.Longitude,
		Status:                string(model.Status),
		Priority:              string(model.Priority),
		DetectedType:          model.DetectedType,
		AssignedResources:     model.AssignedResources,
		Notes:                 model.Notes,
		ClassificationScore:   model.ClassificationScore,
		ClassificationFactors: model.ClassificationFactors,
		ResponseTime:          model.ResponseTime,
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

func SummaryToResponse(summary *models.IncidentSummary) SummaryResponse {
	resp := SummaryResponse{
		Total:      summary.Total,
		ByStatus:   make(map[string]int, len(summary.ByStatus)),
		ByType:     make(map[string]int, len(summary.ByType)),
		ByPriority: make(map[string]int, len(summary.ByPriority)),
	}
	for k, v := range summary.ByStatus {
		resp.ByStatus[string(k)] = v
	}
	for k, v := range summary.ByType {
		resp.ByType[k] = v
	}
	for k, v := range summary.ByPriority {
		resp.ByPriority[string(k)] = v
	}
	return resp
}
