package models

// IncidentSummary - агрегированная статистика по инцидентам
type IncidentSummary struct {
	Total      int              `json:"total"`
	ByStatus   map[Status]int   `json:"by_status"`
	ByType     map[string]int   `json:"by_type"`
	ByPriority map[Priority]int `json:"by_priority"`
}
