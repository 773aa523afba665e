package classification

import (
	"fmt"
	"strings"
	"time"

	"github.com/shenikar/incident_triage/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// GeneralType - тип для сообщений, не совпавших ни с одним правилом
	GeneralType = "general"

	generalBaseScore = 3
	multiVictimBonus = 1

	nightStartHour = 22
	nightEndHour   = 6

	undeterminedResponse = "Undetermined"
)

// multiVictimIndicators - фиксированный словарь признаков нескольких пострадавших
var multiVictimIndicators = []string{
	"nosotros", "familia", "personas", "gente", "varios",
	"muchos", "todos", "niños", "adultos", "heridos",
}

var responseTimes = map[models.Priority]string{
	models.PriorityCritical: "<5 minutes",
	models.PriorityHigh:     "<15 minutes",
	models.PriorityMedium:   "<30 minutes",
	models.PriorityLow:      "When possible",
}

// Result - результат классификации одного сообщения
type Result struct {
	EmergencyType string
	Score         int
	Priority      models.Priority
	Factors       []string
	ResponseTime  string
}

// Engine - детерминированный классификатор на правилах.
// Единственный источник недетерминизма - часы, которые можно подменить через WithClock.
type Engine struct {
	catalog Catalog
	now     func() time.Time
	logger  *logrus.Logger
}

type Option func(*Engine)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(catalog Catalog, logger *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog.clone(),
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Overview возвращает сводку по каталогу движка
func (e *Engine) Overview() Overview {
	return e.catalog.Overview()
}

// Classify вычисляет тип, балл, приоритет и рекомендуемое время реакции.
// Никогда не возвращает ошибку: нераспознанный текст уходит в тип general.
func (e *Engine) Classify(report *models.IncidentReport) Result {
	text := strings.ToLower(report.Text)
	weights := e.catalog.Weights

	rule := e.detectRule(text)
	emergencyType, score := GeneralType, generalBaseScore
	if rule != nil {
		emergencyType, score = rule.Type, rule.BasePriority
	} else {
		// Текст сообщения содержит персональные данные и в лог не попадает
		e.logger.WithFields(logrus.Fields{
			"message_id":  report.MessageID,
			"text_length": len([]rune(report.Text)),
		}).Warn("Could not classify message, falling back to general")
	}

	factors := []string{fmt.Sprintf("Type: %s (%d pts)", emergencyType, score)}

	if report.HasLocation() {
		score += weights.Location
		factors = append(factors, fmt.Sprintf("GPS available (+%d pts)", weights.Location))
	}

	if isNight(e.now().Hour()) && (rule == nil || rule.Modifiers.TimeOfDay != DayOnly) {
		score += weights.NightHours
		factors = append(factors, fmt.Sprintf("Night hours (+%d pt)", weights.NightHours))
	}

	if rule != nil && len(rule.Modifiers.Intensifiers) > 0 {
		if found := matchAll(text, rule.Modifiers.Intensifiers); len(found) > 0 {
			score += weights.UrgentWords
			factors = append(factors, fmt.Sprintf("Urgent words: %s (+%d pt)", strings.Join(found, ", "), weights.UrgentWords))
		}
	}

	if containsAny(text, multiVictimIndicators) {
		score += multiVictimBonus
		factors = append(factors, fmt.Sprintf("Multiple people affected (+%d pt)", multiVictimBonus))
	}

	priority := e.catalog.Thresholds.tierFor(score)
	result := Result{
		EmergencyType: emergencyType,
		Score:         score,
		Priority:      priority,
		Factors:       factors,
		ResponseTime:  ResponseTimeFor(priority),
	}

	e.logger.WithFields(logrus.Fields{
		"type":     result.EmergencyType,
		"score":    result.Score,
		"priority": result.Priority,
		"factors":  len(result.Factors),
	}).Debug("Classification completed")

	return result
}

// detectRule возвращает первое правило каталога, чьё ключевое слово встречается в тексте
func (e *Engine) detectRule(text string) *Rule {
	for i := range e.catalog.Rules {
		if containsAny(text, e.catalog.Rules[i].Keywords) {
			return &e.catalog.Rules[i]
		}
	}
	return nil
}

// ResponseTimeFor возвращает рекомендуемое время реакции для уровня приоритета
func ResponseTimeFor(priority models.Priority) string {
	if label, ok := responseTimes[priority]; ok {
		return label
	}
	return undeterminedResponse
}

// isNight - окно [22:00, 06:00)
func isNight(hour int) bool {
	return hour >= nightStartHour || hour < nightEndHour
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func matchAll(text string, words []string) []string {
	var found []string
	for _, w := range words {
		if strings.Contains(text, strings.ToLower(w)) {
			found = append(found, w)
		}
	}
	return found
}
