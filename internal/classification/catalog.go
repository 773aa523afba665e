package classification

import "github.com/shenikar/incident_triage/internal/models"

// TimeSensitivity - в какое время суток правило считается более опасным
type TimeSensitivity string

const (
	DayOnly   TimeSensitivity = "day-only"
	NightOnly TimeSensitivity = "night-only"
	Always    TimeSensitivity = "always"
)

// Modifiers - флаги применимости модификаторов для правила
type Modifiers struct {
	Location     bool
	TimeOfDay    TimeSensitivity
	Intensifiers []string
	UrbanContext bool
}

// Rule - запись каталога: ключевые слова, базовый балл и модификаторы
type Rule struct {
	Type         string
	Keywords     []string
	BasePriority int
	Modifiers    Modifiers
}

// Weights - глобальные веса модификаторов
type Weights struct {
	Location    int
	NightHours  int
	UrgentWords int
	UrbanZone   int
}

// Thresholds - нижние границы баллов для уровней приоритета
type Thresholds struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

// Catalog - неизменяемая после загрузки конфигурация классификации.
// Порядок Rules значим: побеждает первое совпадение.
type Catalog struct {
	Rules      []Rule
	Weights    Weights
	Thresholds Thresholds
}

// Overview - краткое описание активного каталога
type Overview struct {
	ActiveRules     int        `json:"active_rules"`
	EmergencyTypes  []string   `json:"emergency_types"`
	Thresholds      Thresholds `json:"thresholds"`
	ActiveModifiers []string   `json:"active_modifiers"`
}

// Overview возвращает сводку по каталогу
func (c Catalog) Overview() Overview {
	types := make([]string, 0, len(c.Rules))
	for _, r := range c.Rules {
		types = append(types, r.Type)
	}
	return Overview{
		ActiveRules:     len(c.Rules),
		EmergencyTypes:  types,
		Thresholds:      c.Thresholds,
		ActiveModifiers: []string{"location", "night_hours", "urgent_words", "urban_zone"},
	}
}

// clone делает глубокую копию, чтобы движок не разделял срезы с вызывающим кодом
func (c Catalog) clone() Catalog {
	rules := make([]Rule, len(c.Rules))
	for i, r := range c.Rules {
		r.Keywords = append([]string(nil), r.Keywords...)
		r.Modifiers.Intensifiers = append([]string(nil), r.Modifiers.Intensifiers...)
		rules[i] = r
	}
	c.Rules = rules
	return c
}

// tierFor переводит итоговый балл в уровень приоритета; граница относится к более высокому уровню
func (t Thresholds) tierFor(score int) models.Priority {
	switch {
	case score >= t.Critical:
		return models.PriorityCritical
	case score >= t.High:
		return models.PriorityHigh
	case score >= t.Medium:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// DefaultCatalog возвращает стандартный каталог правил
func DefaultCatalog() Catalog {
	return Catalog{
		Rules: []Rule{
			// Критические: прямая угроза жизни
			{
				Type:         "incendio",
				Keywords:     []string{"incendio", "fuego", "humo", "quemando", "llamas", "ardiendo"},
				BasePriority: 9,
				Modifiers: Modifiers{
					Location:     true,
					TimeOfDay:    Always,
					Intensifiers: []string{"grande", "edificio", "personas", "atrapados", "explosion"},
					UrbanContext: true,
				},
			},
			{
				Type:         "medica",
				Keywords:     []string{"infarto", "paro", "cardiaco", "respirar", "inconsciente", "sangre", "herido"},
				BasePriority: 10,
				Modifiers: Modifiers{
					Location:     true,
					TimeOfDay:    Always,
					Intensifiers: []string{"grave", "mucho", "sangre", "inconsciente", "no respira"},
				},
			},
			{
				Type:         "terremoto",
				Keywords:     []string{"terremoto", "temblor", "sismo", "tiembla", "edificio", "cayendo"},
				BasePriority: 10,
				Modifiers: Modifiers{
					Location:     true,
					TimeOfDay:    Always,
					Intensifiers: []string{"fuerte", "derrumbe", "atrapados", "grietas"},
					UrbanContext: true,
				},
			},
			// Высокие: значительный риск
			{
				Type:         "accidente",
				Keywords:     []string{"accidente", "choque", "atropello", "volcadura", "colision"},
				BasePriority: 7,
				Modifiers: Modifiers{
					Location:     true,
					TimeOfDay:    NightOnly,
					Intensifiers: []string{"heridos", "carretera", "velocidad", "ambulancia"},
					UrbanContext: true,
				},
			},
			{
				Type:         "inundacion",
				Keywords:     []string{"inundacion", "inundado", "agua", "lluvia", "desborde", "rio"},
				BasePriority: 6,
				Modifiers: Modifiers{
					Location:     true,
					TimeOfDay:    Always,
					Intensifiers: []string{"casa", "atrapados", "corriente", "subiendo"},
					UrbanContext: true,
				},
			},
			{
				Type:         "rescate",
				Keywords:     []string{"rescate", "atrapado", "perdido", "montaña", "bosque", "cueva"},
				BasePriority: 6,
				Modifiers: Modifiers{
					Location:     true,
					TimeOfDay:    NightOnly,
					Intensifiers: []string{"solo", "frio", "herido", "sin comunicacion"},
				},
			},
			// Средние: личная безопасность
			{
				Type:         "robo",
				Keywords:     []string{"robo", "asalto", "ladron", "robando", "amenaza", "pistola"},
				BasePriority: 5,
				Modifiers: Modifiers{
					Location:     true,
					TimeOfDay:    NightOnly,
					Intensifiers: []string{"armado", "pistola", "cuchillo", "violento"},
					UrbanContext: true,
				},
			},
			{
				Type:         "violencia",
				Keywords:     []string{"golpes", "pelea", "agresion", "violencia", "amenaza"},
				BasePriority: 4,
				Modifiers: Modifiers{
					Location:     true,
					TimeOfDay:    NightOnly,
					Intensifiers: []string{"arma", "sangre", "herido", "familiar"},
					UrbanContext: true,
				},
			},
			// Низкие
			{
				Type:         "disturbios",
				Keywords:     []string{"ruido", "molestia", "musica", "gritos", "alboroto"},
				BasePriority: 2,
				Modifiers: Modifiers{
					TimeOfDay:    NightOnly,
					Intensifiers: []string{"muchas personas", "violento"},
					UrbanContext: true,
				},
			},
			{
				Type:         "infraestructura",
				Keywords:     []string{"poste", "cable", "luz", "agua", "gas", "alcantarilla"},
				BasePriority: 3,
				Modifiers: Modifiers{
					Location:     true,
					TimeOfDay:    Always,
					Intensifiers: []string{"peligro", "roto", "fuga", "electrico"},
					UrbanContext: true,
				},
			},
		},
		Weights: Weights{
			Location:    2,
			NightHours:  1,
			UrgentWords: 1,
			UrbanZone:   1,
		},
		Thresholds: Thresholds{
			Critical: 8,
			High:     6,
			Medium:   4,
			Low:      0,
		},
	}
}
