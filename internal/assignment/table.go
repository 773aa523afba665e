package assignment

import "strings"

// Table сопоставляет тип происшествия с ролями служб реагирования по умолчанию.
// После создания не изменяется и безопасна для конкурентного чтения.
type Table struct {
	roles map[string][]string
}

func NewTable(roles map[string][]string) Table {
	copied := make(map[string][]string, len(roles))
	for typ, r := range roles {
		copied[strings.ToLower(typ)] = append([]string(nil), r...)
	}
	return Table{roles: copied}
}

// DefaultTable - стандартная таблица назначения ресурсов
func DefaultTable() Table {
	return NewTable(map[string][]string{
		"incendio":        {"bomberos", "ambulancia", "policia"},
		"medica":          {"ambulancia", "paramedicos"},
		"terremoto":       {"bomberos", "ambulancia", "defensa_civil", "rescate"},
		"accidente":       {"ambulancia", "policia", "transito"},
		"inundacion":      {"defensa_civil", "bomberos", "rescate"},
		"rescate":         {"rescate", "ambulancia"},
		"robo":            {"policia"},
		"violencia":       {"policia", "ambulancia"},
		"disturbios":      {"policia"},
		"infraestructura": {"servicios_publicos"},
	})
}

// Resolve возвращает роли для заявленного типа (без учета регистра).
// Неизвестный тип дает пустой список, а не ошибку.
func (t Table) Resolve(emergencyType string) []string {
	roles, ok := t.roles[strings.ToLower(strings.TrimSpace(emergencyType))]
	if !ok {
		return []string{}
	}
	return append([]string{}, roles...)
}
