// Package normalize converts raw collaborator output into a canonical map.
// LLM output is ideally pure JSON but in practice arrives as free text,
// partial JSON or JSON buried in commentary; everything here is best-effort
// and never fails.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"
)

var braceBlockRe = regexp.MustCompile(`\{[\s\S]*\}`)

// Map приводит сырой вывод коллаборатора к map. Порядок попыток:
// прямой парсинг, срез между первой { и последней }, то же для [ и ],
// regex по самому большому блоку в скобках. Если все мимо - возвращаем def.
// Никогда не паникует, идемпотентна на валидном входе.
func Map(raw any, def map[string]any) map[string]any {
	if def == nil {
		def = map[string]any{}
	}

	switch v := raw.(type) {
	case nil:
		return def
	case map[string]any:
		return v
	case []any:
		return map[string]any{"items": v}
	case string:
		return fromText(v, def)
	case []byte:
		return fromText(string(v), def)
	case json.RawMessage:
		return fromText(string(v), def)
	default:
		return def
	}
}

func fromText(text string, def map[string]any) map[string]any {
	if text == "" {
		return def
	}

	if m, ok := tryParse(text); ok {
		return m
	}

	// срезаем мусор вокруг JSON-объекта
	if start, end := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}'); start != -1 && end > start {
		if m, ok := tryParse(text[start : end+1]); ok {
			return m
		}
	}

	// то же для массива
	if start, end := strings.IndexByte(text, '['), strings.LastIndexByte(text, ']'); start != -1 && end > start {
		if m, ok := tryParse(text[start : end+1]); ok {
			return m
		}
	}

	if block := braceBlockRe.FindString(text); block != "" {
		if m, ok := tryParse(block); ok {
			return m
		}
	}

	return def
}

func tryParse(text string) (map[string]any, bool) {
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, false
	}

	switch v := parsed.(type) {
	case map[string]any:
		return v, true
	case []any:
		return map[string]any{"items": v}, true
	}
	return nil, false
}
