package mealgen

import (
	"encoding/json"
	"fmt"
	"strings"

	types "github.com/grovli/grovli-backend/internal/domain"
)

// mealPayload is the JSON shape the model is asked to produce.
type mealPayload struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Calories     float64            `json:"calories"`
	ProteinG     float64            `json:"protein"`
	CarbsG       float64            `json:"carbs"`
	FatG         float64            `json:"fat"`
	SugarG       float64            `json:"sugar"`
	FiberG       float64            `json:"fiber"`
	Ingredients  []types.Ingredient `json:"ingredients"`
	Instructions string             `json:"instructions"`
}

// ExtractJSON pulls a JSON object out of model output. Direct parse first;
// models that wrap the payload in a ```json fence get unwrapped; as a last
// resort the outermost brace pair is tried.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty model output")
	}
	if json.Valid([]byte(text)) {
		return text, nil
	}

	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			candidate := strings.TrimSpace(rest[:j])
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no JSON object found in model output")
}

// ParseMeal decodes model output into a meal payload and validates the
// fields generation depends on.
func ParseMeal(text string) (mealPayload, error) {
	var out mealPayload
	raw, err := ExtractJSON(text)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("decode meal payload: %w", err)
	}
	out.Name = strings.TrimSpace(out.Name)
	if out.Name == "" {
		return out, fmt.Errorf("meal payload missing name")
	}
	if out.Calories <= 0 {
		return out, fmt.Errorf("meal payload has non-positive calories")
	}
	return out, nil
}
