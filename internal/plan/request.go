package plan

import "strings"

// Meal categories understood by the planner.
const (
	MealTypeBreakfast = "Breakfast"
	MealTypeLunch     = "Lunch"
	MealTypeDinner    = "Dinner"
	MealTypeSnack     = "Snack"
	MealTypeFullDay   = "Full Day"
)

// NutrientTargets are daily targets. Grams except Calories (kcal).
type NutrientTargets struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein"`
	CarbsG   float64 `json:"carbs"`
	FatG     float64 `json:"fat"`
	SugarG   float64 `json:"sugar"`
	FiberG   float64 `json:"fiber"`
}

// PlanRequest is the canonical input to plan generation. Fingerprint is
// computed over these fields only; anything that does not change the
// generated meals must stay out of this struct.
type PlanRequest struct {
	MealType    string          `json:"meal_type"`
	Preferences string          `json:"dietary_preferences"`
	Days        int             `json:"num_days"`
	Targets     NutrientTargets `json:"targets"`

	// Variant selects the generation algorithm. The "pantry" variant
	// constrains generation to the Pantry ingredient list.
	Variant string   `json:"algorithm_variant,omitempty"`
	Pantry  []string `json:"pantry,omitempty"`
}

// Normalize trims free-text fields and canonicalizes the meal type so that
// equivalent requests fingerprint identically.
func (r PlanRequest) Normalize() PlanRequest {
	out := r
	out.Preferences = strings.ToLower(strings.TrimSpace(r.Preferences))
	out.MealType = CanonicalMealType(r.MealType)
	out.Variant = strings.ToLower(strings.TrimSpace(r.Variant))
	if out.Days < 1 {
		out.Days = 1
	}
	return out
}

// CanonicalMealType maps loose client spellings onto the known categories.
// "All" is the legacy alias for a full-day plan.
func CanonicalMealType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "breakfast":
		return MealTypeBreakfast
	case "lunch":
		return MealTypeLunch
	case "dinner":
		return MealTypeDinner
	case "snack", "snacks":
		return MealTypeSnack
	case "full day", "all":
		return MealTypeFullDay
	default:
		return strings.TrimSpace(s)
	}
}

// KnownMealType reports whether t is one of the categories the generator
// can produce.
func KnownMealType(t string) bool {
	switch t {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack, MealTypeFullDay:
		return true
	default:
		return false
	}
}
