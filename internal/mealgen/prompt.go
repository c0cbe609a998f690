package mealgen

import (
	"fmt"
	"strings"

	"github.com/grovli/grovli-backend/internal/plan"
)

const mealSystemPrompt = `You are a professional nutritionist. You respond with a single JSON object and nothing else: no prose, no markdown fences. The object has exactly these keys: name, description, calories, protein, carbs, fat, sugar, fiber, ingredients, instructions. Nutrient values are numbers (grams, calories in kcal). ingredients is an array of objects with keys name, quantity, grams. instructions is a single string.`

// buildMealPrompt renders the user prompt for one meal slot.
func buildMealPrompt(slot plan.Slot, preferences string, pantry []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create one %s recipe.\n", strings.ToLower(slot.MealType))
	if p := strings.TrimSpace(preferences); p != "" {
		fmt.Fprintf(&b, "Dietary preferences: %s.\n", p)
	}
	fmt.Fprintf(&b, "Nutrition targets for this meal: %.0f kcal, %.1f g protein, %.1f g carbs, %.1f g fat, at most %.1f g sugar, at least %.1f g fiber.\n",
		slot.Targets.Calories, slot.Targets.ProteinG, slot.Targets.CarbsG, slot.Targets.FatG, slot.Targets.SugarG, slot.Targets.FiberG)
	if len(pantry) > 0 {
		fmt.Fprintf(&b, "Use only these available ingredients: %s.\n", strings.Join(pantry, ", "))
	}
	b.WriteString("Hit the calorie and macro targets as closely as possible.")
	return b.String()
}

// buildImagePrompt renders the fixed template for meal photography. The
// template is deliberately constant so the fixed generation seed yields
// stable images per meal name.
func buildImagePrompt(mealName string) string {
	return fmt.Sprintf("Professional food photography of %s, plated on a ceramic dish, natural lighting, overhead angle, high resolution", mealName)
}
