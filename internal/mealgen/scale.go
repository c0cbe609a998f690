package mealgen

import (
	"fmt"
	"math"
	"strings"

	"github.com/grovli/grovli-backend/internal/plan"
)

// Gram equivalents for the household units the model tends to emit.
const (
	gramsPerCup  = 240.0
	gramsPerTbsp = 15.0
	gramsPerOz   = 28.35
)

const (
	macroToleranceG    = 1.0
	calorieToleranceKc = 5.0
)

// WithinTolerance reports whether a generated meal already satisfies its
// per-meal targets: every nutrient gram value within ±1 g, calories within
// ±5 kcal.
func WithinTolerance(p mealPayload, t plan.NutrientTargets) bool {
	if math.Abs(p.Calories-t.Calories) > calorieToleranceKc {
		return false
	}
	for _, d := range []float64{
		p.ProteinG - t.ProteinG,
		p.CarbsG - t.CarbsG,
		p.FatG - t.FatG,
		p.SugarG - t.SugarG,
		p.FiberG - t.FiberG,
	} {
		if math.Abs(d) > macroToleranceG {
			return false
		}
	}
	return true
}

// ScaleToTargets rescales an off-target meal proportionally: every nutrient
// and every ingredient gram amount is multiplied by the calorie ratio, and
// ingredient display quantities are re-derived from the new gram amounts.
// Meals already within tolerance pass through unchanged.
func ScaleToTargets(p mealPayload, t plan.NutrientTargets) mealPayload {
	if WithinTolerance(p, t) {
		return p
	}
	if p.Calories <= 0 || t.Calories <= 0 {
		return p
	}
	factor := t.Calories / p.Calories

	p.Calories = round1(p.Calories * factor)
	p.ProteinG = round1(p.ProteinG * factor)
	p.CarbsG = round1(p.CarbsG * factor)
	p.FatG = round1(p.FatG * factor)
	p.SugarG = round1(p.SugarG * factor)
	p.FiberG = round1(p.FiberG * factor)

	for i := range p.Ingredients {
		g := p.Ingredients[i].Grams * factor
		p.Ingredients[i].Grams = round1(g)
		p.Ingredients[i].Quantity = RederiveQuantity(g, p.Ingredients[i].Quantity)
	}
	return p
}

// RederiveQuantity renders a gram amount in the unit the original quantity
// string used, so "1 cup" scaled by 1.5 becomes "1.5 cups" rather than a
// raw gram count.
func RederiveQuantity(grams float64, original string) string {
	unit := strings.ToLower(original)
	switch {
	case strings.Contains(unit, "cup"):
		return formatUnit(grams/gramsPerCup, "cup")
	case strings.Contains(unit, "tbsp"), strings.Contains(unit, "tablespoon"):
		return formatUnit(grams/gramsPerTbsp, "tbsp")
	case strings.Contains(unit, "oz"), strings.Contains(unit, "ounce"):
		return formatUnit(grams/gramsPerOz, "oz")
	default:
		return fmt.Sprintf("%.0f g", grams)
	}
}

func formatUnit(v float64, unit string) string {
	v = math.Round(v*100) / 100
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if unit == "cup" && v != 1 {
		unit = "cups"
	}
	return s + " " + unit
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
