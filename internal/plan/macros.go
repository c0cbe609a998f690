package plan

import "strings"

// Share of the daily calorie budget each category carries.
var mealTypeCalorieRatio = map[string]float64{
	MealTypeBreakfast: 0.25,
	MealTypeLunch:     0.30,
	MealTypeDinner:    0.35,
	MealTypeSnack:     0.10,
}

// CalorieRatio returns the fraction of the daily budget for one meal of the
// given category. Unknown categories get the whole budget.
func CalorieRatio(mealType string) float64 {
	if r, ok := mealTypeCalorieRatio[CanonicalMealType(mealType)]; ok {
		return r
	}
	return 1.0
}

// Slot is one meal to generate: a category plus its per-meal targets.
type Slot struct {
	MealType string
	Index    int
	Targets  NutrientTargets
}

// Slots expands a request into the concrete meals to generate. A full-day
// plan yields breakfast, lunch, dinner and two snacks per day; a snack-only
// request yields two snacks per day; any single category yields one meal per
// day. Every slot's targets scale the daily targets by its category's
// calorie ratio — a Dinner-only request still gets the dinner share, and
// each snack gets the snack share regardless of how many there are.
func Slots(r PlanRequest) []Slot {
	r = r.Normalize()

	perDay := map[string]int{}
	switch r.MealType {
	case MealTypeFullDay:
		perDay[MealTypeBreakfast] = 1
		perDay[MealTypeLunch] = 1
		perDay[MealTypeDinner] = 1
		perDay[MealTypeSnack] = 2
	case MealTypeSnack:
		perDay[MealTypeSnack] = 2
	default:
		perDay[r.MealType] = 1
	}

	var out []Slot
	idx := 0
	for day := 0; day < r.Days; day++ {
		for _, mt := range []string{MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack} {
			n := perDay[mt]
			for i := 0; i < n; i++ {
				out = append(out, Slot{
					MealType: mt,
					Index:    idx,
					Targets:  scaleTargets(r.Targets, CalorieRatio(mt)),
				})
				idx++
			}
		}
	}
	return out
}

// ExpectedMealCount is the number of meals a finished plan must contain.
func ExpectedMealCount(r PlanRequest) int {
	r = r.Normalize()
	perDay := 1
	switch r.MealType {
	case MealTypeFullDay:
		perDay = 5
	case MealTypeSnack:
		perDay = 2
	}
	return perDay * r.Days
}

// ApplyKetoSplit redistributes macro targets for ketogenic requests:
// 80% of calories from fat, 15% protein, 5% carbs (9 kcal/g fat,
// 4 kcal/g protein and carbs). Non-keto requests pass through unchanged.
func ApplyKetoSplit(r PlanRequest) PlanRequest {
	if !strings.Contains(strings.ToLower(r.Preferences), "keto") {
		return r
	}
	cal := r.Targets.Calories
	r.Targets.FatG = round1(cal * 0.80 / 9)
	r.Targets.ProteinG = round1(cal * 0.15 / 4)
	r.Targets.CarbsG = round1(cal * 0.05 / 4)
	return r
}

func scaleTargets(t NutrientTargets, f float64) NutrientTargets {
	return NutrientTargets{
		Calories: round1(t.Calories * f),
		ProteinG: round1(t.ProteinG * f),
		CarbsG:   round1(t.CarbsG * f),
		FatG:     round1(t.FatG * f),
		SugarG:   round1(t.SugarG * f),
		FiberG:   round1(t.FiberG * f),
	}
}

func round1(v float64) float64 {
	if v < 0 {
		return 0
	}
	return float64(int(v*10+0.5)) / 10
}
