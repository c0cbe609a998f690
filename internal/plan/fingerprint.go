package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Fingerprint returns a stable identity for a plan request: the hex sha256
// of a canonical rendering of every generation-relevant field. Two requests
// with the same fingerprint are interchangeable and share cached meals.
func Fingerprint(r PlanRequest) string {
	r = r.Normalize()

	parts := []string{
		r.MealType,
		r.Preferences,
		strconv.Itoa(r.Days),
		formatGrams(r.Targets.Calories),
		formatGrams(r.Targets.ProteinG),
		formatGrams(r.Targets.CarbsG),
		formatGrams(r.Targets.FatG),
		formatGrams(r.Targets.SugarG),
		formatGrams(r.Targets.FiberG),
		r.Variant,
	}
	if r.Variant == "pantry" && len(r.Pantry) > 0 {
		pantry := make([]string, 0, len(r.Pantry))
		for _, p := range r.Pantry {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" {
				pantry = append(pantry, p)
			}
		}
		sort.Strings(pantry)
		parts = append(parts, strings.Join(pantry, ","))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// MealID derives the deterministic durable ID for a meal slot. Name is
// included so regenerated meals with a different name do not silently
// overwrite an existing row.
func MealID(name, fingerprint string, slot int) string {
	name = strings.ToLower(strings.TrimSpace(name))
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", name, fingerprint, slot)))
	return hex.EncodeToString(sum[:])
}

func formatGrams(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
