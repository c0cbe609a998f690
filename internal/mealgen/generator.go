package mealgen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grovli/grovli-backend/internal/cache"
	"github.com/grovli/grovli-backend/internal/clients/openai"
	mealsrepo "github.com/grovli/grovli-backend/internal/data/repos/meals"
	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
	"github.com/grovli/grovli-backend/internal/plan"
)

// GenerateInput describes one meal slot to fill.
type GenerateInput struct {
	PlanID      string
	Fingerprint string
	Slot        plan.Slot
	Preferences string
	Pantry      []string
}

// GenerateSummary totals one pass over a plan's slots.
type GenerateSummary struct {
	Generated int `json:"generated"`
	Cached    int `json:"cached"`
	Failed    int `json:"failed"`
}

// Generator produces meals slot by slot. Every step is idempotent: a rerun
// with the same fingerprint converges on the same durable rows.
type Generator interface {
	GenerateOne(ctx context.Context, in GenerateInput) (*types.Meal, bool, error)
	GenerateForPlan(ctx context.Context, req plan.PlanRequest, fingerprint, planID string) (GenerateSummary, error)
}

type generator struct {
	log   *logger.Logger
	ai    openai.Client
	cache cache.MealCache
	meals mealsrepo.MealRepo
}

func NewGenerator(ai openai.Client, mc cache.MealCache, meals mealsrepo.MealRepo, log *logger.Logger) (Generator, error) {
	if ai == nil || mc == nil || meals == nil {
		return nil, fmt.Errorf("generator missing deps")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &generator{
		log:   log.With("service", "MealGenerator"),
		ai:    ai,
		cache: mc,
		meals: meals,
	}, nil
}

// GenerateOne fills a single slot: cache check, model call, parse, macro
// scaling, deterministic ID, durable dedup with plan adoption, persist and
// hot backfill. The bool result reports whether the meal was served from
// cache or dedup rather than freshly generated.
func (g *generator) GenerateOne(ctx context.Context, in GenerateInput) (*types.Meal, bool, error) {
	if in.PlanID == "" || in.Fingerprint == "" {
		return nil, false, fmt.Errorf("plan id and fingerprint required")
	}

	cached, err := g.cache.GetMeal(ctx, in.Fingerprint, in.Slot.MealType, in.Slot.Index)
	if err != nil {
		return nil, false, err
	}
	if cached != nil {
		return g.adoptIfNeeded(ctx, cached, in.PlanID)
	}

	text, err := g.ai.GenerateText(ctx, mealSystemPrompt, buildMealPrompt(in.Slot, in.Preferences, in.Pantry))
	if err != nil {
		return nil, false, fmt.Errorf("model call: %w", err)
	}

	payload, err := ParseMeal(text)
	if err != nil {
		return nil, false, err
	}
	payload = ScaleToTargets(payload, in.Slot.Targets)

	// Same recipe under the same fingerprint is the same meal, whatever plan
	// first produced it.
	existing, err := g.meals.GetByNameFingerprint(dbctx.Context{Ctx: ctx}, payload.Name, in.Fingerprint)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return g.adoptIfNeeded(ctx, existing, in.PlanID)
	}

	rawIngredients, err := json.Marshal(payload.Ingredients)
	if err != nil {
		return nil, false, fmt.Errorf("encode ingredients: %w", err)
	}

	now := time.Now().UTC()
	meal := &types.Meal{
		ID:           plan.MealID(payload.Name, in.Fingerprint, in.Slot.Index),
		PlanID:       in.PlanID,
		Fingerprint:  in.Fingerprint,
		MealType:     in.Slot.MealType,
		SlotIndex:    in.Slot.Index,
		Name:         payload.Name,
		Description:  payload.Description,
		Calories:     payload.Calories,
		ProteinG:     payload.ProteinG,
		CarbsG:       payload.CarbsG,
		FatG:         payload.FatG,
		SugarG:       payload.SugarG,
		FiberG:       payload.FiberG,
		Ingredients:  rawIngredients,
		Instructions: payload.Instructions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := g.cache.PutMeal(ctx, meal); err != nil {
		return nil, false, err
	}
	return meal, false, nil
}

// GenerateForPlan walks every slot of the request. A failed slot is logged
// and skipped so one bad category does not sink the whole plan; the caller
// decides off the summary whether the plan is complete.
func (g *generator) GenerateForPlan(ctx context.Context, req plan.PlanRequest, fingerprint, planID string) (GenerateSummary, error) {
	var sum GenerateSummary
	req = req.Normalize()

	for _, slot := range plan.Slots(req) {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		_, fromCache, err := g.GenerateOne(ctx, GenerateInput{
			PlanID:      planID,
			Fingerprint: fingerprint,
			Slot:        slot,
			Preferences: req.Preferences,
			Pantry:      req.Pantry,
		})
		if err != nil {
			sum.Failed++
			g.log.Warn("Meal generation failed; skipping slot",
				"plan_id", planID,
				"meal_type", slot.MealType,
				"slot", slot.Index,
				"error", err,
			)
			continue
		}
		if fromCache {
			sum.Cached++
		} else {
			sum.Generated++
		}
	}

	g.log.Info("Plan generation pass finished",
		"plan_id", planID,
		"generated", sum.Generated,
		"cached", sum.Cached,
		"failed", sum.Failed,
	)
	return sum, nil
}

// adoptIfNeeded moves an existing meal into the requesting plan. Both cache
// tiers are invalidated under the old plan so no reader keeps serving it
// there.
func (g *generator) adoptIfNeeded(ctx context.Context, meal *types.Meal, planID string) (*types.Meal, bool, error) {
	if meal.PlanID == planID {
		return meal, true, nil
	}
	oldPlanID := meal.PlanID
	if err := g.meals.UpdateFields(dbctx.Context{Ctx: ctx}, meal.ID, map[string]interface{}{"plan_id": planID}); err != nil {
		return nil, false, err
	}
	meal.PlanID = planID
	if err := g.cache.InvalidateMeal(ctx, &types.Meal{
		ID: meal.ID, PlanID: oldPlanID,
		Fingerprint: meal.Fingerprint, MealType: meal.MealType, SlotIndex: meal.SlotIndex,
	}); err != nil {
		g.log.Warn("Cache invalidation after adoption failed", "meal_id", meal.ID, "error", err)
	}
	if err := g.cache.PutMeal(ctx, meal); err != nil {
		return nil, false, err
	}
	g.log.Info("Adopted existing meal into plan", "meal_id", meal.ID, "from_plan", oldPlanID, "to_plan", planID)
	return meal, true, nil
}
