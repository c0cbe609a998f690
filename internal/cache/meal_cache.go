package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mealsrepo "github.com/grovli/grovli-backend/internal/data/repos/meals"
	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
	"github.com/grovli/grovli-backend/internal/utils"
)

// MealCache is the tiered read path for generated meals: hot tier in front,
// the meals table as system of record. Reads fall through to the durable
// tier and backfill the hot tier; writes land durably first and refresh the
// hot tier best-effort, so a hot-tier outage degrades latency, not
// correctness.
type MealCache interface {
	GetMeal(ctx context.Context, fingerprint, mealType string, slot int) (*types.Meal, error)
	GetPlan(ctx context.Context, planID string) ([]*types.Meal, error)

	PutMeal(ctx context.Context, meal *types.Meal) error

	InvalidateMeal(ctx context.Context, meal *types.Meal) error
	InvalidatePlan(ctx context.Context, planID string) error
}

type mealCache struct {
	log   *logger.Logger
	hot   HotStore
	meals mealsrepo.MealRepo
	ttl   time.Duration
}

func NewMealCache(hot HotStore, meals mealsrepo.MealRepo, log *logger.Logger) (MealCache, error) {
	if hot == nil || meals == nil {
		return nil, fmt.Errorf("meal cache missing deps")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttlSec := utils.GetEnvAsInt("CACHE_TTL_SECONDS", 3600, log)
	if ttlSec < 1 {
		ttlSec = 3600
	}
	return &mealCache{
		log:   log.With("service", "MealCache"),
		hot:   hot,
		meals: meals,
		ttl:   time.Duration(ttlSec) * time.Second,
	}, nil
}

func (c *mealCache) GetMeal(ctx context.Context, fingerprint, mealType string, slot int) (*types.Meal, error) {
	key := MealKey(fingerprint, mealType, slot)

	raw, ok, err := c.hot.Get(ctx, key)
	if err != nil {
		c.log.Warn("Hot tier read failed; falling through", "key", key, "error", err)
	} else if ok {
		var m types.Meal
		if uErr := json.Unmarshal([]byte(raw), &m); uErr == nil {
			return &m, nil
		}
		// Unreadable hot entry: drop it and serve from the durable tier.
		c.log.Warn("Dropping corrupt hot entry", "key", key)
		_ = c.hot.Del(ctx, key)
	}

	m, err := c.meals.GetBySlot(dbctx.Context{Ctx: ctx}, fingerprint, mealType, slot)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	c.backfillMeal(ctx, m)
	return m, nil
}

func (c *mealCache) GetPlan(ctx context.Context, planID string) ([]*types.Meal, error) {
	key := PlanKey(planID)

	raw, ok, err := c.hot.Get(ctx, key)
	if err != nil {
		c.log.Warn("Hot tier read failed; falling through", "key", key, "error", err)
	} else if ok {
		var out []*types.Meal
		if uErr := json.Unmarshal([]byte(raw), &out); uErr == nil {
			return out, nil
		}
		c.log.Warn("Dropping corrupt hot entry", "key", key)
		_ = c.hot.Del(ctx, key)
	}

	out, err := c.meals.GetByPlanID(dbctx.Context{Ctx: ctx}, planID)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		if raw, mErr := json.Marshal(out); mErr == nil {
			if sErr := c.hot.Set(ctx, key, string(raw), c.ttl); sErr != nil {
				c.log.Warn("Hot tier backfill failed", "key", key, "error", sErr)
			}
		}
	}
	return out, nil
}

func (c *mealCache) PutMeal(ctx context.Context, meal *types.Meal) error {
	if meal == nil {
		return nil
	}
	if err := c.meals.Upsert(dbctx.Context{Ctx: ctx}, meal); err != nil {
		return err
	}
	c.backfillMeal(ctx, meal)
	// The plan listing is stale now; rebuild it on the next read.
	if err := c.hot.Del(ctx, PlanKey(meal.PlanID)); err != nil {
		c.log.Warn("Plan key invalidation failed", "plan_id", meal.PlanID, "error", err)
	}
	return nil
}

func (c *mealCache) InvalidateMeal(ctx context.Context, meal *types.Meal) error {
	if meal == nil {
		return nil
	}
	keys := []string{
		MealKey(meal.Fingerprint, meal.MealType, meal.SlotIndex),
		PlanKey(meal.PlanID),
	}
	if err := c.hot.Del(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate meal %s: %w", meal.ID, err)
	}
	return nil
}

func (c *mealCache) InvalidatePlan(ctx context.Context, planID string) error {
	if err := c.hot.Del(ctx, PlanKey(planID)); err != nil {
		return fmt.Errorf("invalidate plan %s: %w", planID, err)
	}
	return nil
}

func (c *mealCache) backfillMeal(ctx context.Context, m *types.Meal) {
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	key := MealKey(m.Fingerprint, m.MealType, m.SlotIndex)
	if err := c.hot.Set(ctx, key, string(raw), c.ttl); err != nil {
		c.log.Warn("Hot tier backfill failed", "key", key, "error", err)
	}
}
