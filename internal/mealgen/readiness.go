package mealgen

import (
	"context"
	"fmt"

	mealsrepo "github.com/grovli/grovli-backend/internal/data/repos/meals"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
)

const (
	ReasonMealCountShort = "meal count short"
	ReasonImagesPending  = "images pending"
)

// ReadinessGate decides when a plan may be announced. A plan is ready once
// the durable tier holds the expected meal count and every meal carries an
// image URL (the fallback counts; an empty URL does not).
type ReadinessGate interface {
	IsReady(ctx context.Context, planID string, expected int) (bool, string, error)
}

type readinessGate struct {
	log   *logger.Logger
	meals mealsrepo.MealRepo
}

func NewReadinessGate(meals mealsrepo.MealRepo, log *logger.Logger) (ReadinessGate, error) {
	if meals == nil {
		return nil, fmt.Errorf("meal repo required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &readinessGate{log: log.With("service", "ReadinessGate"), meals: meals}, nil
}

func (g *readinessGate) IsReady(ctx context.Context, planID string, expected int) (bool, string, error) {
	if planID == "" || expected < 1 {
		return false, "", fmt.Errorf("plan id and expected count required")
	}

	count, err := g.meals.CountByPlanID(dbctx.Context{Ctx: ctx}, planID)
	if err != nil {
		return false, "", err
	}
	if count < int64(expected) {
		return false, ReasonMealCountShort, nil
	}

	pending, err := g.meals.CountPendingImages(dbctx.Context{Ctx: ctx}, planID)
	if err != nil {
		return false, "", err
	}
	if pending > 0 {
		return false, ReasonImagesPending, nil
	}

	return true, "", nil
}
