package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/grovli/grovli-backend/internal/cache"
	chatrepo "github.com/grovli/grovli-backend/internal/data/repos/chat"
	mealsrepo "github.com/grovli/grovli-backend/internal/data/repos/meals"
	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/mealgen"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
	"github.com/grovli/grovli-backend/internal/plan"
	"github.com/grovli/grovli-backend/internal/temporalx"
	"github.com/grovli/grovli-backend/internal/temporalx/plangen"
)

const (
	PlanStatusReady      = "ready"
	PlanStatusProcessing = "processing"
)

// PlanResult is the response shape for a plan request: either the finished
// plan (cached path) or a processing acknowledgement with the identifiers the
// client needs to poll.
type PlanResult struct {
	Status            string        `json:"status"`
	PlanID            string        `json:"plan_id,omitempty"`
	Fingerprint       string        `json:"fingerprint"`
	AlreadyInProgress bool          `json:"already_in_progress,omitempty"`
	Meals             []*types.Meal `json:"meals,omitempty"`
}

type PlanStatusResult struct {
	PlanID string `json:"plan_id"`
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// WorkflowStarter is the one slice of the Temporal client the planner needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options temporalsdkclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (temporalsdkclient.WorkflowRun, error)
}

type PlanService interface {
	// RequestPlan resolves a plan request to an existing plan when the
	// fingerprint already has a full set of meals, otherwise acquires the
	// generation lock and starts the workflow. sessionID may be empty.
	RequestPlan(ctx context.Context, req plan.PlanRequest, sessionID string) (*PlanResult, error)

	GetPlan(ctx context.Context, planID string) ([]*types.Meal, error)
	PlanStatus(ctx context.Context, planID, mealType string, days int) (*PlanStatusResult, error)
}

type planService struct {
	log      *logger.Logger
	cache    cache.MealCache
	meals    mealsrepo.MealRepo
	locks    cache.LockService
	sessions chatrepo.SessionRepo
	gate     mealgen.ReadinessGate
	notifier mealgen.Notifier
	wf       WorkflowStarter
}

func NewPlanService(
	mealCache cache.MealCache,
	meals mealsrepo.MealRepo,
	locks cache.LockService,
	sessions chatrepo.SessionRepo,
	gate mealgen.ReadinessGate,
	notifier mealgen.Notifier,
	wf WorkflowStarter,
	log *logger.Logger,
) (PlanService, error) {
	if mealCache == nil || meals == nil || locks == nil || sessions == nil || gate == nil {
		return nil, fmt.Errorf("plan service missing deps")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &planService{
		log:      log.With("service", "PlanService"),
		cache:    mealCache,
		meals:    meals,
		locks:    locks,
		sessions: sessions,
		gate:     gate,
		notifier: notifier,
		wf:       wf,
	}, nil
}

func (s *planService) RequestPlan(ctx context.Context, req plan.PlanRequest, sessionID string) (*PlanResult, error) {
	req = req.Normalize()
	if !plan.KnownMealType(req.MealType) {
		return nil, fmt.Errorf("unknown meal type %q", req.MealType)
	}
	if req.Days < 1 {
		req.Days = 1
	}
	if req.Targets.Calories <= 0 {
		return nil, fmt.Errorf("calorie target must be positive")
	}
	req = plan.ApplyKetoSplit(req)

	fp := plan.Fingerprint(req)
	expected := plan.ExpectedMealCount(req)

	existing, err := s.meals.GetByFingerprint(dbctx.Context{Ctx: ctx}, fp)
	if err != nil {
		return nil, err
	}
	if len(existing) >= expected {
		planID := existing[0].PlanID
		// A full row count is not enough: meals may still be missing images
		// or other assets, so the readiness gate has the final say.
		ready, reason, err := s.gate.IsReady(ctx, planID, expected)
		if err != nil {
			return nil, err
		}
		if ready {
			s.log.Info("Serving cached plan", "fingerprint", fp, "plan_id", planID, "meals", len(existing))
			if sessionID != "" && s.notifier != nil {
				if _, nErr := s.notifier.NotifyOnce(ctx, sessionID, planID); nErr != nil {
					s.log.Warn("Cached-plan notification failed", "session_id", sessionID, "plan_id", planID, "error", nErr)
				}
			}
			return &PlanResult{
				Status:      PlanStatusReady,
				PlanID:      planID,
				Fingerprint: fp,
				Meals:       existing,
			}, nil
		}
		s.log.Info("Cached plan not ready, regenerating", "fingerprint", fp, "plan_id", planID, "reason", reason)
	}

	lockKey := cache.GenLockKey(fp)
	acquired, err := s.locks.TryAcquire(ctx, lockKey)
	if err != nil {
		return nil, err
	}
	if !acquired {
		s.log.Info("Generation already in progress", "fingerprint", fp)
		return &PlanResult{
			Status:            PlanStatusProcessing,
			Fingerprint:       fp,
			AlreadyInProgress: true,
		}, nil
	}

	planID := uuid.NewString()
	if sessionID != "" {
		updates := map[string]interface{}{
			"plan_id":         planID,
			"plan_ready":      false,
			"plan_processing": true,
			"expected_meals":  expected,
		}
		if uErr := s.sessions.UpdateFields(dbctx.Context{Ctx: ctx}, sessionID, updates); uErr != nil {
			s.log.Warn("Session processing flag update failed", "session_id", sessionID, "error", uErr)
		}
	}

	if s.wf == nil {
		_ = s.locks.Release(ctx, lockKey)
		return nil, fmt.Errorf("plan generation unavailable: workflow engine not configured")
	}

	in := plangen.Input{
		PlanID:        planID,
		SessionID:     sessionID,
		Fingerprint:   fp,
		Request:       req,
		ExpectedTotal: expected,
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:        plangen.WorkflowIDFor(fp),
		TaskQueue: temporalx.LoadConfig().TaskQueue,
	}
	if _, err := s.wf.ExecuteWorkflow(ctx, opts, plangen.WorkflowName, in); err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			// Another replica won the start race; its workflow owns the lock.
			return &PlanResult{
				Status:            PlanStatusProcessing,
				Fingerprint:       fp,
				AlreadyInProgress: true,
			}, nil
		}
		if rErr := s.locks.Release(ctx, lockKey); rErr != nil {
			s.log.Warn("Generation lock release failed after start error", "key", lockKey, "error", rErr)
		}
		return nil, fmt.Errorf("start plan workflow: %w", err)
	}

	s.log.Info("Plan generation started", "fingerprint", fp, "plan_id", planID, "expected_meals", expected)
	return &PlanResult{
		Status:      PlanStatusProcessing,
		PlanID:      planID,
		Fingerprint: fp,
	}, nil
}

func (s *planService) GetPlan(ctx context.Context, planID string) ([]*types.Meal, error) {
	if strings.TrimSpace(planID) == "" {
		return nil, fmt.Errorf("plan id required")
	}
	return s.cache.GetPlan(ctx, planID)
}

func (s *planService) PlanStatus(ctx context.Context, planID, mealType string, days int) (*PlanStatusResult, error) {
	if strings.TrimSpace(planID) == "" {
		return nil, fmt.Errorf("plan id required")
	}
	req := plan.PlanRequest{MealType: mealType, Days: days}.Normalize()
	if !plan.KnownMealType(req.MealType) {
		return nil, fmt.Errorf("unknown meal type %q", mealType)
	}
	if req.Days < 1 {
		req.Days = 1
	}

	ready, reason, err := s.gate.IsReady(ctx, planID, plan.ExpectedMealCount(req))
	if err != nil {
		return nil, err
	}
	return &PlanStatusResult{PlanID: planID, Ready: ready, Reason: reason}, nil
}
