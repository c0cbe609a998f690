package plangen

import (
	"context"
	"fmt"

	"github.com/grovli/grovli-backend/internal/cache"
	"github.com/grovli/grovli-backend/internal/mealgen"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
)

type Activities struct {
	Log       *logger.Logger
	Generator mealgen.Generator
	Assets    mealgen.AssetService
	Ready     mealgen.ReadinessGate
	Notifier  mealgen.Notifier
	Locks     cache.LockService
}

func (a *Activities) GenerateMeals(ctx context.Context, in Input) (GenerateResult, error) {
	var res GenerateResult
	if a == nil || a.Generator == nil {
		return res, fmt.Errorf("plangen: activity not configured")
	}
	sum, err := a.Generator.GenerateForPlan(ctx, in.Request, in.Fingerprint, in.PlanID)
	if err != nil {
		return res, err
	}
	res = GenerateResult{Generated: sum.Generated, Cached: sum.Cached, Failed: sum.Failed}

	// Nothing landed at all: likely an upstream outage, let Temporal retry.
	if in.ExpectedTotal > 0 && sum.Generated+sum.Cached == 0 {
		return res, fmt.Errorf("plangen: no meals produced for plan %s", in.PlanID)
	}
	return res, nil
}

func (a *Activities) EnsureImages(ctx context.Context, in Input) (ImageResult, error) {
	var res ImageResult
	if a == nil || a.Assets == nil {
		return res, fmt.Errorf("plangen: activity not configured")
	}
	sum, err := a.Assets.EnsureImagesForPlan(ctx, in.PlanID)
	if err != nil {
		return res, err
	}
	return ImageResult{Uploaded: sum.Uploaded, Existing: sum.Existing, Fallback: sum.Fallback}, nil
}

func (a *Activities) Finalize(ctx context.Context, in Input) (FinalizeResult, error) {
	var res FinalizeResult
	if a == nil || a.Ready == nil {
		return res, fmt.Errorf("plangen: activity not configured")
	}
	ready, reason, err := a.Ready.IsReady(ctx, in.PlanID, in.ExpectedTotal)
	if err != nil {
		return res, err
	}
	res.Ready = ready
	res.Reason = reason
	if !ready {
		return res, nil
	}

	if in.SessionID != "" && a.Notifier != nil {
		status, err := a.Notifier.NotifyOnce(ctx, in.SessionID, in.PlanID)
		if err != nil {
			return res, err
		}
		res.NotifyStatus = string(status)
	}
	return res, nil
}

func (a *Activities) ReleaseLock(ctx context.Context, fingerprint string) error {
	if a == nil || a.Locks == nil {
		return fmt.Errorf("plangen: activity not configured")
	}
	if fingerprint == "" {
		return nil
	}
	return a.Locks.Release(ctx, cache.GenLockKey(fingerprint))
}
