package plangen

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const maxGenerationPasses = 3

// Workflow drives one plan generation run: generate meals, attach images,
// then check readiness and notify. Every activity is idempotent, so the
// whole run is safe to retry. The generation lock is released in a deferred
// activity on a disconnected context, which covers success, failure and
// cancellation alike.
func Workflow(ctx workflow.Context, in Input) error {
	if in.PlanID == "" || in.Fingerprint == "" {
		return fmt.Errorf("plangen: plan id and fingerprint required")
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})

	defer func() {
		dctx, _ := workflow.NewDisconnectedContext(ctx)
		dctx = workflow.WithActivityOptions(dctx, workflow.ActivityOptions{
			StartToCloseTimeout: time.Minute,
			RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
		})
		if err := workflow.ExecuteActivity(dctx, ActivityReleaseLock, in.Fingerprint).Get(dctx, nil); err != nil {
			workflow.GetLogger(ctx).Warn("Lock release activity failed; TTL expiry will recover",
				"fingerprint", in.Fingerprint, "error", err)
		}
	}()

	log := workflow.GetLogger(ctx)
	var final FinalizeResult

	for pass := 1; pass <= maxGenerationPasses; pass++ {
		var gen GenerateResult
		if err := workflow.ExecuteActivity(ctx, ActivityGenerateMeals, in).Get(ctx, &gen); err != nil {
			return err
		}

		var imgs ImageResult
		if err := workflow.ExecuteActivity(ctx, ActivityEnsureImages, in).Get(ctx, &imgs); err != nil {
			return err
		}

		if err := workflow.ExecuteActivity(ctx, ActivityFinalize, in).Get(ctx, &final); err != nil {
			return err
		}
		if final.Ready {
			log.Info("Plan ready", "plan_id", in.PlanID, "pass", pass, "notify_status", final.NotifyStatus)
			return nil
		}

		log.Warn("Plan not ready after pass; retrying skipped slots",
			"plan_id", in.PlanID, "pass", pass, "reason", final.Reason, "failed", gen.Failed)
	}

	return fmt.Errorf("plangen: plan %s incomplete after %d passes (%s)", in.PlanID, maxGenerationPasses, final.Reason)
}
