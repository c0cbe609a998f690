package plangen

import "github.com/grovli/grovli-backend/internal/plan"

const (
	WorkflowName = "plan_generate"

	ActivityGenerateMeals = "plan_generate_meals"
	ActivityEnsureImages  = "plan_ensure_images"
	ActivityFinalize      = "plan_finalize"
	ActivityReleaseLock   = "plan_release_lock"
)

// WorkflowIDFor keys workflow executions by fingerprint, so concurrent
// requests for the same plan collapse onto one execution.
func WorkflowIDFor(fingerprint string) string {
	return WorkflowName + "_" + fingerprint
}

// Input carries everything a generation run needs. It must stay
// JSON-serializable: Temporal persists it in workflow history.
type Input struct {
	PlanID        string           `json:"plan_id"`
	SessionID     string           `json:"session_id,omitempty"`
	Fingerprint   string           `json:"fingerprint"`
	Request       plan.PlanRequest `json:"request"`
	ExpectedTotal int              `json:"expected_total"`
}

type GenerateResult struct {
	Generated int `json:"generated"`
	Cached    int `json:"cached"`
	Failed    int `json:"failed"`
}

type ImageResult struct {
	Uploaded int `json:"uploaded"`
	Existing int `json:"existing"`
	Fallback int `json:"fallback"`
}

type FinalizeResult struct {
	Ready        bool   `json:"ready"`
	Reason       string `json:"reason,omitempty"`
	NotifyStatus string `json:"notify_status,omitempty"`
}
