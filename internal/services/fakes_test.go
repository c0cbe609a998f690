package services

import (
	"context"
	"sort"
	"time"

	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/datatypes"

	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/mealgen"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
)

type fakeMealRepo struct {
	byID map[string]*types.Meal
}

func newFakeMealRepo() *fakeMealRepo {
	return &fakeMealRepo{byID: map[string]*types.Meal{}}
}

func (f *fakeMealRepo) Upsert(dbc dbctx.Context, row *types.Meal) error {
	cp := *row
	f.byID[row.ID] = &cp
	return nil
}

func (f *fakeMealRepo) GetByID(dbc dbctx.Context, id string) (*types.Meal, error) {
	return f.byID[id], nil
}

func (f *fakeMealRepo) GetBySlot(dbc dbctx.Context, fingerprint, mealType string, slot int) (*types.Meal, error) {
	for _, m := range f.byID {
		if m.Fingerprint == fingerprint && m.MealType == mealType && m.SlotIndex == slot {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMealRepo) GetByNameFingerprint(dbc dbctx.Context, name, fingerprint string) (*types.Meal, error) {
	for _, m := range f.byID {
		if m.Name == name && m.Fingerprint == fingerprint {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMealRepo) GetByPlanID(dbc dbctx.Context, planID string) ([]*types.Meal, error) {
	var out []*types.Meal
	for _, m := range f.byID {
		if m.PlanID == planID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotIndex < out[j].SlotIndex })
	return out, nil
}

func (f *fakeMealRepo) GetByFingerprint(dbc dbctx.Context, fingerprint string) ([]*types.Meal, error) {
	var out []*types.Meal
	for _, m := range f.byID {
		if m.Fingerprint == fingerprint {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotIndex < out[j].SlotIndex })
	return out, nil
}

func (f *fakeMealRepo) CountByPlanID(dbc dbctx.Context, planID string) (int64, error) {
	var n int64
	for _, m := range f.byID {
		if m.PlanID == planID {
			n++
		}
	}
	return n, nil
}

func (f *fakeMealRepo) CountPendingImages(dbc dbctx.Context, planID string) (int64, error) {
	var n int64
	for _, m := range f.byID {
		if m.PlanID == planID && m.ImageURL == "" {
			n++
		}
	}
	return n, nil
}

func (f *fakeMealRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	return nil
}

type fakeMealCache struct {
	plans map[string][]*types.Meal
}

func (f *fakeMealCache) GetMeal(ctx context.Context, fingerprint, mealType string, slot int) (*types.Meal, error) {
	return nil, nil
}

func (f *fakeMealCache) GetPlan(ctx context.Context, planID string) ([]*types.Meal, error) {
	return f.plans[planID], nil
}

func (f *fakeMealCache) PutMeal(ctx context.Context, meal *types.Meal) error { return nil }
func (f *fakeMealCache) InvalidateMeal(ctx context.Context, meal *types.Meal) error {
	return nil
}
func (f *fakeMealCache) InvalidatePlan(ctx context.Context, planID string) error { return nil }

type fakeLockService struct {
	held     map[string]bool
	denyNext bool
	acquires []string
	released []string
}

func newFakeLockService() *fakeLockService {
	return &fakeLockService{held: map[string]bool{}}
}

func (f *fakeLockService) TryAcquire(ctx context.Context, key string) (bool, error) {
	return f.TryAcquireTTL(ctx, key, time.Minute)
}

func (f *fakeLockService) TryAcquireTTL(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.denyNext || f.held[key] {
		return false, nil
	}
	f.held[key] = true
	f.acquires = append(f.acquires, key)
	return true, nil
}

func (f *fakeLockService) Release(ctx context.Context, key string) error {
	delete(f.held, key)
	f.released = append(f.released, key)
	return nil
}

type fakeSessionRepo struct {
	rows    map[string]*types.ChatSession
	updates []map[string]interface{}
	created int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{rows: map[string]*types.ChatSession{}}
}

func (f *fakeSessionRepo) Create(dbc dbctx.Context, row *types.ChatSession) error {
	cp := *row
	f.rows[row.ID] = &cp
	f.created++
	return nil
}

func (f *fakeSessionRepo) GetByID(dbc dbctx.Context, id string) (*types.ChatSession, error) {
	return f.rows[id], nil
}

func (f *fakeSessionRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	f.updates = append(f.updates, updates)
	row, ok := f.rows[id]
	if !ok {
		return nil
	}
	if v, ok := updates["plan_id"].(string); ok {
		row.PlanID = v
	}
	if v, ok := updates["plan_ready"].(bool); ok {
		row.PlanReady = v
	}
	if v, ok := updates["plan_processing"].(bool); ok {
		row.PlanProcessing = v
	}
	if v, ok := updates["expected_meals"].(int); ok {
		row.ExpectedMeals = v
	}
	return nil
}

func (f *fakeSessionRepo) AppendNotification(dbc dbctx.Context, id, planID string, msg types.ChatMessage) error {
	row, ok := f.rows[id]
	if !ok {
		return nil
	}
	if row.NotifiedFor == nil {
		row.NotifiedFor = datatypes.JSONMap{}
	}
	row.NotifiedFor[planID] = true
	row.PlanID = planID
	row.PlanReady = true
	row.PlanProcessing = false
	return nil
}

type fakeGate struct {
	ready  bool
	reason string
	err    error
	calls  int
}

func (f *fakeGate) IsReady(ctx context.Context, planID string, expected int) (bool, string, error) {
	f.calls++
	return f.ready, f.reason, f.err
}

type fakeNotifier struct {
	status   mealgen.NotifyStatus
	err      error
	sessions *fakeSessionRepo
	calls    int
}

func (f *fakeNotifier) NotifyOnce(ctx context.Context, sessionID, planID string) (mealgen.NotifyStatus, error) {
	f.calls++
	if f.err != nil {
		return mealgen.NotifyLocked, f.err
	}
	if f.sessions != nil {
		_ = f.sessions.AppendNotification(dbctx.Context{Ctx: ctx}, sessionID, planID, types.ChatMessage{})
	}
	return f.status, nil
}

type fakeWorkflowStarter struct {
	err     error
	starts  int
	lastID  string
	lastArg interface{}
}

func (f *fakeWorkflowStarter) ExecuteWorkflow(ctx context.Context, options temporalsdkclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (temporalsdkclient.WorkflowRun, error) {
	f.starts++
	f.lastID = options.ID
	if len(args) > 0 {
		f.lastArg = args[0]
	}
	return nil, f.err
}
