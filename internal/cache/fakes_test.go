package cache

import (
	"context"
	"sync"
	"time"

	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
)

type fakeHotStore struct {
	mu   sync.Mutex
	data map[string]string

	failReads bool
	gets      int
	sets      int
}

func newFakeHotStore() *fakeHotStore {
	return &fakeHotStore{data: map[string]string{}}
}

func (f *fakeHotStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.failReads {
		return "", false, context.DeadlineExceeded
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeHotStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.data[key] = value
	return nil
}

func (f *fakeHotStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeHotStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeHotStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

// fakeMealRepo keeps rows in a map keyed by meal ID.
type fakeMealRepo struct {
	mu    sync.Mutex
	rows  map[string]*types.Meal
	reads int
}

func newFakeMealRepo() *fakeMealRepo {
	return &fakeMealRepo{rows: map[string]*types.Meal{}}
}

func (f *fakeMealRepo) Upsert(dbc dbctx.Context, row *types.Meal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *row
	f.rows[row.ID] = &cp
	return nil
}

func (f *fakeMealRepo) GetByID(dbc dbctx.Context, id string) (*types.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if m, ok := f.rows[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeMealRepo) GetBySlot(dbc dbctx.Context, fingerprint, mealType string, slot int) (*types.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	for _, m := range f.rows {
		if m.Fingerprint == fingerprint && m.MealType == mealType && m.SlotIndex == slot {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMealRepo) GetByNameFingerprint(dbc dbctx.Context, name, fingerprint string) (*types.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	for _, m := range f.rows {
		if m.Name == name && m.Fingerprint == fingerprint {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMealRepo) GetByPlanID(dbc dbctx.Context, planID string) ([]*types.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	var out []*types.Meal
	for _, m := range f.rows {
		if m.PlanID == planID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMealRepo) GetByFingerprint(dbc dbctx.Context, fingerprint string) ([]*types.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	var out []*types.Meal
	for _, m := range f.rows {
		if m.Fingerprint == fingerprint {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMealRepo) CountByPlanID(dbc dbctx.Context, planID string) (int64, error) {
	rows, _ := f.GetByPlanID(dbc, planID)
	return int64(len(rows)), nil
}

func (f *fakeMealRepo) CountPendingImages(dbc dbctx.Context, planID string) (int64, error) {
	rows, _ := f.GetByPlanID(dbc, planID)
	var n int64
	for _, m := range rows {
		if m.ImageURL == "" {
			n++
		}
	}
	return n, nil
}

func (f *fakeMealRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "plan_id":
			m.PlanID, _ = v.(string)
		case "image_url":
			m.ImageURL, _ = v.(string)
		}
	}
	return nil
}
