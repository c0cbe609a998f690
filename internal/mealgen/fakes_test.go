package mealgen

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/grovli/grovli-backend/internal/clients/openai"
	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
)

type fakeHotStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeHotStore() *fakeHotStore {
	return &fakeHotStore{data: map[string]string{}}
}

func (f *fakeHotStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeHotStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
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

type fakeMealRepo struct {
	mu   sync.Mutex
	rows map[string]*types.Meal
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
	if m, ok := f.rows[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeMealRepo) GetBySlot(dbc dbctx.Context, fingerprint, mealType string, slot int) (*types.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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

// fakeAI serves scripted responses, one per call, and falls back to the
// last entry when the script runs out.
type fakeAI struct {
	mu        sync.Mutex
	texts     []string
	textErr   error
	textCalls int

	image     openai.ImageGeneration
	imageErr  error
	imgCalls  int
	lastImage string
}

func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textCalls++
	if f.textErr != nil {
		return "", f.textErr
	}
	if len(f.texts) == 0 {
		return "", fmt.Errorf("fakeAI: no scripted text")
	}
	t := f.texts[0]
	if len(f.texts) > 1 {
		f.texts = f.texts[1:]
	}
	return t, nil
}

func (f *fakeAI) GenerateImage(ctx context.Context, prompt string) (openai.ImageGeneration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imgCalls++
	f.lastImage = prompt
	if f.imageErr != nil {
		return openai.ImageGeneration{}, f.imageErr
	}
	return f.image, nil
}

type fakeBucket struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	uploadErr error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{uploads: map[string][]byte{}}
}

func (f *fakeBucket) UploadFile(ctx context.Context, key string, file io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	raw, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	f.uploads[key] = raw
	return nil
}

func (f *fakeBucket) DeleteFile(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.uploads, key)
	return nil
}

func (f *fakeBucket) GetPublicURL(key string) string {
	return "https://storage.googleapis.com/meal-images-test/" + key
}

type fakeSessionRepo struct {
	mu      sync.Mutex
	rows    map[string]*types.ChatSession
	appends int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{rows: map[string]*types.ChatSession{}}
}

func (f *fakeSessionRepo) Create(dbc dbctx.Context, row *types.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *row
	f.rows[row.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) GetByID(dbc dbctx.Context, id string) (*types.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.rows[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeSessionRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "plan_id":
			s.PlanID, _ = v.(string)
		case "plan_processing":
			s.PlanProcessing, _ = v.(bool)
		case "plan_ready":
			s.PlanReady, _ = v.(bool)
		}
	}
	return nil
}

func (f *fakeSessionRepo) AppendNotification(dbc dbctx.Context, id, planID string, msg types.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("session not found")
	}
	f.appends++
	if s.NotifiedFor == nil {
		s.NotifiedFor = map[string]interface{}{}
	}
	s.NotifiedFor[planID] = true
	s.PlanID = planID
	s.PlanReady = true
	s.PlanProcessing = false
	return nil
}
