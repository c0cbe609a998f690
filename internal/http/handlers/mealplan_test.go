package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/mealgen"
	"github.com/grovli/grovli-backend/internal/plan"
	"github.com/grovli/grovli-backend/internal/services"
)

type fakePlanService struct {
	result *services.PlanResult
	meals  []*types.Meal
	status *services.PlanStatusResult
	err    error

	lastSessionID string
}

func (f *fakePlanService) RequestPlan(ctx context.Context, req plan.PlanRequest, sessionID string) (*services.PlanResult, error) {
	f.lastSessionID = sessionID
	return f.result, f.err
}

func (f *fakePlanService) GetPlan(ctx context.Context, planID string) ([]*types.Meal, error) {
	return f.meals, f.err
}

func (f *fakePlanService) PlanStatus(ctx context.Context, planID, mealType string, days int) (*services.PlanStatusResult, error) {
	return f.status, f.err
}

func newMealPlanRouter(svc services.PlanService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewMealPlanHandler(svc)
	r.POST("/api/mealplan", h.RequestPlan)
	r.GET("/api/mealplan/:plan_id", h.GetPlan)
	r.GET("/api/mealplan/:plan_id/status", h.PlanStatus)
	return r
}

func TestRequestPlanHandler(t *testing.T) {
	svc := &fakePlanService{result: &services.PlanResult{
		Status:      services.PlanStatusProcessing,
		PlanID:      "plan-1",
		Fingerprint: "fp-1",
	}}
	r := newMealPlanRouter(svc)

	body := `{"meal_type":"Dinner","days":2,"calories":2000,"session_id":"sess-1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/mealplan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if svc.lastSessionID != "sess-1" {
		t.Fatalf("session id not forwarded: %q", svc.lastSessionID)
	}

	var out services.PlanResult
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != services.PlanStatusProcessing || out.PlanID != "plan-1" {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestRequestPlanHandlerRejectsBadJSON(t *testing.T) {
	r := newMealPlanRouter(&fakePlanService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/mealplan", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGetPlanHandlerNotFound(t *testing.T) {
	r := newMealPlanRouter(&fakePlanService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/mealplan/missing", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestGetPlanHandlerReturnsMeals(t *testing.T) {
	svc := &fakePlanService{meals: []*types.Meal{{ID: "m-1", PlanID: "plan-1", Name: "Grilled Salmon Bowl"}}}
	r := newMealPlanRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/mealplan/plan-1", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var out struct {
		PlanID string        `json:"plan_id"`
		Meals  []*types.Meal `json:"meals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.PlanID != "plan-1" || len(out.Meals) != 1 {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestPlanStatusHandler(t *testing.T) {
	svc := &fakePlanService{status: &services.PlanStatusResult{
		PlanID: "plan-1",
		Ready:  false,
		Reason: mealgen.ReasonImagesPending,
	}}
	r := newMealPlanRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/mealplan/plan-1/status?meal_type=Dinner&days=2", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var out services.PlanStatusResult
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Ready || out.Reason != mealgen.ReasonImagesPending {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestPlanStatusHandlerRejectsBadDays(t *testing.T) {
	r := newMealPlanRouter(&fakePlanService{err: fmt.Errorf("unused")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/mealplan/plan-1/status?days=two", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
