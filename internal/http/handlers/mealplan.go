package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grovli/grovli-backend/internal/http/response"
	"github.com/grovli/grovli-backend/internal/plan"
	"github.com/grovli/grovli-backend/internal/services"
)

type MealPlanHandler struct {
	plans services.PlanService
}

func NewMealPlanHandler(plans services.PlanService) *MealPlanHandler {
	return &MealPlanHandler{plans: plans}
}

type mealPlanRequestBody struct {
	plan.PlanRequest
	SessionID string `json:"session_id"`
}

// POST /api/mealplan
func (h *MealPlanHandler) RequestPlan(c *gin.Context) {
	var body mealPlanRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.plans.RequestPlan(c.Request.Context(), body.PlanRequest, body.SessionID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "plan_request_failed", err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/mealplan/:plan_id
func (h *MealPlanHandler) GetPlan(c *gin.Context) {
	planID := c.Param("plan_id")
	meals, err := h.plans.GetPlan(c.Request.Context(), planID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "get_plan_failed", err)
		return
	}
	if len(meals) == 0 {
		response.RespondError(c, http.StatusNotFound, "plan_not_found", fmt.Errorf("no meals for plan %s", planID))
		return
	}
	response.RespondOK(c, gin.H{"plan_id": planID, "meals": meals})
}

// GET /api/mealplan/:plan_id/status?meal_type=Dinner&days=2
func (h *MealPlanHandler) PlanStatus(c *gin.Context) {
	planID := c.Param("plan_id")
	mealType := c.DefaultQuery("meal_type", plan.MealTypeFullDay)
	days, err := strconv.Atoi(c.DefaultQuery("days", "1"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_days", err)
		return
	}

	res, err := h.plans.PlanStatus(c.Request.Context(), planID, mealType, days)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "plan_status_failed", err)
		return
	}
	response.RespondOK(c, res)
}
