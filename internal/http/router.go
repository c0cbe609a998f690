package http

import (
	"github.com/gin-gonic/gin"
	httpH "github.com/grovli/grovli-backend/internal/http/handlers"
	httpMW "github.com/grovli/grovli-backend/internal/http/middleware"
)

type RouterConfig struct {
	MealPlanHandler *httpH.MealPlanHandler
	ChatHandler     *httpH.ChatHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Meal plans
		if cfg.MealPlanHandler != nil {
			api.POST("/mealplan", cfg.MealPlanHandler.RequestPlan)
			api.GET("/mealplan/:plan_id", cfg.MealPlanHandler.GetPlan)
			api.GET("/mealplan/:plan_id/status", cfg.MealPlanHandler.PlanStatus)
		}

		// Chatbot
		if cfg.ChatHandler != nil {
			api.POST("/chatbot/start_session", cfg.ChatHandler.StartSession)
			api.GET("/chatbot/session/:session_id", cfg.ChatHandler.GetSession)
			api.POST("/chatbot/notify_ready", cfg.ChatHandler.NotifyReady)
		}
	}

	return r
}
