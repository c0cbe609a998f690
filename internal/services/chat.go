package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	chatrepo "github.com/grovli/grovli-backend/internal/data/repos/chat"
	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/mealgen"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
)

const sessionGreeting = "Hi! I'm putting your meal plan together now. Feel free to ask me anything while you wait."

type ChatService interface {
	StartSession(ctx context.Context, userID string) (*types.ChatSession, error)

	// GetSession returns the session and, when a finished plan slipped past
	// the workflow's notification (worker crash, dropped dispatch), recovers
	// by dispatching it before returning. Returns (nil, nil) when unknown.
	GetSession(ctx context.Context, sessionID string) (*types.ChatSession, error)

	NotifyReady(ctx context.Context, sessionID, planID string) (mealgen.NotifyStatus, error)
}

type chatService struct {
	log      *logger.Logger
	sessions chatrepo.SessionRepo
	gate     mealgen.ReadinessGate
	notifier mealgen.Notifier
}

func NewChatService(sessions chatrepo.SessionRepo, gate mealgen.ReadinessGate, notifier mealgen.Notifier, log *logger.Logger) (ChatService, error) {
	if sessions == nil || gate == nil || notifier == nil {
		return nil, fmt.Errorf("chat service missing deps")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &chatService{
		log:      log.With("service", "ChatService"),
		sessions: sessions,
		gate:     gate,
		notifier: notifier,
	}, nil
}

func (s *chatService) StartSession(ctx context.Context, userID string) (*types.ChatSession, error) {
	greeting := []types.ChatMessage{{
		Role:      "assistant",
		Content:   sessionGreeting,
		Timestamp: time.Now().UTC(),
	}}
	raw, err := json.Marshal(greeting)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &types.ChatSession{
		ID:             uuid.NewString(),
		UserID:         strings.TrimSpace(userID),
		PlanProcessing: true,
		Messages:       datatypes.JSON(raw),
		NotifiedFor:    datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.sessions.Create(dbctx.Context{Ctx: ctx}, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.log.Info("Chat session started", "session_id", sess.ID, "user_id", sess.UserID)
	return sess, nil
}

func (s *chatService) GetSession(ctx context.Context, sessionID string) (*types.ChatSession, error) {
	sess, err := s.sessions.GetByID(dbctx.Context{Ctx: ctx}, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	if s.recoverNotification(ctx, sess) {
		if refreshed, rErr := s.sessions.GetByID(dbctx.Context{Ctx: ctx}, sessionID); rErr == nil && refreshed != nil {
			return refreshed, nil
		}
	}
	return sess, nil
}

// recoverNotification reports whether it dispatched a missed plan-ready
// notification for the session's current plan.
func (s *chatService) recoverNotification(ctx context.Context, sess *types.ChatSession) bool {
	if sess.PlanID == "" || sess.ExpectedMeals < 1 || sess.Notified(sess.PlanID) {
		return false
	}

	ready, _, err := s.gate.IsReady(ctx, sess.PlanID, sess.ExpectedMeals)
	if err != nil {
		s.log.Warn("Readiness check failed during session read", "session_id", sess.ID, "plan_id", sess.PlanID, "error", err)
		return false
	}
	if !ready {
		return false
	}

	status, err := s.notifier.NotifyOnce(ctx, sess.ID, sess.PlanID)
	if err != nil {
		s.log.Warn("Notification recovery failed", "session_id", sess.ID, "plan_id", sess.PlanID, "error", err)
		return false
	}
	if status == mealgen.NotifySent {
		s.log.Info("Recovered missed plan-ready notification", "session_id", sess.ID, "plan_id", sess.PlanID)
	}
	return status == mealgen.NotifySent
}

func (s *chatService) NotifyReady(ctx context.Context, sessionID, planID string) (mealgen.NotifyStatus, error) {
	sess, err := s.sessions.GetByID(dbctx.Context{Ctx: ctx}, sessionID)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return mealgen.NotifySessionNotFound, nil
	}
	if sess.PlanID != planID || sess.ExpectedMeals < 1 {
		return "", fmt.Errorf("plan %s is not tracked by session %s", planID, sessionID)
	}

	ready, reason, err := s.gate.IsReady(ctx, planID, sess.ExpectedMeals)
	if err != nil {
		return "", err
	}
	if !ready {
		return "", fmt.Errorf("plan %s not ready: %s", planID, reason)
	}
	return s.notifier.NotifyOnce(ctx, sessionID, planID)
}
