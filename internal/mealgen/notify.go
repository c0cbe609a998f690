package mealgen

import (
	"context"
	"fmt"
	"time"

	"github.com/grovli/grovli-backend/internal/cache"
	chatrepo "github.com/grovli/grovli-backend/internal/data/repos/chat"
	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
	"github.com/grovli/grovli-backend/internal/utils"
)

type NotifyStatus string

const (
	NotifySent            NotifyStatus = "sent"
	NotifyAlreadyNotified NotifyStatus = "already_notified"
	NotifyLocked          NotifyStatus = "locked"
	NotifySessionNotFound NotifyStatus = "session_not_found"
)

const readyMessage = "Your meal plan is ready! Ask me anything about it."

const dispatchLockTTL = 30 * time.Second

// Notifier appends the plan-ready message to a chat session exactly once
// per (session, plan) pair. Dedup is three layers deep: hot flag, dispatch
// lock, durable notified_for map. Only the durable layer is authoritative;
// the hot flag is a fast path and the lock just narrows the race window.
type Notifier interface {
	NotifyOnce(ctx context.Context, sessionID, planID string) (NotifyStatus, error)
}

type notifier struct {
	log      *logger.Logger
	hot      cache.HotStore
	locks    cache.LockService
	sessions chatrepo.SessionRepo
	flagTTL  time.Duration
}

func NewNotifier(hot cache.HotStore, locks cache.LockService, sessions chatrepo.SessionRepo, log *logger.Logger) (Notifier, error) {
	if hot == nil || locks == nil || sessions == nil {
		return nil, fmt.Errorf("notifier missing deps")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	flagTTLSec := utils.GetEnvAsInt("NOTIFIED_FLAG_TTL_SECONDS", 86400, log)
	if flagTTLSec < 1 {
		flagTTLSec = 86400
	}
	return &notifier{
		log:      log.With("service", "NotificationDispatcher"),
		hot:      hot,
		locks:    locks,
		sessions: sessions,
		flagTTL:  time.Duration(flagTTLSec) * time.Second,
	}, nil
}

func (n *notifier) NotifyOnce(ctx context.Context, sessionID, planID string) (NotifyStatus, error) {
	if sessionID == "" || planID == "" {
		return NotifySessionNotFound, fmt.Errorf("session id and plan id required")
	}

	flagKey := cache.NotifiedKey(sessionID, planID)
	if _, ok, err := n.hot.Get(ctx, flagKey); err != nil {
		n.log.Warn("Hot flag read failed; continuing to durable check", "key", flagKey, "error", err)
	} else if ok {
		return NotifyAlreadyNotified, nil
	}

	lockKey := cache.NotifyLockKey(sessionID, planID)
	acquired, err := n.locks.TryAcquireTTL(ctx, lockKey, dispatchLockTTL)
	if err != nil {
		return NotifyLocked, err
	}
	if !acquired {
		return NotifyLocked, nil
	}
	defer func() {
		if rErr := n.locks.Release(ctx, lockKey); rErr != nil {
			n.log.Warn("Dispatch lock release failed; TTL will expire it", "key", lockKey, "error", rErr)
		}
	}()

	sess, err := n.sessions.GetByID(dbctx.Context{Ctx: ctx}, sessionID)
	if err != nil {
		return NotifySessionNotFound, err
	}
	if sess == nil {
		return NotifySessionNotFound, nil
	}

	if sess.Notified(planID) {
		n.setHotFlag(ctx, flagKey)
		return NotifyAlreadyNotified, nil
	}

	msg := types.ChatMessage{
		Role:      "assistant",
		Content:   readyMessage,
		Timestamp: time.Now().UTC(),
	}
	if err := n.sessions.AppendNotification(dbctx.Context{Ctx: ctx}, sessionID, planID, msg); err != nil {
		return NotifyLocked, fmt.Errorf("append notification: %w", err)
	}

	n.setHotFlag(ctx, flagKey)
	n.log.Info("Plan-ready notification sent", "session_id", sessionID, "plan_id", planID)
	return NotifySent, nil
}

func (n *notifier) setHotFlag(ctx context.Context, key string) {
	if err := n.hot.Set(ctx, key, "1", n.flagTTL); err != nil {
		n.log.Warn("Hot flag write failed", "key", key, "error", err)
	}
}
