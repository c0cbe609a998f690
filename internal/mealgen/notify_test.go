package mealgen

import (
	"context"
	"testing"
	"time"

	"github.com/grovli/grovli-backend/internal/cache"
	types "github.com/grovli/grovli-backend/internal/domain"
	"github.com/grovli/grovli-backend/internal/pkg/dbctx"
	"github.com/grovli/grovli-backend/internal/pkg/logger"
)

func newTestNotifier(t *testing.T) (Notifier, *fakeHotStore, *fakeSessionRepo, cache.LockService) {
	t.Helper()
	hot := newFakeHotStore()
	sessions := newFakeSessionRepo()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	locks, err := cache.NewLockService(hot, log)
	if err != nil {
		t.Fatalf("locks: %v", err)
	}
	n, err := NewNotifier(hot, locks, sessions, log)
	if err != nil {
		t.Fatalf("notifier: %v", err)
	}
	return n, hot, sessions, locks
}

func TestNotifyOnceSendsThenDedups(t *testing.T) {
	n, hot, sessions, _ := newTestNotifier(t)
	ctx := context.Background()
	_ = sessions.Create(dbctx.Context{Ctx: ctx}, &types.ChatSession{ID: "sess-1", PlanProcessing: true})

	status, err := n.NotifyOnce(ctx, "sess-1", "plan-a")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if status != NotifySent {
		t.Fatalf("first dispatch should send, got %s", status)
	}
	if sessions.appends != 1 {
		t.Fatalf("expected one append, got %d", sessions.appends)
	}
	if _, ok, _ := hot.Get(ctx, cache.NotifiedKey("sess-1", "plan-a")); !ok {
		t.Fatalf("hot flag not set after send")
	}

	for i := 0; i < 2; i++ {
		status, err = n.NotifyOnce(ctx, "sess-1", "plan-a")
		if err != nil {
			t.Fatalf("redelivery %d: %v", i+2, err)
		}
		if status != NotifyAlreadyNotified {
			t.Fatalf("redelivery %d should dedup, got %s", i+2, status)
		}
	}
	if sessions.appends != 1 {
		t.Fatalf("dedup must not append again, appends=%d", sessions.appends)
	}
}

func TestNotifyOnceDurableLayerHoldsWithoutHotFlag(t *testing.T) {
	n, hot, sessions, _ := newTestNotifier(t)
	ctx := context.Background()

	_ = sessions.Create(dbctx.Context{Ctx: ctx}, &types.ChatSession{
		ID:          "sess-1",
		NotifiedFor: map[string]interface{}{"plan-a": true},
	})

	status, err := n.NotifyOnce(ctx, "sess-1", "plan-a")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if status != NotifyAlreadyNotified {
		t.Fatalf("durable flag should dedup, got %s", status)
	}
	if sessions.appends != 0 {
		t.Fatalf("no append expected")
	}
	// The durable hit warms the hot flag for the next caller.
	if _, ok, _ := hot.Get(ctx, cache.NotifiedKey("sess-1", "plan-a")); !ok {
		t.Fatalf("hot flag should be warmed from the durable layer")
	}
}

func TestNotifyOnceRespectsDispatchLock(t *testing.T) {
	n, _, sessions, locks := newTestNotifier(t)
	ctx := context.Background()
	_ = sessions.Create(dbctx.Context{Ctx: ctx}, &types.ChatSession{ID: "sess-1"})

	ok, err := locks.TryAcquireTTL(ctx, cache.NotifyLockKey("sess-1", "plan-a"), 30*time.Second)
	if err != nil || !ok {
		t.Fatalf("pre-acquire: ok=%v err=%v", ok, err)
	}

	status, err := n.NotifyOnce(ctx, "sess-1", "plan-a")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if status != NotifyLocked {
		t.Fatalf("held lock should yield locked, got %s", status)
	}
	if sessions.appends != 0 {
		t.Fatalf("locked dispatch must not append")
	}
}

func TestNotifyOnceUnknownSession(t *testing.T) {
	n, _, _, _ := newTestNotifier(t)
	status, err := n.NotifyOnce(context.Background(), "ghost", "plan-a")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if status != NotifySessionNotFound {
		t.Fatalf("expected session_not_found, got %s", status)
	}
}

func TestNotifyOncePerPlanIndependence(t *testing.T) {
	n, _, sessions, _ := newTestNotifier(t)
	ctx := context.Background()
	_ = sessions.Create(dbctx.Context{Ctx: ctx}, &types.ChatSession{ID: "sess-1"})

	if status, _ := n.NotifyOnce(ctx, "sess-1", "plan-a"); status != NotifySent {
		t.Fatalf("plan-a should send")
	}
	if status, _ := n.NotifyOnce(ctx, "sess-1", "plan-b"); status != NotifySent {
		t.Fatalf("a different plan must notify independently")
	}
	if sessions.appends != 2 {
		t.Fatalf("expected two appends, got %d", sessions.appends)
	}
}
