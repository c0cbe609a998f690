package cache

import (
	"context"
	"testing"
	"time"

	"github.com/grovli/grovli-backend/internal/pkg/logger"
)

func newTestLocks(t *testing.T) (LockService, *fakeHotStore) {
	t.Helper()
	hot := newFakeHotStore()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	locks, err := NewLockService(hot, log)
	if err != nil {
		t.Fatalf("new locks: %v", err)
	}
	return locks, hot
}

func TestLockMutualExclusion(t *testing.T) {
	locks, _ := newTestLocks(t)
	ctx := context.Background()
	key := GenLockKey("fp-1")

	ok, err := locks.TryAcquire(ctx, key)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !ok {
		t.Fatalf("first acquire should succeed")
	}

	ok, err = locks.TryAcquire(ctx, key)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatalf("second acquire should be refused while held")
	}

	if err := locks.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = locks.TryAcquire(ctx, key)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if !ok {
		t.Fatalf("acquire after release should succeed")
	}
}

func TestLockNamespacesAreIndependent(t *testing.T) {
	locks, _ := newTestLocks(t)
	ctx := context.Background()

	ok, _ := locks.TryAcquire(ctx, GenLockKey("fp-1"))
	if !ok {
		t.Fatalf("generation lock should be free")
	}
	ok, _ = locks.TryAcquireTTL(ctx, NotifyLockKey("sess-1", "plan-a"), 30*time.Second)
	if !ok {
		t.Fatalf("dispatch lock must not collide with the generation lock")
	}
}
