package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/grovli/grovli-backend/internal/pkg/logger"
	"github.com/grovli/grovli-backend/internal/utils"
)

// LockService hands out advisory locks on the hot tier. A lock is a SETNX
// key with a TTL; a crashed holder is recovered only by expiry, so every
// operation guarded by a lock must stay idempotent.
type LockService interface {
	TryAcquire(ctx context.Context, key string) (bool, error)
	TryAcquireTTL(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type lockService struct {
	log        *logger.Logger
	hot        HotStore
	defaultTTL time.Duration
}

func NewLockService(hot HotStore, log *logger.Logger) (LockService, error) {
	if hot == nil {
		return nil, fmt.Errorf("hot store required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttlSec := utils.GetEnvAsInt("GEN_LOCK_TTL_SECONDS", 600, log)
	if ttlSec < 1 {
		ttlSec = 600
	}
	return &lockService{
		log:        log.With("service", "LockService"),
		hot:        hot,
		defaultTTL: time.Duration(ttlSec) * time.Second,
	}, nil
}

func (s *lockService) TryAcquire(ctx context.Context, key string) (bool, error) {
	return s.TryAcquireTTL(ctx, key, s.defaultTTL)
}

func (s *lockService) TryAcquireTTL(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	ok, err := s.hot.SetNX(ctx, key, "1", ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		s.log.Debug("Lock held elsewhere", "key", key)
	}
	return ok, nil
}

func (s *lockService) Release(ctx context.Context, key string) error {
	if err := s.hot.Del(ctx, key); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
