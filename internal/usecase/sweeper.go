package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/authline/authline/internal/core/port"
)

// LockoutSweeper periodically decays failure counters across all accounts.
// It is a best-effort convenience: lock status itself is always derived
// lazily from the stored deadline at login time, never from the sweep.
type LockoutSweeper struct {
	accounts port.AccountRepository
	interval time.Duration
	log      *zap.Logger
}

// NewLockoutSweeper builds a sweeper running at the given interval.
func NewLockoutSweeper(accounts port.AccountRepository, interval time.Duration, log *zap.Logger) *LockoutSweeper {
	if interval <= 0 {
		interval = 3 * time.Hour
	}
	return &LockoutSweeper{
		accounts: accounts,
		interval: interval,
		log:      log,
	}
}

// Run sweeps on a fixed schedule until the context is cancelled.
func (s *LockoutSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("lockout sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("lockout sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *LockoutSweeper) sweep(ctx context.Context) {
	swept, err := s.accounts.SweepFailedAttempts(ctx)
	if err != nil {
		s.log.Error("lockout sweep failed", zap.Error(err))
		return
	}
	if swept > 0 {
		s.log.Info("lockout sweep reset counters", zap.Int64("accounts", swept))
	}
}
