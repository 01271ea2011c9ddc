package service

import (
	"context"
	"log/slog"
	"time"
)

// RetentionSweeper periodically deletes accounts that were never verified.
// It satisfies suture.Service.
type RetentionSweeper struct {
	verification *VerificationService
	interval     time.Duration
}

func NewRetentionSweeper(verification *VerificationService, interval time.Duration) *RetentionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RetentionSweeper{verification: verification, interval: interval}
}

// Serve runs a sweep immediately and then once per interval until ctx is done.
func (r *RetentionSweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *RetentionSweeper) sweep(ctx context.Context) {
	n, err := r.verification.PurgeUnverified(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("purge unverified users", "error", err)
		}
		return
	}
	if n > 0 {
		slog.Info("purged unverified users", "count", n)
	}
}

func (r *RetentionSweeper) String() string { return "retention-sweeper" }
