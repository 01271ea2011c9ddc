package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/skill-match/internal/domain"
	"github.com/msomdec/skill-match/internal/service"
)

func TestRetentionSweeper_PurgesOnStart(t *testing.T) {
	f := newVerificationFixture(t, service.WithRetention(time.Nanosecond))
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, "Stale", "stale@x.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	f.clock.Advance(time.Second)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- service.NewRetentionSweeper(f.svc, time.Hour).Serve(runCtx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := f.svc.CheckStatus(ctx, "stale@x.com")
		if errors.Is(err, domain.ErrNotFound) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected stale account to be purged, last err %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
