package supervisor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/msomdec/skill-match/internal/supervisor"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingService runs until canceled, failing its first failures runs.
type countingService struct {
	runs     atomic.Int32
	failures int32
	started  chan struct{}
	once     sync.Once
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.runs.Add(1)
	if n <= s.failures {
		return errors.New("boom")
	}
	s.once.Do(func() { close(s.started) })
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return "counting" }

func TestTreeRunsServicesInEveryLayer(t *testing.T) {
	tree := supervisor.NewTree(quietLogger(), supervisor.TreeConfig{ShutdownTimeout: time.Second})

	svcs := []*countingService{
		{started: make(chan struct{})},
		{started: make(chan struct{})},
		{started: make(chan struct{})},
	}
	tree.AddAPIService(svcs[0])
	tree.AddMessagingService(svcs[1])
	tree.AddMaintenanceService(svcs[2])

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for i, s := range svcs {
		select {
		case <-s.started:
		case <-time.After(5 * time.Second):
			t.Fatalf("service %d did not start", i)
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop")
	}
}

func TestTreeRestartsFailedService(t *testing.T) {
	tree := supervisor.NewTree(quietLogger(), supervisor.TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	svc := &countingService{failures: 2, started: make(chan struct{})}
	tree.AddMaintenanceService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	select {
	case <-svc.started:
	case <-time.After(5 * time.Second):
		t.Fatal("service was not restarted")
	}
	if got := svc.runs.Load(); got != 3 {
		t.Errorf("runs = %d, want 3", got)
	}

	cancel()
	<-errCh
}

type fakeServer struct {
	listenErr error
	stop      chan struct{}
	shutdowns atomic.Int32
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.stop)
	return nil
}

func TestHTTPServerServiceShutsDownOnCancel(t *testing.T) {
	srv := &fakeServer{stop: make(chan struct{})}
	svc := supervisor.NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
	if srv.shutdowns.Load() != 1 {
		t.Errorf("shutdowns = %d, want 1", srv.shutdowns.Load())
	}
}

func TestHTTPServerServiceReportsListenError(t *testing.T) {
	srv := &fakeServer{listenErr: errors.New("address in use")}
	svc := supervisor.NewHTTPServerService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if svc.String() != "http-server" {
		t.Errorf("String = %q", svc.String())
	}
}
