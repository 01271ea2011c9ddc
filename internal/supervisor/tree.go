// Package supervisor runs the long-lived services under a suture tree so a
// crashed service is restarted with backoff instead of taking the process down.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds restart and shutdown policy. Zero fields take defaults.
type TreeConfig struct {
	FailureThreshold float64       // Default 5
	FailureDecay     float64       // Seconds, default 30
	FailureBackoff   time.Duration // Default 15s
	ShutdownTimeout  time.Duration // Default 10s
}

// Tree has three layers: api (HTTP server), messaging (websocket hub) and
// maintenance (retention sweep, throttle pruning).
type Tree struct {
	root        *suture.Supervisor
	api         *suture.Supervisor
	messaging   *suture.Supervisor
	maintenance *suture.Supervisor
	config      TreeConfig
}

func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	hook := (&sutureslog.Handler{Logger: logger}).MustHook()
	spec := func(withHook bool) suture.Spec {
		s := suture.Spec{
			FailureThreshold: config.FailureThreshold,
			FailureDecay:     config.FailureDecay,
			FailureBackoff:   config.FailureBackoff,
			Timeout:          config.ShutdownTimeout,
		}
		if withHook {
			s.EventHook = hook
		}
		return s
	}

	t := &Tree{
		root:        suture.New("skill-match", spec(true)),
		api:         suture.New("api-layer", spec(false)),
		messaging:   suture.New("messaging-layer", spec(false)),
		maintenance: suture.New("maintenance-layer", spec(false)),
		config:      config,
	}
	t.root.Add(t.maintenance)
	t.root.Add(t.messaging)
	t.root.Add(t.api)
	return t
}

func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

func (t *Tree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.messaging.Add(svc)
}

func (t *Tree) AddMaintenanceService(svc suture.Service) suture.ServiceToken {
	return t.maintenance.Add(svc)
}

// Serve blocks until ctx is done and every service has stopped or the
// shutdown timeout has passed.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that ignored shutdown.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
