// Package email delivers transactional email over SMTP with bounded retries,
// linear backoff, a circuit breaker and a hard overall timeout.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/msomdec/skill-match/internal/metrics"
	"github.com/sethvargo/go-retry"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	// ErrConfigurationMissing is returned before any connection is attempted
	// when provider credentials are not configured.
	ErrConfigurationMissing = errors.New("email provider credentials are not configured")
	// ErrTimeout means the hard timeout elapsed before delivery completed.
	ErrTimeout = errors.New("email delivery timed out")
	// ErrAuthenticationFailed means the provider rejected the credentials.
	// It is never retried.
	ErrAuthenticationFailed = errors.New("email provider authentication failed")
	// ErrTransientFailure covers connection and server errors that persisted
	// through every attempt, and an open circuit breaker.
	ErrTransientFailure = errors.New("email delivery failed")
)

const breakerName = "smtp"

// Config holds SMTP provider settings and delivery policy.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string // Defaults to Username
	FromName    string
	FrontendURL string // Base of the verification link

	Timeout     time.Duration // Hard bound on a whole Send call
	Attempts    int
	Backoff     time.Duration // Wait before attempt n+1 is Backoff*n
	DialTimeout time.Duration
}

// Transport performs a single delivery attempt on a fresh connection.
type Transport interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// Sender sends verification emails.
type Sender struct {
	cfg       Config
	transport Transport
	breaker   *gobreaker.CircuitBreaker[struct{}]
}

// Option configures a Sender.
type Option func(*Sender)

// WithTransport replaces the SMTP transport.
func WithTransport(t Transport) Option {
	return func(s *Sender) { s.transport = t }
}

// NewSender creates a Sender. Zero policy fields fall back to 3 attempts,
// 3s base backoff and a 30s hard timeout.
func NewSender(cfg Config, opts ...Option) *Sender {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 3 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.FromName == "" {
		cfg.FromName = "Skill Match Team"
	}

	s := &Sender{cfg: cfg}
	s.transport = &smtpTransport{
		host:        cfg.Host,
		port:        cfg.Port,
		username:    cfg.Username,
		password:    cfg.Password,
		dialTimeout: cfg.DialTimeout,
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether provider credentials are present.
func (s *Sender) Configured() bool {
	return s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.Host != ""
}

// SendVerificationCode emails the code and a verification link to address.
func (s *Sender) SendVerificationCode(ctx context.Context, address, code string) error {
	if !s.Configured() {
		return ErrConfigurationMissing
	}

	body, err := renderVerificationEmail(ctx, s.verificationLink(address), code)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	msg := buildMessage(s.cfg.FromName, s.cfg.From, address, "Verify your email address", body)

	return s.deliver(ctx, address, msg)
}

// deliver runs the retry loop on its own goroutine so that a transport
// ignoring ctx still cannot hold the caller past the hard timeout.
func (s *Sender) deliver(ctx context.Context, to string, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
			return s.attempt(ctx, to, msg)
		})
	}()

	select {
	case err := <-done:
		return s.classify(ctx, err)
	case <-ctx.Done():
		return s.classify(ctx, ctx.Err())
	}
}

func (s *Sender) attempt(ctx context.Context, to string, msg []byte) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.transport.Send(ctx, s.cfg.From, []string{to}, msg)
	})
	switch {
	case err == nil:
		metrics.RecordEmailAttempt("success")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordEmailAttempt("rejected")
		return fmt.Errorf("%w: %v", ErrTransientFailure, err)
	case errors.Is(err, ErrAuthenticationFailed):
		metrics.RecordEmailAttempt("auth_failed")
		return err
	default:
		metrics.RecordEmailAttempt("transient")
		slog.Warn("email attempt failed", "to", to, "error", err)
		return retry.RetryableError(err)
	}
}

// backoff yields Backoff, 2*Backoff, ... for at most Attempts-1 retries.
func (s *Sender) backoff() retry.Backoff {
	var n time.Duration
	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return s.cfg.Backoff * n, false
	})
	return retry.WithMaxRetries(uint64(s.cfg.Attempts-1), linear)
}

func (s *Sender) classify(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, ErrAuthenticationFailed), errors.Is(err, ErrTransientFailure):
		return err
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrTransientFailure, err)
	}
}

func (s *Sender) verificationLink(address string) string {
	base := strings.TrimRight(s.cfg.FrontendURL, "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	return base + "/verify-email?email=" + url.QueryEscape(address)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
