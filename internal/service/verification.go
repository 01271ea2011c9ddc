package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/msomdec/skill-match/internal/domain"
	"github.com/msomdec/skill-match/internal/email"
	"github.com/msomdec/skill-match/internal/metrics"
	"github.com/msomdec/skill-match/internal/validation"
)

const (
	DefaultCodeTTL   = 60 * time.Second
	DefaultRetention = 30 * time.Minute
	codeDigits       = 6
)

// Mailer delivers verification codes.
type Mailer interface {
	SendVerificationCode(ctx context.Context, address, code string) error
}

type passwordHasher interface {
	HashPassword(password string) (string, error)
}

// VerificationService owns the account verification lifecycle: a code is
// issued at registration, can be reissued by resend, and is consumed once
// by verify. Never-verified accounts are purged after the retention window.
type VerificationService struct {
	users     domain.UserRepository
	hasher    passwordHasher
	mailer    Mailer
	throttle  *Throttle
	now       func() time.Time
	newCode   func() (string, error)
	codeTTL   time.Duration
	retention time.Duration

	inflight sync.WaitGroup
}

// VerificationOption configures a VerificationService.
type VerificationOption func(*VerificationService)

// WithClock overrides the wall clock used for code expiry and retention.
func WithClock(now func() time.Time) VerificationOption {
	return func(s *VerificationService) { s.now = now }
}

// WithCodeGenerator overrides the random code generator.
func WithCodeGenerator(gen func() (string, error)) VerificationOption {
	return func(s *VerificationService) { s.newCode = gen }
}

// WithCodeTTL sets how long an issued code stays valid.
func WithCodeTTL(ttl time.Duration) VerificationOption {
	return func(s *VerificationService) { s.codeTTL = ttl }
}

// WithRetention sets how long a never-verified account is kept.
func WithRetention(d time.Duration) VerificationOption {
	return func(s *VerificationService) { s.retention = d }
}

// WithResendThrottle limits resend requests per email address.
func WithResendThrottle(t *Throttle) VerificationOption {
	return func(s *VerificationService) { s.throttle = t }
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(users domain.UserRepository, hasher passwordHasher, mailer Mailer, opts ...VerificationOption) *VerificationService {
	s := &VerificationService{
		users:     users,
		hasher:    hasher,
		mailer:    mailer,
		now:       time.Now,
		newCode:   GenerateCode,
		codeTTL:   DefaultCodeTTL,
		retention: DefaultRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type registerInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Register creates an unverified account and emails its first code in the
// background. A failed send is logged only; the user recovers with Resend.
func (s *VerificationService) Register(ctx context.Context, name, address, password string) (*domain.User, error) {
	address = NormalizeEmail(address)
	if err := validation.Struct(registerInput{Name: name, Email: address, Password: password}); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, address); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        address,
		PasswordHash: hash,
		Verification: domain.Unverified{Code: code, ExpiresAt: s.now().Add(s.codeTTL)},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.RecordVerification("issued")

	// The request may finish before the send does.
	sendCtx := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.mailer.SendVerificationCode(sendCtx, address, code); err != nil {
			slog.Error("send verification email", "email", address, "error", err)
		}
	}()

	return user, nil
}

// Resend issues a fresh code, invalidating any earlier one, and sends it
// synchronously. Missing provider configuration is reported as
// ErrEmailNotConfigured; other delivery failures are logged and the new
// code stays issued.
func (s *VerificationService) Resend(ctx context.Context, address string) error {
	address = NormalizeEmail(address)
	if address == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, address)
	if err != nil {
		return err
	}
	if user.IsVerified() {
		return domain.ErrAlreadyVerified
	}

	if s.throttle != nil && !s.throttle.Allow(address) {
		return domain.ErrTooManyRequests
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if err := s.users.SetVerificationCode(ctx, user.ID, code, s.now().Add(s.codeTTL)); err != nil {
		return err
	}
	metrics.RecordVerification("resent")

	if err := s.mailer.SendVerificationCode(ctx, address, code); err != nil {
		if errors.Is(err, email.ErrConfigurationMissing) {
			return domain.ErrEmailNotConfigured
		}
		slog.Error("resend verification email", "email", address, "error", err)
	}
	return nil
}

// Verify consumes code for the account. It reports alreadyVerified when the
// account had been verified before this call. A code is rejected when it
// does not match exactly, is absent, or now is at or past its expiry.
func (s *VerificationService) Verify(ctx context.Context, address, code string) (alreadyVerified bool, err error) {
	address = NormalizeEmail(address)
	if address == "" || code == "" {
		return false, fmt.Errorf("%w: email and code are required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, address)
	if err != nil {
		return false, err
	}

	pending, ok := user.Verification.(domain.Unverified)
	if !ok {
		return true, nil
	}

	now := s.now()
	if !pending.Accepts(code, now) {
		metrics.RecordVerification("rejected")
		return false, domain.ErrInvalidOrExpiredCode
	}

	consumed, err := s.users.ConsumeVerificationCode(ctx, user.ID, code, now)
	if err != nil {
		return false, err
	}
	if !consumed {
		// Lost a race with a concurrent verify or resend.
		current, err := s.users.GetByID(ctx, user.ID)
		if err != nil {
			return false, err
		}
		if current.IsVerified() {
			return true, nil
		}
		metrics.RecordVerification("rejected")
		return false, domain.ErrInvalidOrExpiredCode
	}

	metrics.RecordVerification("verified")
	return false, nil
}

// CheckStatus reports whether the account has been verified.
func (s *VerificationService) CheckStatus(ctx context.Context, address string) (bool, error) {
	address = NormalizeEmail(address)
	if address == "" {
		return false, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, address)
	if err != nil {
		return false, err
	}
	return user.IsVerified(), nil
}

// PurgeUnverified deletes never-verified accounts older than the retention
// window and returns how many were removed.
func (s *VerificationService) PurgeUnverified(ctx context.Context) (int64, error) {
	n, err := s.users.DeleteUnverifiedBefore(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.UnverifiedPurged.Add(float64(n))
	}
	return n, nil
}

// Wait blocks until background registration emails have finished.
func (s *VerificationService) Wait() {
	s.inflight.Wait()
}

// GenerateCode returns a uniformly random numeric code of fixed length.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
