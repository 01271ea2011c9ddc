package domain

import (
	"context"
	"time"
)

// User represents a registered user of the application.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Verification VerificationState
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsVerified reports whether the user has confirmed their email address.
func (u *User) IsVerified() bool {
	_, ok := u.Verification.(Verified)
	return ok
}

// VerificationState is either Unverified or Verified. Once a user is
// Verified there is no code left to consume.
type VerificationState interface {
	verificationState()
}

// Unverified holds the pending one-time code. Code is empty when no code
// has been issued.
type Unverified struct {
	Code      string
	ExpiresAt time.Time
}

// Verified marks a confirmed account.
type Verified struct {
	At time.Time
}

func (Unverified) verificationState() {}
func (Verified) verificationState()   {}

// Accepts reports whether code is the pending code and still valid at now.
// A code is invalid at the instant of expiry.
func (u Unverified) Accepts(code string, now time.Time) bool {
	if u.Code == "" || code != u.Code {
		return false
	}
	return now.Before(u.ExpiresAt)
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// SetVerificationCode overwrites the pending code of an unverified user.
	// Returns ErrAlreadyVerified if the user has been verified meanwhile.
	SetVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error
	// ConsumeVerificationCode marks the user verified and clears the code,
	// but only if code is still the pending one and unexpired at at.
	// Reports whether it did.
	ConsumeVerificationCode(ctx context.Context, id, code string, at time.Time) (bool, error)
	// DeleteUnverifiedBefore removes never-verified users created before cutoff.
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
