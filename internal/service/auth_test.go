package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/skill-match/internal/domain"
	"github.com/msomdec/skill-match/internal/repository/sqlite"
	"github.com/msomdec/skill-match/internal/service"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	// Use cost 4 for fast tests.
	auth := service.NewAuthService(db.Users(), testJWTSecret, 4, time.Hour)
	return auth, db
}

// fakeMailer records every code it is asked to send.
type fakeMailer struct {
	mu    sync.Mutex
	codes map[string][]string
	err   error
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, address, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string][]string)
	}
	m.codes[address] = append(m.codes[address], code)
	return m.err
}

func (m *fakeMailer) last(address string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := m.codes[address]
	if len(codes) == 0 {
		return ""
	}
	return codes[len(codes)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// registerVerified creates a verified account directly through the repository.
func registerVerified(t *testing.T, auth *service.AuthService, db *sqlite.DB, email, password string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &domain.User{
		Name:         "User " + email,
		Email:        email,
		PasswordHash: hash,
		Verification: domain.Verified{At: time.Now()},
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return user
}

func TestAuthService_Login_Success(t *testing.T) {
	auth, db := newTestAuthService(t)
	registerVerified(t, auth, db, "login@example.com", "password123")

	user, token, err := auth.Login(context.Background(), "Login@Example.com ", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if user.Email != "login@example.com" {
		t.Fatalf("expected email login@example.com, got %s", user.Email)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	auth, db := newTestAuthService(t)
	registerVerified(t, auth, db, "wrongpw@example.com", "password123")

	_, _, err := auth.Login(context.Background(), "wrongpw@example.com", "wrongpassword")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, _, err := auth.Login(context.Background(), "nobody@example.com", "password123")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmailDoesBcryptWork(t *testing.T) {
	db := newTestDB(t)
	const cost = 10
	auth := service.NewAuthService(db.Users(), testJWTSecret, cost, time.Hour)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), cost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	start := time.Now()
	_ = bcrypt.CompareHashAndPassword(hash, []byte("wrong-password"))
	compare := time.Since(start)

	// The first call also builds the placeholder hash.
	if _, _, err := auth.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	start = time.Now()
	_, _, err = auth.Login(ctx, "nobody@example.com", "password123")
	elapsed := time.Since(start)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if elapsed < compare/4 {
		t.Errorf("unknown email login took %v, a bcrypt comparison takes %v", elapsed, compare)
	}
}

func TestAuthService_Login_Unverified(t *testing.T) {
	auth, db := newTestAuthService(t)
	verification := service.NewVerificationService(db.Users(), auth, &fakeMailer{})
	ctx := context.Background()

	if _, err := verification.Register(ctx, "Pending", "pending@example.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	verification.Wait()

	_, _, err := auth.Login(ctx, "pending@example.com", "password123")
	if !errors.Is(err, domain.ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}

	// Verification is checked before the password.
	_, _, err = auth.Login(ctx, "pending@example.com", "not-the-password")
	if !errors.Is(err, domain.ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified for wrong password, got %v", err)
	}
}

func TestAuthService_JWT_GenerateAndValidate(t *testing.T) {
	auth, db := newTestAuthService(t)
	user := registerVerified(t, auth, db, "jwt@example.com", "password123")

	_, token, err := auth.Login(context.Background(), "jwt@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	userID, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("expected user ID %s, got %s", user.ID, userID)
	}
}

func TestAuthService_JWT_Expired(t *testing.T) {
	db := newTestDB(t)
	auth := service.NewAuthService(db.Users(), testJWTSecret, 4, time.Nanosecond)
	registerVerified(t, auth, db, "exp@example.com", "password123")

	_, token, err := auth.Login(context.Background(), "exp@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	// exp has one-second resolution.
	time.Sleep(1100 * time.Millisecond)

	if _, err := auth.ValidateToken(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestAuthService_JWT_InvalidToken(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, err := auth.ValidateToken("not-a-valid-jwt")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_JWT_TamperedToken(t *testing.T) {
	auth, db := newTestAuthService(t)
	registerVerified(t, auth, db, "tamper@example.com", "password123")

	_, token, err := auth.Login(context.Background(), "tamper@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Tamper with the token by flipping several characters in the signature.
	tampered := token[:len(token)-5] + "XXXXX"
	_, err = auth.ValidateToken(tampered)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for tampered token, got %v", err)
	}
}

func TestAuthService_JWT_WrongSecret(t *testing.T) {
	auth1, db := newTestAuthService(t)
	registerVerified(t, auth1, db, "secret@example.com", "password123")

	_, token, err := auth1.Login(context.Background(), "secret@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	auth2 := service.NewAuthService(db.Users(), "a-completely-different-secret-value", 4, time.Hour)
	_, err = auth2.ValidateToken(token)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong secret, got %v", err)
	}
}
