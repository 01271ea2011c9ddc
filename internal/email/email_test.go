package email_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/skill-match/internal/email"
)

type fakeTransport struct {
	mu    sync.Mutex
	calls int
	msgs  [][]byte
	at    []time.Time
	// fail returns the error for the given 1-based attempt, nil on success.
	fail func(attempt int) error
	// block makes Send hang until ctx is done or unblock is closed.
	block chan struct{}
}

func (f *fakeTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.at = append(f.at, time.Now())
	f.msgs = append(f.msgs, msg)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if f.fail != nil {
		return f.fail(n)
	}
	return nil
}

func (f *fakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() email.Config {
	return email.Config{
		Host:        "smtp.example.com",
		Port:        587,
		Username:    "team@example.com",
		Password:    "secret",
		FrontendURL: "https://app.example.com",
		Attempts:    3,
		Backoff:     time.Millisecond,
		Timeout:     2 * time.Second,
	}
}

func TestSendVerificationCode_Success(t *testing.T) {
	ft := &fakeTransport{}
	s := email.NewSender(testConfig(), email.WithTransport(ft))

	if err := s.SendVerificationCode(context.Background(), "a@x.com", "123456"); err != nil {
		t.Fatalf("SendVerificationCode: %v", err)
	}
	if ft.Calls() != 1 {
		t.Fatalf("expected 1 attempt, got %d", ft.Calls())
	}

	msg := string(ft.msgs[0])
	for _, want := range []string{"To: a@x.com", "123456", "https://app.example.com/verify-email?email=a%40x.com", "Content-Type: text/html"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendVerificationCode_EscapesBody(t *testing.T) {
	ft := &fakeTransport{}
	s := email.NewSender(testConfig(), email.WithTransport(ft))

	if err := s.SendVerificationCode(context.Background(), "a@x.com", "<b>1</b>"); err != nil {
		t.Fatalf("SendVerificationCode: %v", err)
	}
	msg := string(ft.msgs[0])
	if strings.Contains(msg, "<b>1</b>") {
		t.Error("code was not escaped")
	}
	if !strings.Contains(msg, "&lt;b&gt;1&lt;/b&gt;") {
		t.Error("escaped code missing from body")
	}
	if !strings.Contains(msg, ">Verify Email</a>") {
		t.Error("verify link missing from body")
	}
}

func TestSendVerificationCode_ConfigurationMissing(t *testing.T) {
	cfg := testConfig()
	cfg.Password = ""
	ft := &fakeTransport{}
	s := email.NewSender(cfg, email.WithTransport(ft))

	err := s.SendVerificationCode(context.Background(), "a@x.com", "123456")
	if !errors.Is(err, email.ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
	if ft.Calls() != 0 {
		t.Fatalf("expected no connection attempt, got %d", ft.Calls())
	}
}

func TestSendVerificationCode_RetriesTransient(t *testing.T) {
	ft := &fakeTransport{fail: func(n int) error {
		if n < 3 {
			return errors.New("connection reset")
		}
		return nil
	}}
	s := email.NewSender(testConfig(), email.WithTransport(ft))

	if err := s.SendVerificationCode(context.Background(), "a@x.com", "123456"); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if ft.Calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", ft.Calls())
	}
}

func TestSendVerificationCode_LinearBackoff(t *testing.T) {
	const backoff = 100 * time.Millisecond
	cfg := testConfig()
	cfg.Backoff = backoff
	ft := &fakeTransport{fail: func(int) error { return errors.New("connection reset") }}
	s := email.NewSender(cfg, email.WithTransport(ft))

	err := s.SendVerificationCode(context.Background(), "a@x.com", "123456")
	if !errors.Is(err, email.ErrTransientFailure) {
		t.Fatalf("expected ErrTransientFailure, got %v", err)
	}

	ft.mu.Lock()
	at := append([]time.Time(nil), ft.at...)
	ft.mu.Unlock()
	if len(at) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(at))
	}

	first, second := at[1].Sub(at[0]), at[2].Sub(at[1])
	if first < backoff {
		t.Errorf("first wait = %v, want at least %v", first, backoff)
	}
	if second < 2*backoff {
		t.Errorf("second wait = %v, want at least %v", second, 2*backoff)
	}
	if second-first < backoff/2 {
		t.Errorf("waits %v then %v do not grow linearly", first, second)
	}
}

func TestSendVerificationCode_GivesUpAfterAttempts(t *testing.T) {
	ft := &fakeTransport{fail: func(int) error { return errors.New("451 try again later") }}
	s := email.NewSender(testConfig(), email.WithTransport(ft))

	err := s.SendVerificationCode(context.Background(), "a@x.com", "123456")
	if !errors.Is(err, email.ErrTransientFailure) {
		t.Fatalf("expected ErrTransientFailure, got %v", err)
	}
	if ft.Calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", ft.Calls())
	}
}

func TestSendVerificationCode_AuthNotRetried(t *testing.T) {
	ft := &fakeTransport{fail: func(int) error { return email.ErrAuthenticationFailed }}
	s := email.NewSender(testConfig(), email.WithTransport(ft))

	err := s.SendVerificationCode(context.Background(), "a@x.com", "123456")
	if !errors.Is(err, email.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
	if ft.Calls() != 1 {
		t.Fatalf("expected a single attempt, got %d", ft.Calls())
	}
}

func TestSendVerificationCode_HardTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	ft := &fakeTransport{block: make(chan struct{})}
	defer close(ft.block)
	s := email.NewSender(cfg, email.WithTransport(ft))

	start := time.Now()
	err := s.SendVerificationCode(context.Background(), "a@x.com", "123456")
	if !errors.Is(err, email.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected the call to return near the timeout, took %v", elapsed)
	}
}

func TestSendVerificationCode_TimeoutDuringBackoff(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	cfg.Backoff = time.Second
	ft := &fakeTransport{fail: func(int) error { return errors.New("connection refused") }}
	s := email.NewSender(cfg, email.WithTransport(ft))

	err := s.SendVerificationCode(context.Background(), "a@x.com", "123456")
	if !errors.Is(err, email.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if ft.Calls() != 1 {
		t.Fatalf("expected 1 attempt before the timeout, got %d", ft.Calls())
	}
}

func TestSendVerificationCode_BreakerOpens(t *testing.T) {
	cfg := testConfig()
	cfg.Attempts = 1
	ft := &fakeTransport{fail: func(int) error { return errors.New("connection refused") }}
	s := email.NewSender(cfg, email.WithTransport(ft))

	for i := 0; i < 5; i++ {
		_ = s.SendVerificationCode(context.Background(), "a@x.com", "123456")
	}
	calls := ft.Calls()

	err := s.SendVerificationCode(context.Background(), "a@x.com", "123456")
	if !errors.Is(err, email.ErrTransientFailure) {
		t.Fatalf("expected ErrTransientFailure from open breaker, got %v", err)
	}
	if ft.Calls() != calls {
		t.Fatal("expected open breaker to skip the transport")
	}
}
