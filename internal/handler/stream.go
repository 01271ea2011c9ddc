package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/msomdec/skill-match/internal/service"
	"github.com/starfederation/datastar-go/datastar"
)

// StatusStreamHandler pushes an account's verification status over SSE so
// a waiting page can react as soon as the email link is used.
type StatusStreamHandler struct {
	verification *service.VerificationService
	interval     time.Duration
	timeout      time.Duration
}

func NewStatusStreamHandler(verification *service.VerificationService, interval, timeout time.Duration) *StatusStreamHandler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &StatusStreamHandler{verification: verification, interval: interval, timeout: timeout}
}

type statusSignals struct {
	IsVerified bool `json:"isVerified"`
}

// ServeHTTP streams {"isVerified":bool} signals until the account is
// verified, the client goes away or the stream times out.
// GET /api/auth/verification-status/stream?email=...
func (h *StatusStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	verified, err := h.verification.CheckStatus(r.Context(), email)
	if err != nil {
		writeServiceError(w, "stream verification status", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(statusSignals{IsVerified: verified}); err != nil || verified {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(h.timeout)
	defer deadline.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-deadline.C:
			return
		case <-ticker.C:
			verified, err := h.verification.CheckStatus(r.Context(), email)
			if err != nil {
				if r.Context().Err() == nil {
					slog.Error("poll verification status", "error", err)
				}
				return
			}
			if !verified {
				continue
			}
			if err := sse.MarshalAndPatchSignals(statusSignals{IsVerified: true}); err != nil {
				slog.Warn("patch verification signals", "error", err)
			}
			return
		}
	}
}
