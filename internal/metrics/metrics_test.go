package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/auth/login", "200"))

	RecordAPIRequest("POST", "/api/auth/login", 200, 15*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/auth/login", "200"))
	if after != before+1 {
		t.Fatalf("expected counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestRecordRelay(t *testing.T) {
	tests := []string{"delivered", "stored", "dropped", "persist_failed"}
	for _, outcome := range tests {
		t.Run(outcome, func(t *testing.T) {
			before := testutil.ToFloat64(MessagesRelayed.WithLabelValues(outcome))
			RecordRelay(outcome)
			if got := testutil.ToFloat64(MessagesRelayed.WithLabelValues(outcome)); got != before+1 {
				t.Fatalf("expected %v, got %v", before+1, got)
			}
		})
	}
}

func TestRecordEmailAttemptAndVerification(t *testing.T) {
	before := testutil.ToFloat64(EmailAttempts.WithLabelValues("transient"))
	RecordEmailAttempt("transient")
	if got := testutil.ToFloat64(EmailAttempts.WithLabelValues("transient")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}

	before = testutil.ToFloat64(VerificationEvents.WithLabelValues("verified"))
	RecordVerification("verified")
	if got := testutil.ToFloat64(VerificationEvents.WithLabelValues("verified")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}
