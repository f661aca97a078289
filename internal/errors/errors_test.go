package errors

import (
	"fmt"
	"testing"
	"time"
)

func TestSessionError_Format(t *testing.T) {
	err := NewSessionError("cannot resume", ErrAuthFailed).WithSessionID("alice")

	want := "session error [session=alice]: cannot resume: authentication failed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestSessionError_Is(t *testing.T) {
	err := NewSessionError("lookup failed", ErrSessionNotFound)

	if !Is(err, ErrSessionNotFound) {
		t.Error("SessionError should match its wrapped sentinel")
	}
	if Is(err, ErrAuthFailed) {
		t.Error("SessionError should not match an unrelated sentinel")
	}

	var sessionErr *SessionError
	if !As(err, &sessionErr) {
		t.Error("As should extract *SessionError")
	}
}

func TestDeliveryError_WrapsSentinelAndCause(t *testing.T) {
	cause := New("socket closed")
	err := NewDeliveryError("send failed", cause).
		WithSessionID("alice").
		WithRecipient("628123@c.us")

	if !Is(err, ErrDeliveryFailed) {
		t.Error("DeliveryError should match ErrDeliveryFailed")
	}
	if !Is(err, cause) {
		t.Error("DeliveryError should preserve the underlying cause")
	}
	if !IsRetryable(err) {
		t.Error("transport failures should be classified retryable")
	}
}

func TestDeliveryError_NilCause(t *testing.T) {
	err := NewDeliveryError("send failed", nil)
	if !Is(err, ErrDeliveryFailed) {
		t.Error("DeliveryError with nil cause should still match ErrDeliveryFailed")
	}
}

func TestPersistenceError(t *testing.T) {
	cause := New("disk full")
	err := NewPersistenceError("save failed", cause).WithPath("/tmp/sessions.json")

	if !Is(err, ErrPersistenceWrite) {
		t.Error("PersistenceError should match ErrPersistenceWrite")
	}
	if IsUserFacing(err) {
		t.Error("persistence failures are internal, not user-facing")
	}
	if GetSeverity(err) != SeverityWarning {
		t.Errorf("GetSeverity() = %v, want SeverityWarning", GetSeverity(err))
	}
}

func TestValidationError_MatchesInvalidInput(t *testing.T) {
	err := NewValidationError("session id cannot be empty").WithField("id")

	if !Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
	if !IsUserFacing(err) {
		t.Error("validation errors should be user-facing")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("waiting for driver teardown", 5*time.Second)

	if !Is(err, ErrTimeout) {
		t.Error("TimeoutError should match ErrTimeout")
	}
	if !IsRetryable(err) {
		t.Error("timeouts should be retryable")
	}
}

func TestIsRetryable_PlainErrors(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
	if IsRetryable(New("some error")) {
		t.Error("plain errors are not retryable")
	}
	if !IsRetryable(fmt.Errorf("outer: %w", ErrTimeout)) {
		t.Error("wrapped ErrTimeout should be retryable")
	}
}

func TestIsUserFacing_Sentinels(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{ErrSessionNotFound, true},
		{ErrSessionNotReady, true},
		{ErrRecipientNotRegistered, true},
		{New("internal"), false},
		{nil, false},
	}

	for _, tc := range cases {
		if got := IsUserFacing(tc.err); got != tc.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestWrapf(t *testing.T) {
	base := ErrSessionNotFound
	err := Wrapf(base, "failed to send via session %s", "ghost")

	if !Is(err, ErrSessionNotFound) {
		t.Error("Wrapf should preserve the error chain")
	}
	if Wrapf(nil, "noop") != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}
