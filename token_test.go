package inkwell

import (
	"testing"
	"time"
)

func newTestTokenService(t *testing.T, issued time.Time) *TokenService {
	t.Helper()
	s, err := NewTokenService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	s.now = func() time.Time { return issued }
	return s
}

func TestTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService("", time.Hour); err == nil {
		t.Fatal("expected an error for an empty signing secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestTokenService(t, time.Now())

	token, err := s.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	got, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if got != "user-42" {
		t.Errorf("Verify subject = %q, want %q", got, "user-42")
	}
}

func TestTokenExpiryBoundary(t *testing.T) {
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(t, issued)

	token, err := s.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	s.now = func() time.Time { return issued.Add(3599 * time.Second) }
	if _, err := s.Verify(token); err != nil {
		t.Errorf("token should be valid at T+3599s, got %v", err)
	}

	s.now = func() time.Time { return issued.Add(3601 * time.Second) }
	if _, err := s.Verify(token); err != ErrInvalidToken {
		t.Errorf("token should be invalid at T+3601s, got %v", err)
	}
}

func TestTokenFailureModesCollapse(t *testing.T) {
	s := newTestTokenService(t, time.Now())

	// Malformed.
	if _, err := s.Verify("not-a-token"); err != ErrInvalidToken {
		t.Errorf("malformed token err = %v, want ErrInvalidToken", err)
	}

	// Signed with a different key.
	other, err := NewTokenService("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	forged, err := other.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := s.Verify(forged); err != ErrInvalidToken {
		t.Errorf("badly-signed token err = %v, want ErrInvalidToken", err)
	}

	// Empty.
	if _, err := s.Verify(""); err != ErrInvalidToken {
		t.Errorf("empty token err = %v, want ErrInvalidToken", err)
	}
}
