package jwt

import (
	"errors"
	"testing"
	"time"
)

func testManager(t *testing.T, secret string) *Manager {
	t.Helper()

	m, err := NewManager(Config{Secret: []byte(secret), TTL: 24 * time.Hour})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestSessionTokenRoundTrip(t *testing.T) {
	m := testManager(t, "test-secret-0123456789")

	token, err := m.CreateSessionToken("s-1", "u-1", "alice@example.com", time.Now())
	if err != nil {
		t.Fatalf("CreateSessionToken failed: %v", err)
	}

	claims, err := m.ParseSessionToken(token)
	if err != nil {
		t.Fatalf("ParseSessionToken failed: %v", err)
	}
	if claims.SID != "s-1" || claims.UID != "u-1" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	a := testManager(t, "test-secret-0123456789")
	b := testManager(t, "different-secret-98765")

	token, err := a.CreateSessionToken("s-1", "u-1", "", time.Now())
	if err != nil {
		t.Fatalf("CreateSessionToken failed: %v", err)
	}

	if _, err := b.ParseSessionToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := testManager(t, "test-secret-0123456789")

	token, err := m.CreateSessionToken("s-1", "u-1", "", time.Now().Add(-48*time.Hour))
	if err != nil {
		t.Fatalf("CreateSessionToken failed: %v", err)
	}

	if _, err := m.ParseSessionToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	m := testManager(t, "test-secret-0123456789")

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.ParseSessionToken(tok); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("token %q: expected ErrTokenInvalid, got %v", tok, err)
		}
	}
}

func TestCreateRequiresIdentifiers(t *testing.T) {
	m := testManager(t, "test-secret-0123456789")

	if _, err := m.CreateSessionToken("", "u-1", "", time.Now()); err == nil {
		t.Fatal("expected error for missing session id")
	}
	if _, err := m.CreateSessionToken("s-1", "", "", time.Now()); err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{Secret: []byte("short"), TTL: time.Hour}); err == nil {
		t.Fatal("expected error for short secret")
	}
	if _, err := NewManager(Config{Secret: []byte("test-secret-0123456789")}); err == nil {
		t.Fatal("expected error for zero TTL")
	}
}
