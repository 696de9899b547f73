package parley

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCreateUserAndAuthenticate(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	profile, err := engine.CreateUser(ctx, "Alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if profile.ID == "" {
		t.Fatal("expected generated user id")
	}
	if profile.CreatedAt.IsZero() || profile.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	got, err := engine.Authenticate(ctx, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != profile.ID {
		t.Fatalf("expected user %s, got %s", profile.ID, got.ID)
	}

	if _, err := engine.Authenticate(ctx, "alice@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := engine.Authenticate(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateUserValidationOrder(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	// All three fields invalid: the name rule must win.
	_, err := engine.CreateUser(ctx, "A", "not-an-email", "abc")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "name") {
		t.Fatalf("expected the name rule to be reported first, got %q", err)
	}

	// Valid name, invalid email and password: the email rule wins.
	_, err = engine.CreateUser(ctx, "Alice", "not-an-email", "abc")
	if !errors.Is(err, ErrValidation) || !strings.Contains(err.Error(), "email") {
		t.Fatalf("expected the email rule, got %v", err)
	}

	_, err = engine.CreateUser(ctx, "Alice", "alice@example.com", "abc")
	if !errors.Is(err, ErrValidation) || !strings.Contains(err.Error(), "password") {
		t.Fatalf("expected the password rule, got %v", err)
	}
}

func TestCreateUserDuplicateEmailCaseInsensitive(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	if _, err := engine.CreateUser(ctx, "Alice", "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	_, err := engine.CreateUser(ctx, "Other Alice", "ALICE@Example.COM", "hunter23")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if got := engine.MetricsSnapshot().Counters[MetricUserDuplicateEmail]; got != 1 {
		t.Fatalf("expected 1 duplicate email metric, got %d", got)
	}
}

func TestUpdateUserRefreshesCurrentPointer(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	profile, err := engine.CreateUser(ctx, "Alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := engine.SetCurrentUser(ctx, profile.ID); err != nil {
		t.Fatalf("SetCurrentUser failed: %v", err)
	}

	updated, err := engine.UpdateUser(ctx, profile.ID, "Alice B")
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if updated.Name != "Alice B" {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}

	cur, err := engine.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if cur == nil || cur.Name != "Alice B" {
		t.Fatalf("expected current pointer to follow the rename, got %+v", cur)
	}
}

func TestUpdateUserUnknownID(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())

	_, err := engine.UpdateUser(context.Background(), "missing-id", "New Name")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCurrentUserCorruptPointerCleared(t *testing.T) {
	engine, mr := newTestEngine(t, testConfig())
	ctx := context.Background()

	if err := mr.Set("pl:current", "{not json"); err != nil {
		t.Fatalf("seed corrupt pointer: %v", err)
	}

	cur, err := engine.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if cur != nil {
		t.Fatalf("expected corrupt pointer to read as absent, got %+v", cur)
	}
	if mr.Exists("pl:current") {
		t.Fatal("expected corrupt pointer to be deleted")
	}
}

func TestClearCurrentUser(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	profile, err := engine.CreateUser(ctx, "Alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := engine.SetCurrentUser(ctx, profile.ID); err != nil {
		t.Fatalf("SetCurrentUser failed: %v", err)
	}
	if err := engine.ClearCurrentUser(ctx); err != nil {
		t.Fatalf("ClearCurrentUser failed: %v", err)
	}

	cur, err := engine.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if cur != nil {
		t.Fatalf("expected no current user, got %+v", cur)
	}
}

func TestSignupSignsInAndArmsSession(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	auth, err := engine.Signup(ctx, "Alice", "alice@example.com", "hunter22", "test")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if auth.Token == "" {
		t.Fatal("expected signed session token")
	}
	if auth.Session.UserID != auth.Profile.ID {
		t.Fatal("expected session bound to the new profile")
	}

	valid, err := engine.IsSessionValid(ctx)
	if err != nil {
		t.Fatalf("IsSessionValid failed: %v", err)
	}
	if !valid {
		t.Fatal("expected a valid session after signup")
	}

	cur, err := engine.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if cur == nil || cur.ID != auth.Profile.ID {
		t.Fatal("expected current pointer set by signup")
	}
}
