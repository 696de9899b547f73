package parley

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corvid-labs/parley/session"
)

func mustSignup(t *testing.T, engine *Engine) *AuthSession {
	t.Helper()

	auth, err := engine.Signup(context.Background(), "Alice", "alice@example.com", "hunter22", "test")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	return auth
}

func TestCreateSessionValidity(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	clock := installClock(engine, time.Now())

	auth := mustSignup(t, engine)
	if got, want := auth.Session.ExpiresAt, clock.Now().Add(24*time.Hour); !got.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, got)
	}

	valid, err := engine.IsSessionValid(ctx)
	if err != nil || !valid {
		t.Fatalf("expected valid session, got valid=%v err=%v", valid, err)
	}

	// One nanosecond before expiry the session is still valid.
	clock.Advance(24*time.Hour - time.Nanosecond)
	valid, err = engine.IsSessionValid(ctx)
	if err != nil || !valid {
		t.Fatalf("expected valid session just before expiry, got valid=%v err=%v", valid, err)
	}

	// At the boundary it is not.
	clock.Advance(time.Nanosecond)
	valid, err = engine.IsSessionValid(ctx)
	if err != nil {
		t.Fatalf("IsSessionValid failed: %v", err)
	}
	if valid {
		t.Fatal("expected session invalid at the expiry instant")
	}
}

func TestValidateToken(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())

	auth := mustSignup(t, engine)

	claims, err := engine.ValidateToken(auth.Token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.SID != auth.Session.SessionID || claims.UID != auth.Profile.ID {
		t.Fatal("expected claims to name the active session and user")
	}

	if _, err := engine.ValidateToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	if err := engine.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := engine.ValidateToken(auth.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after logout, got %v", err)
	}
}

func TestRecordActivityDebounce(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	clock := installClock(engine, time.Now())

	mustSignup(t, engine)

	stored, err := engine.sessionStore.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	initialActivity := stored.LastActivityAt

	// Signals inside the threshold are coalesced and never written.
	clock.Advance(10 * time.Second)
	if err := engine.RecordActivity(ctx); err != nil {
		t.Fatalf("RecordActivity failed: %v", err)
	}
	clock.Advance(10 * time.Second)
	if err := engine.RecordActivity(ctx); err != nil {
		t.Fatalf("RecordActivity failed: %v", err)
	}

	stored, err = engine.sessionStore.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !stored.LastActivityAt.Equal(initialActivity) {
		t.Fatal("expected coalesced activity to leave the record untouched")
	}
	if got := engine.MetricsSnapshot().Counters[MetricActivityCoalesced]; got != 2 {
		t.Fatalf("expected 2 coalesced signals, got %d", got)
	}

	// Crossing the threshold records the activity but, with plenty of
	// lifetime left, does not slide the expiry.
	clock.Advance(15 * time.Second)
	if err := engine.RecordActivity(ctx); err != nil {
		t.Fatalf("RecordActivity failed: %v", err)
	}

	stored, err = engine.sessionStore.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !stored.LastActivityAt.Equal(clock.Now()) {
		t.Fatal("expected recorded activity timestamp")
	}
	if !stored.ExpiresAt.Equal(initialActivity.Add(24 * time.Hour)) {
		t.Fatal("expected expiry unchanged while more than half the lifetime remains")
	}
}

func TestRecordActivitySlidesWhenPastHalfway(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	clock := installClock(engine, time.Now())

	mustSignup(t, engine)

	clock.Advance(13 * time.Hour)
	if err := engine.RecordActivity(ctx); err != nil {
		t.Fatalf("RecordActivity failed: %v", err)
	}

	stored, err := engine.sessionStore.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !stored.ExpiresAt.Equal(clock.Now().Add(24 * time.Hour)) {
		t.Fatalf("expected expiry slid to now+24h, got %v", stored.ExpiresAt)
	}
	if got := engine.MetricsSnapshot().Counters[MetricSessionExtended]; got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
}

func TestRecordActivityOnExpiredSession(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	clock := installClock(engine, time.Now())

	mustSignup(t, engine)
	clock.Advance(25 * time.Hour)

	if err := engine.RecordActivity(ctx); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if err := engine.RecordActivity(ctx); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after teardown, got %v", err)
	}
}

func TestExtendSessionResetsExpiryAndEmits(t *testing.T) {
	sink := NewChannelSink(8)
	engine, _ := newTestEngineWithSink(t, testConfig(), sink)
	ctx := context.Background()
	clock := installClock(engine, time.Now())

	auth := mustSignup(t, engine)

	clock.Advance(2 * time.Hour)
	info, err := engine.ExtendSession(ctx)
	if err != nil {
		t.Fatalf("ExtendSession failed: %v", err)
	}
	if !info.ExpiresAt.Equal(clock.Now().Add(24 * time.Hour)) {
		t.Fatalf("expected expiry reset to now+24h, got %v", info.ExpiresAt)
	}

	ev := waitEvent(t, sink.C, EventExtended, 2*time.Second)
	if ev.SessionID != auth.Session.SessionID {
		t.Fatal("expected extended event for the active session")
	}
	if ev.Remaining != 24*time.Hour {
		t.Fatalf("expected full duration remaining, got %v", ev.Remaining)
	}
}

func TestWarningThenExpiryTimers(t *testing.T) {
	cfg := testConfig()
	cfg.Session.Duration = 200 * time.Millisecond
	cfg.Session.WarningWindow = 120 * time.Millisecond
	cfg.Session.ActivityThreshold = 10 * time.Millisecond

	sink := NewChannelSink(8)
	engine, _ := newTestEngineWithSink(t, cfg, sink)

	auth := mustSignup(t, engine)

	warning := waitEvent(t, sink.C, EventWarning, 2*time.Second)
	if warning.SessionID != auth.Session.SessionID {
		t.Fatal("expected warning for the active session")
	}
	if warning.Remaining > cfg.Session.WarningWindow {
		t.Fatalf("expected remaining within the warning window, got %v", warning.Remaining)
	}

	waitEvent(t, sink.C, EventExpired, 2*time.Second)

	valid, err := engine.IsSessionValid(context.Background())
	if err != nil {
		t.Fatalf("IsSessionValid failed: %v", err)
	}
	if valid {
		t.Fatal("expected session gone after expiry")
	}

	snap := engine.MetricsSnapshot().Counters
	if snap[MetricSessionWarning] != 1 || snap[MetricSessionExpired] != 1 {
		t.Fatalf("expected one warning and one expiry, got %d/%d",
			snap[MetricSessionWarning], snap[MetricSessionExpired])
	}
}

func TestExtendDuringWarningClearsIt(t *testing.T) {
	cfg := testConfig()
	cfg.Session.Duration = 300 * time.Millisecond
	cfg.Session.WarningWindow = 250 * time.Millisecond

	sink := NewChannelSink(8)
	engine, _ := newTestEngineWithSink(t, cfg, sink)
	ctx := context.Background()

	mustSignup(t, engine)
	waitEvent(t, sink.C, EventWarning, 2*time.Second)

	info, err := engine.ExtendSession(ctx)
	if err != nil {
		t.Fatalf("ExtendSession failed: %v", err)
	}
	if info.InWarning {
		t.Fatal("expected warning state cleared by extension")
	}

	// The extension re-arms both timers, so the warning fires again for the
	// new expiry rather than being a one-shot per session.
	waitEvent(t, sink.C, EventWarning, 2*time.Second)
	waitEvent(t, sink.C, EventExpired, 2*time.Second)

	if got := engine.MetricsSnapshot().Counters[MetricSessionExpired]; got != 1 {
		t.Fatalf("expected exactly one expiry, got %d", got)
	}
}

func TestForceExpireBacksUpWorkInProgress(t *testing.T) {
	sink := NewChannelSink(8)
	engine, _ := newTestEngineWithSink(t, testConfig(), sink)
	ctx := context.Background()

	mustSignup(t, engine)

	if err := engine.BackupWorkInProgress(ctx, session.Snapshot{
		Topic:    "volcanoes",
		Language: "es",
		Step:     2,
	}); err != nil {
		t.Fatalf("BackupWorkInProgress failed: %v", err)
	}

	if err := engine.ForceExpire(ctx); err != nil {
		t.Fatalf("ForceExpire failed: %v", err)
	}
	waitEvent(t, sink.C, EventExpired, 2*time.Second)

	if err := engine.ForceExpire(ctx); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second ForceExpire, got %v", err)
	}

	snap, err := engine.RestoreWorkInProgress(ctx)
	if err != nil {
		t.Fatalf("RestoreWorkInProgress failed: %v", err)
	}
	if snap == nil || snap.Topic != "volcanoes" || snap.Step != 2 {
		t.Fatalf("expected preserved snapshot, got %+v", snap)
	}
}

func TestLogoutEmitsLoggedOutOnly(t *testing.T) {
	sink := NewChannelSink(8)
	engine, _ := newTestEngineWithSink(t, testConfig(), sink)
	ctx := context.Background()

	auth := mustSignup(t, engine)

	if err := engine.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	ev := waitEvent(t, sink.C, EventLoggedOut, 2*time.Second)
	if ev.SessionID != auth.Session.SessionID {
		t.Fatal("expected logged-out event for the active session")
	}

	select {
	case extra := <-sink.C:
		t.Fatalf("expected no further events, got %s", extra.Kind)
	case <-time.After(100 * time.Millisecond):
	}

	cur, err := engine.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if cur != nil {
		t.Fatal("expected current pointer cleared by logout")
	}

	if err := engine.Logout(ctx); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestResumeSessionAfterRestart(t *testing.T) {
	_, rdb := newTestRedis(t)

	first, err := New().WithConfig(testConfig()).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	auth, err := first.Signup(context.Background(), "Alice", "alice@example.com", "hunter22", "test")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	first.Close()

	second, err := New().WithConfig(testConfig()).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(second.Close)

	info, err := second.ResumeSession(context.Background())
	if err != nil {
		t.Fatalf("ResumeSession failed: %v", err)
	}
	if info == nil || info.SessionID != auth.Session.SessionID {
		t.Fatalf("expected resumed session %s, got %+v", auth.Session.SessionID, info)
	}
}

func TestSnapshotFreshnessFilter(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	clock := installClock(engine, time.Now())

	mustSignup(t, engine)

	if err := engine.BackupWorkInProgress(ctx, session.Snapshot{Topic: "old topic"}); err != nil {
		t.Fatalf("BackupWorkInProgress failed: %v", err)
	}

	clock.Advance(25 * time.Hour)
	snap, err := engine.RestoreWorkInProgress(ctx)
	if err != nil {
		t.Fatalf("RestoreWorkInProgress failed: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected stale snapshot filtered out, got %+v", snap)
	}

	// Staleness is a read filter, not a delete: a fresh write replaces the
	// record and restores normally.
	if err := engine.BackupWorkInProgress(ctx, session.Snapshot{Topic: "new topic"}); err != nil {
		t.Fatalf("BackupWorkInProgress failed: %v", err)
	}
	snap, err = engine.RestoreWorkInProgress(ctx)
	if err != nil {
		t.Fatalf("RestoreWorkInProgress failed: %v", err)
	}
	if snap == nil || snap.Topic != "new topic" {
		t.Fatalf("expected fresh snapshot, got %+v", snap)
	}
}

func TestCloseIdempotent(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig())

	mustSignup(t, engine)
	engine.Close()
	engine.Close()
}
