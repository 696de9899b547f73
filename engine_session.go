package parley

import (
	"context"
	"time"

	"github.com/corvid-labs/parley/internal"
	"github.com/corvid-labs/parley/jwt"
	"github.com/corvid-labs/parley/session"
)

// SessionInfo is the read-only view of the active session handed to callers.
type SessionInfo struct {
	SessionID      string
	UserID         string
	Email          string
	Name           string
	Device         string
	LoginAt        time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	Remaining      time.Duration
	InWarning      bool
}

func (e *Engine) infoLocked(now time.Time) *SessionInfo {
	s := e.current
	if s == nil {
		return nil
	}
	return &SessionInfo{
		SessionID:      s.SessionID,
		UserID:         s.UserID,
		Email:          s.Email,
		Name:           s.Name,
		Device:         s.Device,
		LoginAt:        s.LoginAt,
		LastActivityAt: s.LastActivityAt,
		ExpiresAt:      s.ExpiresAt,
		Remaining:      s.Remaining(now),
		InWarning:      e.warningShown,
	}
}

// CreateSession starts a session for the given profile, persists it, arms the
// warning and expiry timers, and returns a signed session token. An existing
// session is overwritten without an expiry event: the slot holds one session.
func (e *Engine) CreateSession(ctx context.Context, profile *UserProfile, device string) (*SessionInfo, string, error) {
	if e == nil || e.sessionStore == nil || e.tokens == nil {
		return nil, "", ErrEngineNotReady
	}
	if profile == nil || profile.ID == "" {
		return nil, "", ErrValidation
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, "", err
	}

	now := e.now()
	sess := &session.Session{
		SessionID:      sid.String(),
		UserID:         profile.ID,
		Email:          profile.Email,
		Name:           profile.Name,
		Device:         device,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(e.config.Session.Duration),
	}

	if err := e.sessionStore.Save(ctx, sess, now); err != nil {
		return nil, "", err
	}

	token, err := e.tokens.CreateSessionToken(sess.SessionID, sess.UserID, sess.Email, now)
	if err != nil {
		return nil, "", err
	}

	e.mu.Lock()
	e.current = sess
	e.lastActivity = now
	e.warningShown = false
	e.expired = false
	e.armTimersLocked(now)
	info := e.infoLocked(now)
	e.mu.Unlock()

	e.metricInc(MetricSessionCreated)
	e.logger.Info().
		Str("session_id", sess.SessionID).
		Str("user_id", sess.UserID).
		Time("expires_at", sess.ExpiresAt).
		Msg("session created")

	return info, token, nil
}

// ResumeSession loads the persisted session (after a restart) back into the
// engine and re-arms its timers. A stale record is deleted and reported as
// absent.
func (e *Engine) ResumeSession(ctx context.Context) (*SessionInfo, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	sess, err := e.sessionStore.Load(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	now := e.now()
	if !sess.ExpiresAt.After(now) {
		_ = e.sessionStore.Delete(ctx)
		return nil, nil
	}

	e.mu.Lock()
	e.current = sess
	e.lastActivity = sess.LastActivityAt
	e.warningShown = false
	e.expired = false
	e.armTimersLocked(now)
	info := e.infoLocked(now)
	e.mu.Unlock()

	return info, nil
}

// CurrentSession returns the active session view, or nil when none is armed.
func (e *Engine) CurrentSession() *SessionInfo {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.infoLocked(e.now())
}

// IsSessionValid reports whether a live, unexpired session exists. A session
// found past its expiry is cleared as a side effect.
func (e *Engine) IsSessionValid(ctx context.Context) (bool, error) {
	if e == nil || e.sessionStore == nil {
		return false, ErrEngineNotReady
	}

	e.mu.Lock()
	cur := e.current
	e.mu.Unlock()

	if cur != nil {
		if cur.ExpiresAt.After(e.now()) {
			return true, nil
		}
		e.expire(ctx)
		return false, nil
	}

	sess, err := e.sessionStore.Load(ctx)
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, nil
	}
	if !sess.ExpiresAt.After(e.now()) {
		_ = e.sessionStore.Delete(ctx)
		return false, nil
	}
	return true, nil
}

// ValidateToken parses a signed session token and confirms it names the
// currently active session.
func (e *Engine) ValidateToken(token string) (*jwt.SessionClaims, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseSessionToken(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	e.mu.Lock()
	cur := e.current
	e.mu.Unlock()

	if cur == nil || cur.SessionID != claims.SID {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// RecordActivity registers user activity. Signals closer together than the
// configured threshold are coalesced and cause no write. A recorded signal
// updates the activity timestamp and, only when less than half the session
// duration remains, slides the expiry forward to now plus the full duration.
// Either way the session is persisted with exactly one write.
func (e *Engine) RecordActivity(ctx context.Context) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return ErrSessionNotFound
	}

	now := e.now()
	if !e.current.ExpiresAt.After(now) {
		e.mu.Unlock()
		e.expire(ctx)
		return ErrSessionExpired
	}

	if now.Sub(e.lastActivity) < e.config.Session.ActivityThreshold {
		e.mu.Unlock()
		e.metricInc(MetricActivityCoalesced)
		return nil
	}

	e.lastActivity = now
	e.current.LastActivityAt = now

	extended := false
	if e.current.Remaining(now) < e.config.Session.Duration/2 {
		e.current.ExpiresAt = now.Add(e.config.Session.Duration)
		e.warningShown = false
		e.armTimersLocked(now)
		extended = true
	}

	sess := *e.current
	e.mu.Unlock()

	if err := e.sessionStore.Save(ctx, &sess, now); err != nil {
		return err
	}
	if extended {
		e.metricInc(MetricSessionExtended)
	}
	return nil
}

// ExtendSession unconditionally resets the expiry to now plus the full
// session duration, clears any warning state, and emits an extended event.
func (e *Engine) ExtendSession(ctx context.Context) (*SessionInfo, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	now := e.now()
	if !e.current.ExpiresAt.After(now) {
		e.mu.Unlock()
		e.expire(ctx)
		return nil, ErrSessionExpired
	}

	e.current.ExpiresAt = now.Add(e.config.Session.Duration)
	e.current.LastActivityAt = now
	e.lastActivity = now
	e.warningShown = false
	e.armTimersLocked(now)

	sess := *e.current
	info := e.infoLocked(now)
	e.mu.Unlock()

	if err := e.sessionStore.Save(ctx, &sess, now); err != nil {
		return nil, err
	}

	e.metricInc(MetricSessionExtended)
	e.emitEvent(ctx, Event{
		Kind:      EventExtended,
		SessionID: sess.SessionID,
		UserID:    sess.UserID,
		Remaining: e.config.Session.Duration,
		At:        now,
	})
	return info, nil
}

// ForceExpire ends the session immediately, backing up any pending
// work-in-progress first. The expired event fires exactly once.
func (e *Engine) ForceExpire(ctx context.Context) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	hasSession := e.current != nil
	e.mu.Unlock()

	if !hasSession {
		return ErrSessionNotFound
	}
	e.expire(ctx)
	return nil
}

// Logout ends the session deliberately: the slot and current-user pointer are
// cleared, no work-in-progress backup is taken, and only a logged-out event
// fires.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return ErrSessionNotFound
	}
	sess := *e.current
	e.current = nil
	e.expired = false
	e.warningShown = false
	e.pendingSnapshot = nil
	e.stopTimersLocked()
	e.mu.Unlock()

	if err := e.sessionStore.Delete(ctx); err != nil {
		return err
	}
	if e.profiles != nil {
		_ = e.profiles.ClearCurrent(ctx)
	}

	e.metricInc(MetricLogout)
	e.emitEvent(ctx, Event{
		Kind:      EventLoggedOut,
		SessionID: sess.SessionID,
		UserID:    sess.UserID,
		At:        e.now(),
	})
	e.logger.Info().Str("session_id", sess.SessionID).Msg("logged out")
	return nil
}

// BackupWorkInProgress stamps the snapshot with the engine clock and writes it
// to the single backup slot. The engine also caches it so a forced expiry can
// re-save the latest state without a caller round trip.
func (e *Engine) BackupWorkInProgress(ctx context.Context, snap session.Snapshot) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}

	snap.CapturedAt = e.now()

	e.mu.Lock()
	e.pendingSnapshot = &snap
	e.mu.Unlock()

	if snap.Empty() {
		return nil
	}
	if err := e.sessionStore.SaveSnapshot(ctx, &snap); err != nil {
		return err
	}
	e.metricInc(MetricSnapshotSaved)
	return nil
}

// RestoreWorkInProgress returns the backed-up snapshot when it is fresher
// than the configured TTL, or nil. Staleness does not delete the record.
func (e *Engine) RestoreWorkInProgress(ctx context.Context) (*session.Snapshot, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	snap, err := e.sessionStore.LoadSnapshot(ctx, e.config.Session.SnapshotTTL, e.now())
	if err != nil {
		return nil, err
	}
	if snap != nil {
		e.metricInc(MetricSnapshotRestored)
	}
	return snap, nil
}

// ClearWorkInProgress discards the backup slot and the cached snapshot.
func (e *Engine) ClearWorkInProgress(ctx context.Context) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	e.pendingSnapshot = nil
	e.mu.Unlock()

	return e.sessionStore.ClearSnapshot(ctx)
}

// armTimersLocked re-arms both lifecycle timers against the current expiry.
// Existing timers are always stopped first so each state has at most one
// pending callback per timer. Callers hold e.mu.
func (e *Engine) armTimersLocked(now time.Time) {
	e.stopTimersLocked()
	if e.current == nil || e.closed {
		return
	}

	remaining := e.current.Remaining(now)
	if remaining < 0 {
		remaining = 0
	}
	warningDelay := remaining - e.config.Session.WarningWindow
	if warningDelay < 0 {
		warningDelay = 0
	}

	sid := e.current.SessionID
	e.warningTimer = time.AfterFunc(warningDelay, func() { e.enterWarning(sid) })
	e.expiryTimer = time.AfterFunc(remaining, func() { e.onExpiryTimer(sid) })
}

// enterWarning fires once per armed expiry: re-arming (extension, activity
// slide) clears warningShown and replaces the timer.
func (e *Engine) enterWarning(sessionID string) {
	e.mu.Lock()
	if e.closed || e.current == nil || e.current.SessionID != sessionID || e.warningShown {
		e.mu.Unlock()
		return
	}
	e.warningShown = true
	now := e.now()
	remaining := e.current.Remaining(now)
	sess := *e.current
	e.mu.Unlock()

	e.metricInc(MetricSessionWarning)
	e.emitEvent(context.Background(), Event{
		Kind:      EventWarning,
		SessionID: sess.SessionID,
		UserID:    sess.UserID,
		Remaining: remaining,
		At:        now,
	})
	e.logger.Warn().
		Str("session_id", sess.SessionID).
		Dur("remaining", remaining).
		Msg("session expiring soon")
}

func (e *Engine) onExpiryTimer(sessionID string) {
	e.mu.Lock()
	stale := e.closed || e.current == nil || e.current.SessionID != sessionID
	e.mu.Unlock()
	if stale {
		return
	}
	e.expire(context.Background())
}

// expire tears the session down: pending work-in-progress is backed up, the
// slot is deleted, timers are stopped, and the expired event is emitted
// exactly once.
func (e *Engine) expire(ctx context.Context) {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return
	}
	sess := *e.current
	snap := e.pendingSnapshot
	e.current = nil
	e.pendingSnapshot = nil
	e.expired = true
	e.warningShown = false
	e.stopTimersLocked()
	e.mu.Unlock()

	if snap != nil && !snap.Empty() {
		snap.CapturedAt = e.now()
		if err := e.sessionStore.SaveSnapshot(ctx, snap); err != nil {
			e.logger.Error().Err(err).Msg("work-in-progress backup failed at expiry")
		} else {
			e.metricInc(MetricSnapshotSaved)
		}
	}

	if err := e.sessionStore.Delete(ctx); err != nil {
		e.logger.Error().Err(err).Msg("session delete failed at expiry")
	}

	e.metricInc(MetricSessionExpired)
	e.emitEvent(ctx, Event{
		Kind:      EventExpired,
		SessionID: sess.SessionID,
		UserID:    sess.UserID,
		At:        e.now(),
	})
	e.logger.Info().Str("session_id", sess.SessionID).Msg("session expired")
}
