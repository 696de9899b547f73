package parley

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/corvid-labs/parley/internal/stores"
)

// AuthSession is the result of a signup or login composite: the credential-free
// profile, the freshly armed session, and its signed token.
type AuthSession struct {
	Profile UserProfile
	Session SessionInfo
	Token   string
}

func profileFromRecord(rec *stores.UserRecord) *UserProfile {
	return &UserProfile{
		ID:        rec.ID,
		Email:     rec.Email,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, stores.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

// validateName, validateEmail, and validatePassword apply the registration
// rules in declaration order; the first violated rule wins.
func validateName(name string) error {
	if len(strings.TrimSpace(name)) < 2 {
		return fmt.Errorf("%w: name must be at least 2 characters", ErrValidation)
	}
	return nil
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return fmt.Errorf("%w: email address is malformed", ErrValidation)
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.ContainsAny(email, " \t") {
		return fmt.Errorf("%w: email address is malformed", ErrValidation)
	}
	return nil
}

func (e *Engine) validatePassword(pass string) error {
	if len(pass) < e.config.Password.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, e.config.Password.MinLength)
	}
	return nil
}

// CreateUser registers a new profile. Validation runs name, then email, then
// password, and reports only the first violation. Email uniqueness is
// case-insensitive; a duplicate returns [ErrDuplicateEmail].
func (e *Engine) CreateUser(ctx context.Context, name, email, pass string) (*UserProfile, error) {
	if e == nil || e.profiles == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := e.validatePassword(pass); err != nil {
		return nil, err
	}

	hash, err := e.passwordHash.Hash(pass)
	if err != nil {
		return nil, err
	}
	pass = ""

	now := e.now()
	rec := stores.UserRecord{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := e.profiles.Insert(ctx, rec); err != nil {
		if errors.Is(err, stores.ErrDuplicateEmail) {
			e.metricInc(MetricUserDuplicateEmail)
			return nil, ErrDuplicateEmail
		}
		return nil, mapStoreErr(err)
	}

	e.metricInc(MetricUserCreated)
	e.logger.Info().Str("user_id", rec.ID).Msg("user created")

	return profileFromRecord(&rec), nil
}

// Authenticate verifies an email/password pair against the stored records.
// An unknown email returns [ErrUserNotFound]; a password mismatch returns
// [ErrInvalidCredentials].
func (e *Engine) Authenticate(ctx context.Context, email, pass string) (*UserProfile, error) {
	if e == nil || e.profiles == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	rec, err := e.profiles.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if rec == nil {
		e.metricInc(MetricLoginFailure)
		return nil, ErrUserNotFound
	}

	ok, err := e.passwordHash.Verify(pass, rec.PasswordHash)
	pass = ""
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	e.metricInc(MetricLoginSuccess)
	return profileFromRecord(rec), nil
}

// UpdateUser changes a profile's display name. When the updated record is the
// current user, the pointer is refreshed to match.
func (e *Engine) UpdateUser(ctx context.Context, id, name string) (*UserProfile, error) {
	if e == nil || e.profiles == nil {
		return nil, ErrEngineNotReady
	}

	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	rec, err := e.profiles.UpdateName(ctx, id, name, e.now())
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapStoreErr(err)
	}

	cur, err := e.profiles.Current(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if cur != nil && cur.ID == rec.ID {
		if err := e.setCurrentRecord(ctx, rec); err != nil {
			return nil, err
		}
	}

	return profileFromRecord(rec), nil
}

func (e *Engine) setCurrentRecord(ctx context.Context, rec *stores.UserRecord) error {
	return mapStoreErr(e.profiles.SetCurrent(ctx, stores.Pointer{
		ID:        rec.ID,
		Email:     rec.Email,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}))
}

// SetCurrentUser marks the given profile as the signed-in user.
func (e *Engine) SetCurrentUser(ctx context.Context, id string) (*UserProfile, error) {
	if e == nil || e.profiles == nil {
		return nil, ErrEngineNotReady
	}

	rec, err := e.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if rec == nil {
		return nil, ErrUserNotFound
	}

	if err := e.setCurrentRecord(ctx, rec); err != nil {
		return nil, err
	}
	return profileFromRecord(rec), nil
}

// CurrentUser returns the signed-in profile, or nil when nobody is signed in.
func (e *Engine) CurrentUser(ctx context.Context) (*UserProfile, error) {
	if e == nil || e.profiles == nil {
		return nil, ErrEngineNotReady
	}

	ptr, err := e.profiles.Current(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if ptr == nil {
		return nil, nil
	}
	return &UserProfile{
		ID:        ptr.ID,
		Email:     ptr.Email,
		Name:      ptr.Name,
		CreatedAt: ptr.CreatedAt,
		UpdatedAt: ptr.UpdatedAt,
	}, nil
}

// ClearCurrentUser removes the signed-in pointer without touching the session.
func (e *Engine) ClearCurrentUser(ctx context.Context) error {
	if e == nil || e.profiles == nil {
		return ErrEngineNotReady
	}
	return mapStoreErr(e.profiles.ClearCurrent(ctx))
}

// Signup registers a profile and immediately signs it in: the current-user
// pointer is set and a session is created and armed.
func (e *Engine) Signup(ctx context.Context, name, email, pass, device string) (*AuthSession, error) {
	profile, err := e.CreateUser(ctx, name, email, pass)
	if err != nil {
		return nil, err
	}
	return e.startAuthSession(ctx, profile, device)
}

// Login authenticates a profile and signs it in: the current-user pointer is
// set and a session is created and armed.
func (e *Engine) Login(ctx context.Context, email, pass, device string) (*AuthSession, error) {
	profile, err := e.Authenticate(ctx, email, pass)
	if err != nil {
		return nil, err
	}
	return e.startAuthSession(ctx, profile, device)
}

func (e *Engine) startAuthSession(ctx context.Context, profile *UserProfile, device string) (*AuthSession, error) {
	if _, err := e.SetCurrentUser(ctx, profile.ID); err != nil {
		return nil, err
	}

	info, token, err := e.CreateSession(ctx, profile, device)
	if err != nil {
		return nil, err
	}

	return &AuthSession{
		Profile: *profile,
		Session: *info,
		Token:   token,
	}, nil
}
