package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrDuplicateEmail is returned by Insert when a case-insensitive email match exists.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrNotFound is returned when no record matches the requested ID.
	ErrNotFound = errors.New("user record not found")
	// ErrStoreUnavailable wraps Redis transport failures.
	ErrStoreUnavailable = errors.New("profile storage unavailable")
)

// UserRecord is the persisted account record. The password hash never leaves
// this package's callers un-stripped; the engine derives credential-free
// profiles from it.
type UserRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Pointer is the current-user pointer: a credential-free copy of the record
// the host last signed in.
type Pointer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileStore persists the user table (a JSON array under one key) and the
// current-user pointer. Writes are last-writer-wins; concurrent writers are
// tolerated on a best-effort basis only.
type ProfileStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewProfileStore creates a [ProfileStore] backed by the given Redis client.
func NewProfileStore(redis redis.UniversalClient, prefix string) *ProfileStore {
	return &ProfileStore{
		redis:  redis,
		prefix: prefix,
	}
}

func (s *ProfileStore) usersKey() string {
	return s.prefix + ":users"
}

func (s *ProfileStore) currentKey() string {
	return s.prefix + ":current"
}

// All returns every stored user record. A corrupt table is cleared and
// reported as empty rather than surfaced as an error.
func (s *ProfileStore) All(ctx context.Context) ([]UserRecord, error) {
	data, err := s.redis.Get(ctx, s.usersKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var records []UserRecord
	if err := json.Unmarshal(data, &records); err != nil {
		_ = s.redis.Del(ctx, s.usersKey()).Err()
		return nil, nil
	}
	return records, nil
}

// FindByEmail returns the record with a case-insensitive email match, or nil.
func (s *ProfileStore) FindByEmail(ctx context.Context, email string) (*UserRecord, error) {
	records, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if strings.EqualFold(records[i].Email, email) {
			return &records[i], nil
		}
	}
	return nil, nil
}

// FindByID returns the record with the given ID, or nil.
func (s *ProfileStore) FindByID(ctx context.Context, id string) (*UserRecord, error) {
	records, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, nil
}

// Insert appends a record after re-checking email uniqueness against the
// current table contents. The duplicate check and the write are not atomic;
// a racing tab can still win, which the design accepts (last writer wins).
func (s *ProfileStore) Insert(ctx context.Context, rec UserRecord) error {
	records, err := s.All(ctx)
	if err != nil {
		return err
	}

	for i := range records {
		if strings.EqualFold(records[i].Email, rec.Email) {
			return ErrDuplicateEmail
		}
	}

	return s.saveAll(ctx, append(records, rec))
}

// UpdateName mutates a record's display name and UpdatedAt timestamp.
func (s *ProfileStore) UpdateName(ctx context.Context, id, name string, updatedAt time.Time) (*UserRecord, error) {
	records, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].ID == id {
			records[i].Name = name
			records[i].UpdatedAt = updatedAt
			if err := s.saveAll(ctx, records); err != nil {
				return nil, err
			}
			return &records[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *ProfileStore) saveAll(ctx context.Context, records []UserRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.usersKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// SetCurrent writes the current-user pointer. No validation is applied.
func (s *ProfileStore) SetCurrent(ctx context.Context, ptr Pointer) error {
	data, err := json.Marshal(ptr)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.currentKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Current returns the pointer, or nil when missing. Corrupt pointer data is
// cleared and reported as absent, never raised.
func (s *ProfileStore) Current(ctx context.Context) (*Pointer, error) {
	data, err := s.redis.Get(ctx, s.currentKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var ptr Pointer
	if err := json.Unmarshal(data, &ptr); err != nil {
		_ = s.redis.Del(ctx, s.currentKey()).Err()
		return nil, nil
	}
	return &ptr, nil
}

// ClearCurrent removes the pointer. Clearing an absent pointer is not an error.
func (s *ProfileStore) ClearCurrent(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.currentKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
