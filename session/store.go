package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable is an exported constant or variable used by the session engine.
var ErrStoreUnavailable = errors.New("session storage unavailable")

// Store is a Redis-backed store for the single session slot and the
// work-in-progress snapshot slot. A corrupt payload in either slot is
// cleared on read and treated as absent.
//
// Cross-tab / cross-process writers are not coordinated: last writer wins.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redis,
		prefix: prefix,
	}
}

func (s *Store) sessionKey() string {
	return s.prefix + ":session"
}

func (s *Store) snapshotKey() string {
	return s.prefix + ":wip"
}

// Save persists the session into the slot with a TTL matching its expiry, so
// an abandoned record ages out of storage even if the expiry timer never
// fires in this process.
func (s *Store) Save(ctx context.Context, sess *Session, now time.Time) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ttl := sess.ExpiresAt.Sub(now)
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := s.redis.Set(ctx, s.sessionKey(), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Load returns the stored session, or nil when the slot is empty. A payload
// that fails to decode is deleted and reported as absent.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	data, err := s.redis.Get(ctx, s.sessionKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		_ = s.redis.Del(ctx, s.sessionKey()).Err()
		return nil, nil
	}
	return &sess, nil
}

// Delete clears the session slot. Deleting an empty slot is not an error.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.sessionKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// SaveSnapshot overwrites the single work-in-progress backup slot. The
// snapshot carries its own capture time; freshness is enforced on read, not
// with a storage TTL, so an expired backup stays inspectable.
func (s *Store) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.snapshotKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot only when it was captured within
// maxAge of now. A stale snapshot is reported as absent but NOT deleted; the
// absence is a time filter, and the record remains until overwritten or
// explicitly cleared. Corrupt payloads are cleared and reported as absent.
func (s *Store) LoadSnapshot(ctx context.Context, maxAge time.Duration, now time.Time) (*Snapshot, error) {
	data, err := s.redis.Get(ctx, s.snapshotKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		_ = s.redis.Del(ctx, s.snapshotKey()).Err()
		return nil, nil
	}

	if now.Sub(snap.CapturedAt) >= maxAge {
		return nil, nil
	}
	return &snap, nil
}

// ClearSnapshot deletes the backup slot. Used after a restored snapshot has
// been consumed or when the user discards it.
func (s *Store) ClearSnapshot(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.snapshotKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time storage availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
