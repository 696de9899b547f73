package parley

import (
	"errors"
	"net/http"
	"time"
)

// Config defines a public type used by parley APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session      SessionConfig
	Password     PasswordConfig
	Token        TokenConfig
	Conversation ConversationConfig
	Translation  TranslationConfig
	Events       EventsConfig
	Metrics      MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by parley APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix string

	// Duration is the absolute session lifetime; expiry is always the last
	// extension point plus Duration.
	Duration time.Duration

	// WarningWindow is the trailing period before expiry during which the
	// warning event fires.
	WarningWindow time.Duration

	// ActivityThreshold debounces activity signals: signals closer together
	// than this are coalesced into a single recorded activity.
	ActivityThreshold time.Duration

	// SnapshotTTL is the freshness window for work-in-progress restore.
	// Older snapshots are treated as absent but are not deleted.
	SnapshotTTL time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by parley APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// MinLength applies at profile validation, before hashing.
	MinLength int
}

// TokenConfig defines a public type used by parley APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

/*
====================================
PROVIDER CLIENT CONFIG
====================================
*/

// ConversationConfig defines a public type used by parley APIs.
//
// ConversationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ConversationConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     uint64
	RetryBaseDelay time.Duration

	// HourlyQuota caps outbound create calls per rolling hour; the counter
	// resets when the hour window elapses.
	HourlyQuota int

	// MinutesQuota is the default conversation-minutes balance seeded when no
	// counter exists yet.
	MinutesQuota int

	PollInterval     time.Duration
	PollErrorBackoff time.Duration
}

// TranslationConfig defines a public type used by parley APIs.
//
// TranslationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TranslationConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     uint64
	RetryBaseDelay time.Duration
	HourlyQuota    int
}

// EventsConfig defines a public type used by parley APIs.
//
// EventsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EventsConfig struct {
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by parley APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: 24h sessions with a 5m
// warning window, 30s activity debounce, 24h snapshot freshness, and the
// stock provider quotas. Callers overlay credentials before building.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix:       "pl",
			Duration:          24 * time.Hour,
			WarningWindow:     5 * time.Minute,
			ActivityThreshold: 30 * time.Second,
			SnapshotTTL:       24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   6,
		},
		Token: TokenConfig{
			TTL: 24 * time.Hour,
		},
		Conversation: ConversationConfig{
			RequestTimeout:   30 * time.Second,
			MaxRetries:       3,
			RetryBaseDelay:   time.Second,
			HourlyQuota:      10,
			MinutesQuota:     25,
			PollInterval:     5 * time.Second,
			PollErrorBackoff: 10 * time.Second,
		},
		Translation: TranslationConfig{
			RequestTimeout: 10 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: time.Second,
			HourlyQuota:    30,
		},
		Events: EventsConfig{
			BufferSize: 16,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.Session.Duration <= 0 {
		return errors.New("session duration must be positive")
	}
	if c.Session.WarningWindow <= 0 || c.Session.WarningWindow >= c.Session.Duration {
		return errors.New("warning window must be positive and shorter than the session duration")
	}
	if c.Session.ActivityThreshold <= 0 {
		return errors.New("activity threshold must be positive")
	}
	if c.Session.SnapshotTTL <= 0 {
		return errors.New("snapshot TTL must be positive")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("redis prefix must not be empty")
	}
	if c.Password.MinLength < 6 {
		return errors.New("password minimum length must be >= 6")
	}
	if len(c.Token.Secret) < 16 {
		return errors.New("token secret must be at least 16 bytes")
	}
	if c.Token.TTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	if c.Conversation.RequestTimeout <= 0 || c.Translation.RequestTimeout <= 0 {
		return errors.New("provider request timeouts must be positive")
	}
	if c.Conversation.HourlyQuota <= 0 || c.Translation.HourlyQuota <= 0 {
		return errors.New("hourly quotas must be positive")
	}
	return nil
}

// defaultHTTPClient is shared by both provider clients unless the builder
// supplies one. Per-request deadlines come from contexts, not this client.
func defaultHTTPClient() *http.Client {
	return &http.Client{}
}
