package parley

import (
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corvid-labs/parley/convo"
	"github.com/corvid-labs/parley/internal/rate"
	"github.com/corvid-labs/parley/internal/stores"
	"github.com/corvid-labs/parley/jwt"
	"github.com/corvid-labs/parley/password"
	"github.com/corvid-labs/parley/session"
	"github.com/corvid-labs/parley/translate"
)

// Builder defines a public type used by parley APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	eventSink  EventSink
	logger     zerolog.Logger
	loggerSet  bool
	httpClient *http.Client

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithEventSink describes the witheventsink operation and its observable behavior.
//
// WithEventSink may return an error when input validation, dependency calls, or security checks fail.
// WithEventSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.loggerSet = true
	return b
}

// WithHTTPClient describes the withhttpclient operation and its observable behavior.
//
// WithHTTPClient may return an error when input validation, dependency calls, or security checks fail.
// WithHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if !b.loggerSet {
		logger = zerolog.Nop()
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		logger:       logger,
		sessionStore: session.NewStore(b.redis, cfg.Session.RedisPrefix),
		profiles:     stores.NewProfileStore(b.redis, cfg.Session.RedisPrefix),
		limiter:      rate.New(b.redis, cfg.Session.RedisPrefix),
		now:          time.Now,
	}

	engine.convoClient = convo.NewClient(convo.Config{
		BaseURL:        cfg.Conversation.BaseURL,
		APIKey:         cfg.Conversation.APIKey,
		RequestTimeout: cfg.Conversation.RequestTimeout,
		MaxRetries:     cfg.Conversation.MaxRetries,
		RetryBaseDelay: cfg.Conversation.RetryBaseDelay,
		HTTPClient:     httpClient,
		Logger:         logger,
	})
	engine.translateClient = translate.NewClient(translate.Config{
		BaseURL:        cfg.Translation.BaseURL,
		APIKey:         cfg.Translation.APIKey,
		RequestTimeout: cfg.Translation.RequestTimeout,
		MaxRetries:     cfg.Translation.MaxRetries,
		RetryBaseDelay: cfg.Translation.RetryBaseDelay,
		HTTPClient:     httpClient,
		Logger:         logger,
	})
	engine.events = newEventDispatcher(cfg.Events, b.eventSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		engine.events.Close()
		return nil, err
	}
	engine.passwordHash = ph

	tm, err := jwt.NewManager(jwt.Config{
		Secret: cloneBytes(cfg.Token.Secret),
		TTL:    cfg.Token.TTL,
	})
	if err != nil {
		engine.events.Close()
		return nil, err
	}
	engine.tokens = tm

	b.built = true

	return engine, nil
}
