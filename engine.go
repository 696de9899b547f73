package parley

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/corvid-labs/parley/convo"
	"github.com/corvid-labs/parley/internal/rate"
	"github.com/corvid-labs/parley/internal/stores"
	"github.com/corvid-labs/parley/jwt"
	"github.com/corvid-labs/parley/password"
	"github.com/corvid-labs/parley/session"
	"github.com/corvid-labs/parley/translate"
)

// Engine defines a public type used by parley APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config          Config
	logger          zerolog.Logger
	sessionStore    *session.Store
	profiles        *stores.ProfileStore
	limiter         *rate.Limiter
	convoClient     *convo.Client
	translateClient *translate.Client
	tokens          *jwt.Manager
	passwordHash    *password.Argon2
	events          *eventDispatcher
	metrics         *Metrics

	// now is the engine clock. Tests substitute it; everything time-dependent
	// in the lifecycle must read through it.
	now func() time.Time

	// mu guards the in-memory lifecycle state below. Timer callbacks take it
	// before touching anything.
	mu              sync.Mutex
	current         *session.Session
	lastActivity    time.Time
	warningTimer    *time.Timer
	expiryTimer     *time.Timer
	warningShown    bool
	expired         bool
	pendingSnapshot *session.Snapshot
	closed          bool
}

// Close stops the lifecycle timers and flushes the event dispatcher. Close is
// idempotent; the engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.stopTimersLocked()
	e.mu.Unlock()

	if e.events != nil {
		e.events.Close()
	}
}

// EventsDropped describes the eventsdropped operation and its observable behavior.
//
// EventsDropped may return an error when input validation, dependency calls, or security checks fail.
// EventsDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) EventsDropped() uint64 {
	if e == nil || e.events == nil {
		return 0
	}
	return e.events.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Metrics exposes the live counter set for exporters.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// Ping returns a point-in-time storage availability check and its latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	return e.sessionStore.Ping(ctx)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitEvent(ctx context.Context, event Event) {
	if e == nil || e.events == nil {
		return
	}
	e.events.Emit(ctx, event)
}

// stopTimersLocked stops both lifecycle timers. Callers hold e.mu; a timer
// whose callback is already running will observe the state it races with
// under the same mutex.
func (e *Engine) stopTimersLocked() {
	if e.warningTimer != nil {
		e.warningTimer.Stop()
		e.warningTimer = nil
	}
	if e.expiryTimer != nil {
		e.expiryTimer.Stop()
		e.expiryTimer = nil
	}
}
