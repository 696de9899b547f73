package parley

import (
	"context"
	"time"
)

// UserProfile is the credential-free view of a user record returned by
// [Engine.CreateUser], [Engine.Authenticate], and [Engine.UpdateUser].
// It is what the host UI holds for the duration of an authenticated session.
type UserProfile struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventKind defines a public type used by parley APIs.
//
// EventKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EventKind uint8

const (
	// EventWarning is an exported constant or variable used by the session engine.
	EventWarning EventKind = iota
	// EventExtended is an exported constant or variable used by the session engine.
	EventExtended
	// EventExpired is an exported constant or variable used by the session engine.
	EventExpired
	// EventLoggedOut is an exported constant or variable used by the session engine.
	EventLoggedOut
)

// String returns the lowercase name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventWarning:
		return "warning"
	case EventExtended:
		return "extended"
	case EventExpired:
		return "expired"
	case EventLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Event is the notification delivered to the [EventSink] when the session
// lifecycle changes state. A warning event carries the remaining lifetime so
// the UI can render a countdown; the subscriber reacts by calling
// [Engine.ExtendSession] or [Engine.ForceExpire].
type Event struct {
	Kind      EventKind
	SessionID string
	UserID    string
	Remaining time.Duration
	At        time.Time
}

// EventSink receives session lifecycle events from the engine's dispatcher
// goroutine. Implementations must not block for long periods; slow sinks
// cause events to be dropped when the buffer fills.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink defines a public type used by parley APIs.
//
// NoOpSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NoOpSink struct{}

// Emit describes the emit operation and its observable behavior.
//
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (NoOpSink) Emit(ctx context.Context, event Event) {}

// ChannelSink forwards events into a caller-owned channel, dropping on a full
// channel rather than blocking the dispatcher.
type ChannelSink struct {
	C chan Event
}

// NewChannelSink creates a [ChannelSink] with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{C: make(chan Event, buffer)}
}

// Emit describes the emit operation and its observable behavior.
//
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	if s == nil {
		return
	}
	select {
	case s.C <- event:
	default:
	}
}
