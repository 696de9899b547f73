package convo

import (
	"errors"
	"time"
)

var (
	// ErrInvalidRequest is an exported constant or variable used by the conversation client.
	ErrInvalidRequest = errors.New("invalid conversation request")
	// ErrAuth is an exported constant or variable used by the conversation client.
	ErrAuth = errors.New("invalid conversation API key")
	// ErrBadRequest is an exported constant or variable used by the conversation client.
	ErrBadRequest = errors.New("conversation request rejected by provider")
	// ErrRateLimited is an exported constant or variable used by the conversation client.
	ErrRateLimited = errors.New("conversation provider rate limited")
	// ErrQuota is an exported constant or variable used by the conversation client.
	ErrQuota = errors.New("conversation provider quota exhausted")
	// ErrReplicaNotFound is an exported constant or variable used by the conversation client.
	ErrReplicaNotFound = errors.New("replica not found")
	// ErrProtocol is an exported constant or variable used by the conversation client.
	ErrProtocol = errors.New("unexpected conversation provider response")
)

const (
	maxGreetingLen = 500
	maxContextLen  = 2000
)

// Properties are the typed call-duration knobs sent with a create request.
// Zero values are omitted from the wire payload and left to provider defaults.
type Properties struct {
	MaxCallDuration          time.Duration
	ParticipantLeftTimeout   time.Duration
	ParticipantAbsentTimeout time.Duration
}

// Request describes the conversation to create. Context is optional; when
// present it drives the deterministic greeting/context synthesis.
type Request struct {
	ReplicaID  string
	Name       string
	Greeting   string
	Context    string
	Properties Properties
}

// Conversation is the provider's create response. URL is handed to the host
// UI to open; the client does not manage the call.
type Conversation struct {
	ConversationID string `json:"conversation_id"`
	Name           string `json:"conversation_name"`
	Status         string `json:"status"`
	URL            string `json:"conversation_url"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// ConversationStatus is a point-in-time poll result.
type ConversationStatus struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}

// Terminal reports whether polling should stop for this status.
func (s *ConversationStatus) Terminal() bool {
	if s == nil {
		return false
	}
	return s.Status == "ended" || s.Status == "failed"
}
