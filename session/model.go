package session

import "time"

// Session is the single-slot authenticated session record. Exactly one
// session may exist in storage at a time; creating a new one overwrites the
// slot. ExpiresAt is always the last extension point plus the configured
// session duration.
type Session struct {
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Device         string    `json:"device,omitempty"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Remaining returns the session lifetime left at the given instant.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

// Snapshot is a point-in-time capture of in-progress wizard input, written
// periodically while a session is active and once more at forced expiry.
type Snapshot struct {
	Topic           string    `json:"topic,omitempty"`
	Language        string    `json:"language,omitempty"`
	TranslatedTopic string    `json:"translated_topic,omitempty"`
	ReplicaID       string    `json:"replica_id,omitempty"`
	Step            int       `json:"step"`
	CapturedAt      time.Time `json:"captured_at"`
}

// Empty reports whether the snapshot carries no wizard input worth keeping.
func (s *Snapshot) Empty() bool {
	if s == nil {
		return true
	}
	return s.Topic == "" && s.Language == "" && s.TranslatedTopic == "" && s.ReplicaID == ""
}
