package internaldefs

import (
	parley "github.com/corvid-labs/parley"
)

// CounterDef defines a public type used by parley APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   parley.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by parley APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   parley.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session engine.
var CounterDefs = []CounterDef{
	{ID: parley.MetricUserCreated, Name: "parley_user_created_total", Help: "Successful profile registrations."},
	{ID: parley.MetricUserDuplicateEmail, Name: "parley_user_duplicate_email_total", Help: "Registrations rejected for duplicate email."},
	{ID: parley.MetricLoginSuccess, Name: "parley_login_success_total", Help: "Successful authentications."},
	{ID: parley.MetricLoginFailure, Name: "parley_login_failure_total", Help: "Failed authentications."},
	{ID: parley.MetricSessionCreated, Name: "parley_session_created_total", Help: "Created sessions."},
	{ID: parley.MetricSessionExtended, Name: "parley_session_extended_total", Help: "Session expiry extensions."},
	{ID: parley.MetricSessionExpired, Name: "parley_session_expired_total", Help: "Expired sessions."},
	{ID: parley.MetricSessionWarning, Name: "parley_session_warning_total", Help: "Sessions that entered the expiry warning window."},
	{ID: parley.MetricLogout, Name: "parley_logout_total", Help: "Deliberate logouts."},
	{ID: parley.MetricActivityCoalesced, Name: "parley_activity_coalesced_total", Help: "Activity signals coalesced below the debounce threshold."},
	{ID: parley.MetricSnapshotSaved, Name: "parley_snapshot_saved_total", Help: "Work-in-progress snapshots saved."},
	{ID: parley.MetricSnapshotRestored, Name: "parley_snapshot_restored_total", Help: "Work-in-progress snapshots restored."},
	{ID: parley.MetricConversationCreated, Name: "parley_conversation_created_total", Help: "Conversations created at the provider."},
	{ID: parley.MetricConversationFailed, Name: "parley_conversation_failed_total", Help: "Conversation create attempts that failed."},
	{ID: parley.MetricConversationRateLimited, Name: "parley_conversation_rate_limited_total", Help: "Conversation creates rejected by the hourly quota."},
	{ID: parley.MetricConversationQuotaExhausted, Name: "parley_conversation_quota_exhausted_total", Help: "Conversation creates rejected for an empty minutes balance."},
	{ID: parley.MetricConversationEnded, Name: "parley_conversation_ended_total", Help: "Conversations ended at the provider."},
	{ID: parley.MetricTranslationServed, Name: "parley_translation_served_total", Help: "Translations served by the provider."},
	{ID: parley.MetricTranslationPassthrough, Name: "parley_translation_passthrough_total", Help: "Same-language translations short-circuited locally."},
	{ID: parley.MetricTranslationFailed, Name: "parley_translation_failed_total", Help: "Translation requests that failed."},
	{ID: parley.MetricTranslationRateLimited, Name: "parley_translation_rate_limited_total", Help: "Translations rejected by the hourly quota."},
}

// HistogramDefs is an exported constant or variable used by the session engine.
var HistogramDefs = []HistogramDef{
	{ID: parley.MetricConversationCreateLatency, Name: "parley_conversation_create_latency_seconds", Help: "Conversation create latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
