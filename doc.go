// Package parley provides the session, profile, and provider-client core for
// an avatar-conversation wizard application: a Redis-backed profile store with
// Argon2id credentials, a single-slot session lifecycle manager with
// warning/expiry timers and work-in-progress backup, and retrying HTTP clients
// for the avatar-conversation and translation providers.
//
// The package is designed for a single host process: Engine methods are safe
// to call from multiple goroutines after initialization through
// [Builder.Build], and all timer callbacks run on engine-owned goroutines.
//
// # Architecture boundaries
//
// parley is the public surface. It exposes [Engine], [Builder], [Config], and
// value types (Event, MetricsSnapshot, UserProfile, etc.). Session and
// snapshot persistence lives in the session subpackage; provider clients live
// in convo and translate; rate limiting, profile storage, and ID generation
// live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, storage keys, or wire payloads in its public API.
//   - Perform I/O outside of Engine methods and armed timers (construction via
//     Builder is allocation-only until Build).
//   - Own any part of the video call itself; the conversation URL returned by
//     the provider is handed to the host UI untouched.
//
// # Concurrency contract
//
// The warning and expiry timers are the only background work the engine arms.
// Re-arming a timer always stops the previous one first, so a timer of a given
// kind never fires twice for the same deadline. Storage writes are
// last-writer-wins; there is no cross-process locking.
package parley
