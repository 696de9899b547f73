// Package session persists the single-slot authenticated session record and
// the work-in-progress wizard snapshot. The store owns exactly two keys in
// the Redis keyspace and never touches profile storage.
//
// All reads tolerate missing or malformed payloads: a corrupt record is
// cleared and reported as absent rather than surfaced as an error, so the
// host's initialization path can never be wedged by bad storage contents.
package session
