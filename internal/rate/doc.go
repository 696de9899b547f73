// Package rate enforces the local provider-call quotas: a fixed number of
// outbound requests per rolling hour for each provider pool, plus the
// conversation-minutes balance. Both short-circuit before any network I/O.
package rate
