// Package translate is the client for the translation provider's HTTPS JSON
// API. It validates against the supported-language set, short-circuits
// same-language requests without any network call, and applies the same
// bounded linear-backoff retry policy as the conversation client.
package translate
