// Package convo is the client for the avatar-conversation provider's HTTPS
// JSON API: create a conversation, poll its status, end it. The client owns
// request validation, the deterministic context/greeting synthesis, and the
// retry policy; quota accounting stays with the engine. The video call
// itself is entirely the provider's — callers only receive a join URL.
package convo
