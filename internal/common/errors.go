package common

import "errors"

// Error taxonomy for the chat pipeline. Handlers map these to HTTP status
// codes with errors.Is; services wrap them with fmt.Errorf("...: %w", err)
// so the original cause stays attached.
var (
	// ErrUpstreamUnavailable indicates the embedding or generation service
	// was unreachable or timed out. Retryable.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrUpstreamRejected indicates an external service rejected the request
	// as invalid (bad model name, malformed payload). Never retried.
	ErrUpstreamRejected = errors.New("upstream service rejected request")

	// ErrUnknownPersona indicates the requested persona does not exist.
	ErrUnknownPersona = errors.New("unknown persona")

	// ErrPersonaMismatch indicates a conversation id was supplied for a
	// different persona than the one it belongs to.
	ErrPersonaMismatch = errors.New("conversation belongs to a different persona")

	// ErrDimensionMismatch indicates a vector's dimension does not match the
	// pinned embedding dimension. Configuration error, fatal, never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrConversationNotFound indicates the conversation id is unknown.
	ErrConversationNotFound = errors.New("conversation not found")
)
