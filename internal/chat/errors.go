package chat

import "errors"

// Error codes identifying why an inbound frame was rejected. They are
// attached to log entries alongside the SYSTEM frame sent to the client.
const (
	ErrCodeInvalidMessage  = "invalid_message"
	ErrCodeEmptyContent    = "empty_content"
	ErrCodeBadTarget       = "bad_target"
	ErrCodePersistenceFail = "persistence_failed"
)

var (
	ErrEmptyContent    = errors.New("message content is empty")
	ErrNoRecipient     = errors.New("private message has no recipient")
	ErrAmbiguousTarget = errors.New("message is both global and addressed")
	ErrSessionClosed   = errors.New("session is closed")
	ErrSessionBusy     = errors.New("session outbound queue is full")
)
