package chat

import "sync/atomic"

// sessionQueueSize bounds how many frames may be pending per connection
// before deliveries to it start being skipped.
const sessionQueueSize = 32

// Session binds one user identity to a live connection. Frames queued via
// Deliver are drained by the transport's write loop reading Frames; the
// session never writes to the connection itself, so delivery does not block
// on the network.
type Session struct {
	UserID   string
	UserName string

	frames chan []byte
	closed atomic.Bool
}

// NewSession constructs a session for the given identity with an empty
// outbound queue.
func NewSession(ident Identity) *Session {
	return &Session{
		UserID:   ident.UserID,
		UserName: ident.UserName,
		frames:   make(chan []byte, sessionQueueSize),
	}
}

// Frames exposes the outbound queue to the transport's write loop.
func (s *Session) Frames() <-chan []byte {
	return s.frames
}

// Deliver queues one serialized frame for the connection. It never blocks:
// a closed session returns ErrSessionClosed, a full queue ErrSessionBusy.
func (s *Session) Deliver(frame []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.frames <- frame:
		return nil
	default:
		return ErrSessionBusy
	}
}

// Close marks the session dead. Subsequent Deliver calls fail; the frame
// channel is left open so concurrent deliveries cannot panic.
func (s *Session) Close() {
	s.closed.Store(true)
}

// Open reports whether the session still accepts deliveries.
func (s *Session) Open() bool {
	return !s.closed.Load()
}
