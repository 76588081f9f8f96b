package chat

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// MessageSaver is the slice of the persistence gateway the router needs:
// store one message and get back the stored form with its id assigned.
type MessageSaver interface {
	SaveMessage(ctx context.Context, msg *Message) (*Message, error)
}

// Router turns inbound frames into persistence calls and deliveries, and
// emits presence notifications on connect/disconnect. All per-connection
// errors are contained to that connection.
type Router struct {
	registry *Registry
	store    MessageSaver
	log      *zerolog.Logger
}

// NewRouter builds a router over the given registry and persistence gateway.
func NewRouter(registry *Registry, store MessageSaver, logger *zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		store:    store,
		log:      logger,
	}
}

// HandleConnect registers the session and broadcasts a synthetic
// USER_CONNECTED notification. Presence events are not persisted.
func (rt *Router) HandleConnect(s *Session) {
	if prev := rt.registry.Register(s); prev != nil {
		rt.log.Info().Str("user_id", s.UserID).Msg("replaced existing session")
	}
	rt.log.Info().
		Str("user_id", s.UserID).
		Str("user_name", s.UserName).
		Int("online", rt.registry.Count()).
		Msg("user connected")

	rt.broadcast(&Message{
		SenderID:  s.UserID,
		UserName:  s.UserName,
		Content:   ContentUserConnected,
		Timestamp: Now(),
		Global:    true,
	})
}

// HandleDisconnect closes the session, removes it from the registry, and
// broadcasts a synthetic USER_DISCONNECTED notification. If the registry
// entry was already replaced by a newer connection, no notification is sent.
func (rt *Router) HandleDisconnect(s *Session) {
	s.Close()
	if !rt.registry.Unregister(s) {
		return
	}
	rt.log.Info().
		Str("user_id", s.UserID).
		Int("online", rt.registry.Count()).
		Msg("user disconnected")

	rt.broadcast(&Message{
		SenderID:  s.UserID,
		UserName:  s.UserName,
		Content:   ContentUserDisconnected,
		Timestamp: Now(),
		Global:    true,
	})
}

// HandleInbound dispatches one user-authored frame: parse, validate, stamp
// the sender from the session binding, persist, then deliver. Persistence
// happens before any delivery; a failed save reaches nobody.
func (rt *Router) HandleInbound(ctx context.Context, s *Session, payload []byte) {
	msg, err := ParseMessage(payload)
	if err != nil {
		rt.log.Warn().Err(err).Str("user_id", s.UserID).Msg("unparseable frame")
		rt.sendError(s, ErrCodeInvalidMessage, "Invalid message format")
		return
	}
	if err := msg.Validate(); err != nil {
		rt.log.Debug().Err(err).Str("user_id", s.UserID).Msg("rejected message")
		switch {
		case errors.Is(err, ErrEmptyContent):
			rt.sendError(s, ErrCodeEmptyContent, "Message content must not be empty")
		default:
			rt.sendError(s, ErrCodeBadTarget, "Message must be global or name a receiver")
		}
		return
	}

	// Sender identity comes from the session binding, never from the
	// payload: any connected client could otherwise forge messages as any
	// other user.
	msg.SenderID = s.UserID
	msg.UserName = s.UserName
	if msg.Timestamp.IsZero() {
		msg.Timestamp = Now()
	}

	saved, err := rt.store.SaveMessage(ctx, msg)
	if err != nil {
		rt.log.Error().Err(err).Str("user_id", s.UserID).Msg("save message")
		rt.sendError(s, ErrCodePersistenceFail, "Failed to store message")
		return
	}

	if saved.Global {
		rt.broadcast(saved)
	} else {
		rt.deliverPrivate(saved)
	}
}

// broadcast serializes the message once and delivers it to every open
// session in a registry snapshot. Individual failures are logged and skipped.
func (rt *Router) broadcast(msg *Message) {
	frame, err := msg.Encode()
	if err != nil {
		rt.log.Error().Err(err).Msg("encode broadcast frame")
		return
	}
	for _, target := range rt.registry.Snapshot() {
		if err := target.Deliver(frame); err != nil {
			rt.log.Warn().
				Err(err).
				Str("user_id", target.UserID).
				Msg("skipping broadcast recipient")
		}
	}
}

// deliverPrivate sends the message to the receiver's session and echoes it
// back to the sender's, each looked up independently. Either may be offline;
// that is a legitimate transient state, not an error.
func (rt *Router) deliverPrivate(msg *Message) {
	frame, err := msg.Encode()
	if err != nil {
		rt.log.Error().Err(err).Msg("encode private frame")
		return
	}
	rt.deliverTo(msg.ReceiverID, frame)
	if msg.SenderID != msg.ReceiverID {
		rt.deliverTo(msg.SenderID, frame)
	}
}

func (rt *Router) deliverTo(userID string, frame []byte) {
	target, ok := rt.registry.Lookup(userID)
	if !ok {
		rt.log.Debug().Str("user_id", userID).Msg("recipient not online")
		return
	}
	if err := target.Deliver(frame); err != nil {
		rt.log.Warn().Err(err).Str("user_id", userID).Msg("private delivery failed")
	}
}

// sendError pushes a SYSTEM frame to the originating session only. It never
// reaches persistence or other clients.
func (rt *Router) sendError(s *Session, code, text string) {
	frame, err := (&Message{
		SenderID:   SystemSenderID,
		UserName:   SystemSenderID,
		ReceiverID: s.UserID,
		Content:    text,
		Timestamp:  Now(),
	}).Encode()
	if err != nil {
		rt.log.Error().Err(err).Msg("encode error frame")
		return
	}
	if err := s.Deliver(frame); err != nil {
		rt.log.Warn().
			Err(err).
			Str("user_id", s.UserID).
			Str("code", code).
			Msg("error frame delivery failed")
	}
}
