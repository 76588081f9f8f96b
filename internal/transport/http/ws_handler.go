package http

import (
	"context"
	"errors"
	"io"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mohammed-Khaledx/connect-chat/internal/chat"
)

// WSHandler upgrades HTTP connections and bridges them to chat sessions.
type WSHandler struct {
	router *chat.Router
	log    *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(router *chat.Router, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{router: router, log: logger}
}

// Handle accepts the WebSocket upgrade, extracts the identity from the
// handshake query, and runs the read/write loops until the connection dies.
// A handshake without both identity fields is closed without registering a
// session.
func (h *WSHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ident, ok := chat.ParseIdentity(c.Request.URL.RawQuery)
	if !ok {
		h.log.Warn().Str("query", c.Request.URL.RawQuery).Msg("handshake without identity")
		conn.Close(websocket.StatusPolicyViolation, "userId and userName are required")
		return
	}

	session := chat.NewSession(ident)
	h.router.HandleConnect(session)
	defer h.router.HandleDisconnect(session)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("user_id", session.UserID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *chat.Session) error {
	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		h.router.HandleInbound(ctx, session, payload)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *chat.Session) error {
	for {
		select {
		case frame := <-session.Frames():
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				h.log.Error().Err(err).Str("user_id", session.UserID).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
