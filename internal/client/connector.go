// Package client maintains a single logical connection to the chat hub:
// it dials with the user's identity in the handshake, serializes outgoing
// messages, decodes incoming frames, and reconnects with capped exponential
// backoff when the connection drops.
package client

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/Mohammed-Khaledx/connect-chat/internal/chat"
)

// State describes the connector's connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "disconnected"
	}
}

var (
	// ErrConnectorClosed is returned after Disconnect.
	ErrConnectorClosed = errors.New("connector is closed")
	// ErrSendTimeout is returned when no connection was established within
	// the send timeout.
	ErrSendTimeout = errors.New("send timed out waiting for connection")
)

const (
	defaultSendTimeout    = 10 * time.Second
	defaultReconnectDelay = 5 * time.Second
	defaultMaxReconnect   = 80 * time.Second
	dialTimeout           = 10 * time.Second
)

// Handler consumes messages received from the hub.
type Handler func(*chat.Message)

// Config holds connector settings. Zero durations fall back to defaults.
type Config struct {
	// URL is the WebSocket endpoint, e.g. ws://localhost:8080/chat.
	URL string
	// Identity is embedded in the handshake query.
	Identity chat.Identity
	// SendTimeout bounds how long Send blocks waiting for a connection.
	SendTimeout time.Duration
	// ReconnectDelay is the first retry delay after a drop; it doubles per
	// failed attempt up to MaxReconnectDelay.
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
}

// Connector owns one logical connection to the hub.
type Connector struct {
	cfg       Config
	onMessage Handler
	log       *zerolog.Logger

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	openCh     chan struct{} // closed while state == StateOpen
	retry      *time.Timer
	delay      time.Duration
	readCancel context.CancelFunc
	closed     bool
}

// New builds a connector. onMessage is invoked from the read loop for every
// decoded frame; it must not block for long.
func New(cfg Config, onMessage Handler, logger *zerolog.Logger) *Connector {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.MaxReconnectDelay <= 0 {
		cfg.MaxReconnectDelay = defaultMaxReconnect
	}
	return &Connector{
		cfg:       cfg,
		onMessage: onMessage,
		log:       logger,
		openCh:    make(chan struct{}),
		delay:     cfg.ReconnectDelay,
	}
}

// Connect dials the hub with the identity embedded in the handshake target
// and starts the read loop. On failure a reconnect attempt is scheduled.
// Calling Connect while already open is a no-op.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnectorClosed
	}
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.handshakeURL(), nil)
	if err != nil {
		c.log.Warn().Err(err).Msg("dial failed")
		c.mu.Lock()
		c.state = StateDisconnected
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return err
	}

	readCtx, readCancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		readCancel()
		conn.Close(websocket.StatusNormalClosure, "closed")
		return ErrConnectorClosed
	}
	c.conn = conn
	c.readCancel = readCancel
	c.state = StateOpen
	c.delay = c.cfg.ReconnectDelay
	close(c.openCh)
	c.mu.Unlock()

	c.log.Info().Str("url", c.cfg.URL).Msg("connection established")
	go c.readLoop(readCtx, conn)
	return nil
}

// Send serializes the message and writes it as one text frame. If no
// connection is open it blocks until one is established or the send timeout
// elapses; messages are never silently dropped during a reconnect.
func (c *Connector) Send(ctx context.Context, msg *chat.Message) error {
	timer := time.NewTimer(c.cfg.SendTimeout)
	defer timer.Stop()

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrConnectorClosed
		}
		if c.state == StateOpen {
			conn := c.conn
			c.mu.Unlock()

			frame, err := msg.Encode()
			if err != nil {
				return err
			}
			return conn.Write(ctx, websocket.MessageText, frame)
		}
		open := c.openCh
		c.mu.Unlock()

		select {
		case <-open:
		case <-timer.C:
			return ErrSendTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Disconnect closes the connection and suppresses any pending reconnect.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.retry != nil {
		c.retry.Stop()
	}
	if c.readCancel != nil {
		c.readCancel()
	}
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	c.log.Info().Msg("disconnected")
}

// State reports the current connection state.
func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connector) handshakeURL() string {
	query := url.Values{}
	query.Set("userId", c.cfg.Identity.UserID)
	query.Set("userName", c.cfg.Identity.UserName)
	return c.cfg.URL + "?" + query.Encode()
}

func (c *Connector) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			c.handleDrop(err)
			return
		}
		msg, err := chat.ParseMessage(payload)
		if err != nil {
			// A single bad frame never kills the connection.
			c.log.Warn().Err(err).Msg("skipping undecodable frame")
			continue
		}
		if c.onMessage != nil {
			c.onMessage(msg)
		}
	}
}

// handleDrop transitions to disconnected and schedules a reconnect, unless
// the drop was caused by a deliberate Disconnect.
func (c *Connector) handleDrop(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.log.Warn().Err(err).Msg("connection lost")
	c.conn = nil
	c.state = StateDisconnected
	c.openCh = make(chan struct{})
	c.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms a cancellable retry timer with the current
// backoff delay, then doubles the delay up to the cap. Callers hold c.mu.
func (c *Connector) scheduleReconnectLocked() {
	if c.closed {
		return
	}
	delay := c.delay
	c.delay *= 2
	if c.delay > c.cfg.MaxReconnectDelay {
		c.delay = c.cfg.MaxReconnectDelay
	}

	c.log.Info().Dur("delay", delay).Msg("scheduling reconnect")
	c.retry = time.AfterFunc(delay, func() {
		if err := c.Connect(context.Background()); err != nil && !errors.Is(err, ErrConnectorClosed) {
			c.log.Warn().Err(err).Msg("reconnect attempt failed")
		}
	})
}
