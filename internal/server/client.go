package server

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/race/highway/internal/game"
	"github.com/race/highway/internal/network"
	"github.com/rs/zerolog"
)

const (
	sendBufferSize = 256
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
)

var errConnectionClosed = errors.New("connection closed")

// ClientConnection represents a single connected browser. It is both the
// FrameSink and the Notifier of its session.
type ClientConnection struct {
	ws       *websocket.Conn
	server   *Server
	session  *game.Session
	guard    *inputGuard
	logger   zerolog.Logger
	sendChan chan []byte
	done     chan struct{}
	flush    chan struct{}

	closeOnce sync.Once
	flushOnce sync.Once
}

func newClientConnection(ws *websocket.Conn, s *Server) *ClientConnection {
	return &ClientConnection{
		ws:       ws,
		server:   s,
		guard:    newInputGuard(s.config.MaxInputRate, s.config.MaxViolations),
		logger:   s.logger,
		sendChan: make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		flush:    make(chan struct{}),
	}
}

// Render queues one frame. Frames are dropped while the buffer is full.
func (c *ClientConnection) Render(frame game.Frame) {
	c.Send(c.server.protocol.EncodeFrame(network.ConvertFrame(frame)))
}

// Alert queues the collision message.
func (c *ClientConnection) Alert(message string) {
	if err := c.Send(c.server.protocol.EncodeAlert(message)); err != nil {
		c.logger.Debug().Err(err).Msg("alert not delivered")
	}
}

// Send queues data to be sent to the client.
// Non-blocking: drops message if buffer is full.
func (c *ClientConnection) Send(data []byte) error {
	select {
	case c.sendChan <- data:
		return nil
	case <-c.done:
		return errConnectionClosed
	default:
		// Buffer full: drop it, the next frame supersedes this one
		return nil
	}
}

// RemoteAddr returns the client's address for logging.
func (c *ClientConnection) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// reject tells a client it cannot be served and closes the socket. Only
// valid before the pumps are started.
func (c *ClientConnection) reject(code uint8, reason string) {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	c.ws.WriteMessage(websocket.BinaryMessage, c.server.protocol.EncodeError(code, reason))
	c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseTryAgainLater, reason))
	c.ws.Close()
}

// kick sends a final error and closes the connection once it is written.
func (c *ClientConnection) kick(reason string) {
	c.logger.Warn().Str("reason", reason).Msg("kicking client")
	c.Send(c.server.protocol.EncodeError(network.ErrorCodeKicked, reason))
	c.flushOnce.Do(func() { close(c.flush) })
}

// writePump sends queued messages and periodic pings.
func (c *ClientConnection) writePump() {
	// Ping every pingPeriod so dead peers hit the read deadline
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.cleanup()

	for {
		select {
		case <-c.done:
			return

		case <-c.flush:
			// Kicked: deliver the final error, then close
			c.drain()
			return

		case message := <-c.sendChan:
			if err := c.write(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			// Send WebSocket ping frame
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drain writes whatever is queued right now.
func (c *ClientConnection) drain() {
	for {
		select {
		case message := <-c.sendChan:
			if err := c.write(websocket.BinaryMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *ClientConnection) write(messageType int, data []byte) error {
	// A stalled peer fails the write instead of hanging the pump
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

// readPump feeds client messages into the session's input sampler.
func (c *ClientConnection) readPump() {
	defer c.cleanup()

	// Client messages are a few bytes; anything larger is refused
	c.ws.SetReadLimit(maxMessageSize)
	// Initial read deadline, extended on each pong
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			// Only log unexpected errors, not normal disconnects
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}

		c.handleMessage(message)
	}
}

// watchSession closes the socket when the session ends on its own, e.g.
// through the idle sweep.
func (c *ClientConnection) watchSession() {
	select {
	case <-c.session.Done():
		c.cleanup()
	case <-c.done:
	}
}

// handleMessage dispatches on the first byte of the binary message.
func (c *ClientConnection) handleMessage(data []byte) {
	if len(data) == 0 {
		return
	}

	// First byte is always the message type
	switch data[0] {
	case network.MsgTypeInput, network.MsgTypeControl:
		// Only input counts against the rate limit; pings are cheap
		switch c.guard.check(time.Now()) {
		case guardKick:
			c.kick("input flood")
			return
		case guardDrop:
			return
		}
		if data[0] == network.MsgTypeInput {
			c.handleInput(data)
		} else {
			c.handleControl(data)
		}

	case network.MsgTypePing:
		c.handlePing(data)

	default:
		c.logger.Debug().Uint8("type", data[0]).Msg("unknown message type")
	}
}

func (c *ClientConnection) handleInput(data []byte) {
	msg, err := c.server.protocol.DecodeInput(data)
	if err != nil {
		c.logger.Debug().Err(err).Msg("dropping input")
		return
	}
	c.session.Controls().ApplyBits(game.SourceKeyboard, msg.Keys)
}

func (c *ClientConnection) handleControl(data []byte) {
	msg, err := c.server.protocol.DecodeControl(data)
	if err != nil {
		c.logger.Debug().Err(err).Msg("dropping control")
		return
	}
	c.session.Controls().SetPressedFrom(game.Source(msg.Source), game.Control(msg.Control), msg.Pressed)
}

// handlePing answers with the client's own timestamp for RTT measurement.
func (c *ClientConnection) handlePing(data []byte) {
	msg, err := c.server.protocol.DecodePing(data)
	if err != nil {
		c.logger.Debug().Err(err).Msg("dropping ping")
		return
	}
	c.Send(c.server.protocol.EncodePong(msg.Timestamp))
}

// cleanup stops the session and closes the socket. Safe to call multiple times.
func (c *ClientConnection) cleanup() {
	c.closeOnce.Do(func() {
		// Stops writePump and watchSession; Send fails from here on
		close(c.done)
		if c.session != nil {
			c.server.registry.Remove(c.session.ID)
		}
		c.server.forget(c)
		c.ws.Close()
		c.logger.Info().Str("remote", c.RemoteAddr()).Msg("connection closed")
	})
}
