// Package server binds game sessions to browser clients.
//
// Architecture Overview:
// - Uses WebSocket for real-time bidirectional communication with clients
// - Every connection drives its own private session; sessions never interact
// - Each session ticks at Tuning.TickRate and pushes frames at Tuning.FrameRate
// - The backdrop colour is process-wide and cycles on wall-clock time
//
// Connection Flow:
// 1. Client connects via WebSocket to /ws endpoint
// 2. Server creates a session and sends SessionInfo with the road geometry
// 3. Client sends Input or Control messages, server pushes Frame messages
// 4. On collision the server pushes an Alert; the session has already reset
// 5. Closing the socket stops the session; an idle session closes the socket
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/race/highway/config"
	"github.com/race/highway/internal/game"
	"github.com/race/highway/internal/network"
	"github.com/race/highway/internal/registry"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout  = 5 * time.Second
	statsLogInterval = 5 * time.Minute
)

// Server is the main server instance that manages all connections and sessions.
type Server struct {
	config   config.ServerConfig
	tuning   config.Tuning
	registry *registry.Registry
	backdrop *game.Backdrop
	protocol *network.Protocol
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu          sync.Mutex
	connections map[*ClientConnection]struct{}
}

// New creates and initializes a server from the loaded configuration.
func New(cfg *config.Config, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "server").Logger()
	backdrop := game.NewBackdrop(cfg.Tuning.BackdropPeriod)
	enableCORS := cfg.Server.EnableCORS

	return &Server{
		config:   cfg.Server,
		tuning:   cfg.Tuning,
		registry: registry.New(cfg.Server.MaxSessions, cfg.Tuning, backdrop, logger),
		backdrop: backdrop,
		protocol: network.NewProtocol(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return enableCORS
			},
		},
		logger:      logger,
		connections: make(map[*ClientConnection]struct{}),
	}
}

// Registry returns the session registry.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// Backdrop returns the process-wide backdrop.
func (s *Server) Backdrop() *game.Backdrop {
	return s.backdrop
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

// Run serves until ctx is done, then closes every connection and session.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Background tasks share the server lifetime
	go s.backdrop.Run(ctx)
	go s.sweepLoop(ctx)
	go s.statsLoop(ctx)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info().
		Str("addr", addr).
		Int("tickRate", s.tuning.TickRate).
		Int("frameRate", s.tuning.FrameRate).
		Int("maxSessions", s.config.MaxSessions).
		Msg("server listening")

	var runErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("listen on %s: %w", addr, err)
		}
	case <-ctx.Done():
		// Stop accepting, then close live sessions below
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("shutdown: %w", err)
		}
	}

	s.closeAll()
	s.registry.StopAll()
	s.logger.Info().Msg("server stopped")
	return runErr
}

// sweepLoop removes sessions without input for longer than IdleTimeout.
func (s *Server) sweepLoop(ctx context.Context) {
	if s.config.SweepInterval <= 0 || s.config.IdleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.registry.CleanupIdle(s.config.IdleTimeout)
		}
	}
}

// statsLoop logs server statistics while there are sessions.
func (s *Server) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(statsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := s.registry.GetStats()
			if stats.TotalSessions > 0 {
				s.logger.Info().
					Int("sessions", stats.TotalSessions).
					Uint64("ticks", stats.TotalTicks).
					Uint64("collisions", stats.TotalCollisions).
					Msg("stats")
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.registry.GetStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"sessions":%d,"ticks":%d,"collisions":%d}`,
		stats.TotalSessions, stats.TotalTicks, stats.TotalCollisions)
}

// handleWebSocket upgrades the connection and binds it to a fresh session.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	// The connection is both sink and notifier of its own session
	conn := newClientConnection(ws, s)
	session, err := s.registry.Create(conn, conn)
	if err != nil {
		code := network.ErrorCodeServerError
		if errors.Is(err, registry.ErrServerFull) {
			code = network.ErrorCodeServerFull
		}
		s.logger.Warn().Err(err).Str("remote", conn.RemoteAddr()).Msg("rejecting connection")
		conn.reject(code, err.Error())
		return
	}
	conn.session = session
	conn.logger = conn.logger.With().Str("session", session.ID).Logger()

	s.mu.Lock()
	s.connections[conn] = struct{}{}
	s.mu.Unlock()

	// Queued before the pumps start, so it is the first message out
	conn.Send(s.protocol.EncodeSessionInfo(&network.SessionInfoMessage{
		MsgType:      network.MsgTypeSessionInfo,
		SessionID:    session.ID,
		RoadWidth:    float32(s.tuning.RoadWidth),
		RoadLength:   float32(s.tuning.RoadLength),
		CarWidth:     float32(s.tuning.CarWidth),
		CarLength:    float32(s.tuning.CarLength),
		CarHeight:    float32(s.tuning.CarHeight),
		TrafficCount: uint8(s.tuning.TrafficCount),
		TickRate:     uint8(s.tuning.TickRate),
	}))

	conn.logger.Info().Str("remote", conn.RemoteAddr()).Msg("new connection")

	// Start read and write goroutines; they run until the connection closes
	go conn.writePump()
	go conn.readPump()
	go conn.watchSession()
	session.Start()
}

func (s *Server) forget(c *ClientConnection) {
	s.mu.Lock()
	delete(s.connections, c)
	s.mu.Unlock()
}

// ConnectionCount returns the number of open client connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]*ClientConnection, 0, len(s.connections))
	for c := range s.connections {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.cleanup()
	}
}
