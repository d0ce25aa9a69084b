// Package registry owns the live game sessions of a server.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/race/highway/config"
	"github.com/race/highway/internal/game"
	"github.com/rs/zerolog"
)

// ErrServerFull is returned by Create when the session limit is reached.
var ErrServerFull = errors.New("server full")

// Registry handles session creation, lookup and the idle sweep
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*game.Session
	maxSessions int
	tuning      config.Tuning
	backdrop    *game.Backdrop
	logger      zerolog.Logger

	now func() time.Time
}

// New creates an empty registry. Sessions it creates share tuning and backdrop.
func New(maxSessions int, tuning config.Tuning, backdrop *game.Backdrop, logger zerolog.Logger) *Registry {
	return &Registry{
		sessions:    make(map[string]*game.Session),
		maxSessions: maxSessions,
		tuning:      tuning,
		backdrop:    backdrop,
		logger:      logger.With().Str("component", "registry").Logger(),
		now:         time.Now,
	}
}

// Create registers a new session with a fresh UUID. The session is not
// started, so the caller can send its greeting before the first frame.
func (r *Registry) Create(notifier game.Notifier, sink game.FrameSink) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		return nil, ErrServerFull
	}

	id := uuid.NewString()
	s, err := game.NewSession(id, game.SessionOptions{
		Tuning:   r.tuning,
		Backdrop: r.backdrop,
		Notifier: notifier,
		Sink:     sink,
		Logger:   r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	r.sessions[id] = s
	return s, nil
}

// Get gets a session by ID
func (r *Registry) Get(id string) *game.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sessions[id]
}

// Remove stops and forgets a session
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Stop()
	}
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// CleanupIdle stops and removes every session without input for longer than
// maxIdle. A session that never saw input is measured from its start.
func (r *Registry) CleanupIdle(maxIdle time.Duration) int {
	now := r.now()

	r.mu.Lock()
	var idle []*game.Session
	for id, s := range r.sessions {
		stats := s.Stats()
		last := stats.LastInput
		if last.Before(stats.StartedAt) {
			last = stats.StartedAt
		}
		if now.Sub(last) > maxIdle {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Stop()
	}

	if len(idle) > 0 {
		r.logger.Info().Int("removed", len(idle)).Msg("cleaned up idle sessions")
	}
	return len(idle)
}

// StopAll stops and removes every session
func (r *Registry) StopAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*game.Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}

// GetStats returns registry statistics
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		TotalSessions: len(r.sessions),
		Sessions:      make([]game.SessionStats, 0, len(r.sessions)),
	}

	for _, s := range r.sessions {
		ss := s.Stats()
		stats.TotalTicks += ss.Ticks
		stats.TotalCollisions += ss.Collisions
		stats.Sessions = append(stats.Sessions, ss)
	}

	return stats
}

// Stats contains registry statistics
type Stats struct {
	TotalSessions   int
	TotalTicks      uint64
	TotalCollisions uint64
	Sessions        []game.SessionStats
}
