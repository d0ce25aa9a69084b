// Package game implements the driving simulation: input sampling, player
// kinematics, traffic, collision, road scrolling and the fixed-rate session
// loop that sequences them.
package game

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/race/highway/config"
	"github.com/rs/zerolog"
)

// Notifier receives the collision alert. It is called synchronously on the
// tick goroutine; a blocking notifier delays the next tick.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Alert calls f(message).
func (f NotifierFunc) Alert(message string) { f(message) }

// FrameSink is a rendering collaborator. Render is called once per frame
// with a private copy of the simulation output.
type FrameSink interface {
	Render(frame Frame)
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(frame Frame)

// Render calls f(frame).
func (f FrameSinkFunc) Render(frame Frame) { f(frame) }

// SessionOptions configures a Session. Zero values are valid: no backdrop
// uses the first palette colour, nil Notifier and Sink are skipped.
type SessionOptions struct {
	Tuning   config.Tuning
	Backdrop *Backdrop
	Notifier Notifier
	Sink     FrameSink
	Logger   zerolog.Logger
}

// Session is one running game: a player, its traffic and road.
//
// Each session has its own:
// - simulation tick at Tuning.TickRate
// - frame push to its FrameSink at Tuning.FrameRate
// - input sampler written by any number of event sources
//
// Thread Safety:
// The state is only written by Tick, under mu. Snapshot and State take the
// read lock. Controls are atomics and may be written from any goroutine.
type Session struct {
	ID string

	tuning   config.Tuning
	controls *Controls
	spawner  *Spawner
	backdrop *Backdrop
	notifier Notifier
	sink     FrameSink
	metrics  *sessionMetrics
	logger   zerolog.Logger

	mu    sync.RWMutex // protects state
	state State

	collisions atomic.Uint64
	recycles   atomic.Uint64
	startedAt  time.Time

	lifecycle sync.Mutex
	started   bool
	stopped   bool
	stopChan  chan struct{}
	done      chan struct{}
}

// SessionStats is a point-in-time summary of a session.
type SessionStats struct {
	ID         string
	Ticks      uint64
	Collisions uint64
	Recycles   uint64
	StartedAt  time.Time
	LastInput  time.Time
}

// NewSession creates a session in its initial state. The loop is not
// started; call Start, or drive it manually with Tick.
func NewSession(id string, opts SessionOptions) (*Session, error) {
	metrics, err := newSessionMetrics()
	if err != nil {
		return nil, err
	}

	spawner := NewSpawner(opts.Tuning.Seed)
	s := &Session{
		ID:        id,
		tuning:    opts.Tuning,
		controls:  NewControls(),
		spawner:   spawner,
		backdrop:  opts.Backdrop,
		notifier:  opts.Notifier,
		sink:      opts.Sink,
		metrics:   metrics,
		logger:    opts.Logger.With().Str("session", id).Logger(),
		state:     NewState(opts.Tuning, spawner),
		startedAt: time.Now(),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	return s, nil
}

// Controls returns the input sampler event sources write to.
func (s *Session) Controls() *Controls {
	return s.controls
}

// Tuning returns the constants this session runs with.
func (s *Session) Tuning() config.Tuning {
	return s.tuning
}

// Start begins the tick loop in its own goroutine.
// Calls after the first, or after Stop, are no-ops.
func (s *Session) Start() {
	s.lifecycle.Lock()
	if s.started || s.stopped {
		s.lifecycle.Unlock()
		return
	}
	s.started = true
	s.startedAt = time.Now()
	s.lifecycle.Unlock()

	go s.loop()
	s.logger.Info().
		Int("tickRate", s.tuning.TickRate).
		Int("frameRate", s.tuning.FrameRate).
		Msg("session started")
}

// Stop releases the timers and ends the loop without waiting for it; use
// Done for that. Safe to call multiple times.
func (s *Session) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopChan)
	if !s.started {
		close(s.done)
	}
	s.logger.Info().Uint64("ticks", s.currentTick()).Msg("session stopped")
}

// Running reports whether the loop is active.
func (s *Session) Running() bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.started && !s.stopped
}

// Done is closed once the loop has exited (or Stop was called before Start).
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// loop runs ticks and frames until Stop.
func (s *Session) loop() {
	defer close(s.done)

	tickTicker := time.NewTicker(s.tuning.TickInterval())
	defer tickTicker.Stop()

	var frames <-chan time.Time
	if s.sink != nil {
		frameTicker := time.NewTicker(s.tuning.FrameInterval())
		defer frameTicker.Stop()
		frames = frameTicker.C
	}

	for {
		select {
		case <-s.stopChan:
			return

		case <-tickTicker.C:
			s.Tick()

		case <-frames:
			s.sink.Render(s.Snapshot())
		}
	}
}

// Tick runs exactly one simulation step and, on collision, the alert.
func (s *Session) Tick() TickReport {
	start := time.Now()
	in := s.controls.Snapshot()

	s.mu.Lock()
	next, report := Step(s.state, in, s.tuning, s.spawner)
	s.state = next
	s.mu.Unlock()

	s.metrics.record(report, time.Since(start))
	if report.Recycled > 0 {
		s.recycles.Add(uint64(report.Recycled))
	}

	if report.Collided {
		s.collisions.Add(1)
		s.logger.Debug().Uint64("tick", next.Tick).Msg("collision, session reset")
		if s.notifier != nil {
			s.notifier.Alert(config.CollisionMessage)
		}
	}

	return report
}

// Snapshot returns the current frame for renderers.
func (s *Session) Snapshot() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewFrame(s.state, s.tuning, s.backdrop.Current())
}

// State returns a copy of the full simulation state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Stats returns the session counters.
func (s *Session) Stats() SessionStats {
	s.lifecycle.Lock()
	startedAt := s.startedAt
	s.lifecycle.Unlock()

	return SessionStats{
		ID:         s.ID,
		Ticks:      s.currentTick(),
		Collisions: s.collisions.Load(),
		Recycles:   s.recycles.Load(),
		StartedAt:  startedAt,
		LastInput:  s.controls.LastInput(),
	}
}

func (s *Session) currentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Tick
}
