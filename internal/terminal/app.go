package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/race/highway/config"
	"github.com/race/highway/internal/game"
	"github.com/rs/zerolog"
)

const keyPollInterval = 10 * time.Millisecond

// App runs one session on a terminal screen.
type App struct {
	screen   tcell.Screen
	session  *game.Session
	backdrop *game.Backdrop
	keys     *KeyHolder
	renderer *Renderer
	alerter  *Alerter
	logger   zerolog.Logger
}

// NewApp wires a session to screen. The screen must be initialised; the
// caller finalises it after Run returns.
func NewApp(screen tcell.Screen, cfg *config.Config, beeper Beeper, logger zerolog.Logger) (*App, error) {
	renderer := NewRenderer(screen, cfg.Tuning)
	alerter := NewAlerter(renderer, beeper, cfg.Terminal.AlertHold)
	backdrop := game.NewBackdrop(cfg.Tuning.BackdropPeriod)

	session, err := game.NewSession("terminal", game.SessionOptions{
		Tuning:   cfg.Tuning,
		Backdrop: backdrop,
		Notifier: alerter,
		Sink:     renderer,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		screen:   screen,
		session:  session,
		backdrop: backdrop,
		keys:     NewKeyHolder(session.Controls(), cfg.Terminal.KeyHold),
		renderer: renderer,
		alerter:  alerter,
		logger:   logger.With().Str("component", "terminal").Logger(),
	}, nil
}

// Session returns the session the app drives.
func (a *App) Session() *game.Session {
	return a.session
}

// HandleEvent applies one terminal event and reports whether to quit.
// Any key dismisses a pending collision banner.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if IsQuit(ev) {
			return true
		}
		a.alerter.Acknowledge()
		if ctrl, ok := ControlForKey(ev); ok {
			a.keys.Press(ctrl, time.Now())
		}

	case *tcell.EventResize:
		a.screen.Sync()
		a.renderer.Redraw()
	}
	return false
}

// Run plays until a quit key or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.backdrop.Run(ctx)

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	expiry := time.NewTicker(keyPollInterval)
	defer expiry.Stop()

	a.session.Start()
	defer a.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if a.HandleEvent(ev) {
				return nil
			}
		case now := <-expiry.C:
			a.keys.Expire(now)
		}
	}
}

func (a *App) shutdown() {
	a.alerter.Close()
	a.session.Stop()
	<-a.session.Done()
	a.keys.ReleaseAll()

	stats := a.session.Stats()
	a.logger.Info().
		Uint64("ticks", stats.Ticks).
		Uint64("collisions", stats.Collisions).
		Msg("session finished")
}
