package terminal

import (
	"sync"
	"time"
)

// Alerter is the terminal collision notifier. Alert shows the banner, plays
// the tone and blocks the calling tick until a key is pressed, hold elapses
// or the alerter is closed.
type Alerter struct {
	renderer *Renderer
	beeper   Beeper
	hold     time.Duration

	ack       chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// NewAlerter returns an alerter drawing on renderer. A nil beeper is silent.
func NewAlerter(renderer *Renderer, beeper Beeper, hold time.Duration) *Alerter {
	if beeper == nil {
		beeper = NopBeeper{}
	}
	return &Alerter{
		renderer: renderer,
		beeper:   beeper,
		hold:     hold,
		ack:      make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

// Alert implements game.Notifier.
func (a *Alerter) Alert(message string) {
	select {
	case <-a.ack:
	default:
	}

	a.renderer.ShowAlert(message)
	a.beeper.Beep()
	defer a.renderer.ClearAlert()

	timer := time.NewTimer(a.hold)
	defer timer.Stop()

	select {
	case <-a.ack:
	case <-timer.C:
	case <-a.closed:
	}
}

// Acknowledge dismisses a pending alert. Presses without a pending alert are
// forgotten at the start of the next one.
func (a *Alerter) Acknowledge() {
	select {
	case a.ack <- struct{}{}:
	default:
	}
}

// Close releases a blocked Alert and makes later ones return at once.
func (a *Alerter) Close() {
	a.closeOnce.Do(func() { close(a.closed) })
}
