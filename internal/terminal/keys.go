package terminal

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/race/highway/internal/game"
)

// ControlForKey maps an arrow key event to its control. tcell names arrows
// "Up", "Down", ... so the browser's "Arrow" prefix turns them into the
// identifiers the game parses.
func ControlForKey(ev *tcell.EventKey) (game.Control, bool) {
	name, ok := tcell.KeyNames[ev.Key()]
	if !ok {
		return 0, false
	}
	return game.ParseControl("Arrow" + name)
}

// IsQuit reports whether ev ends the program: Esc, Ctrl-C or q.
func IsQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

// KeyHolder turns terminal key presses into held controls. Terminals report
// no key release, so a press holds its control for hold and each auto-repeat
// extends it. Expire releases controls whose hold ran out.
type KeyHolder struct {
	controls *game.Controls
	hold     time.Duration

	mu      sync.Mutex
	expires map[game.Control]time.Time
}

// NewKeyHolder writes to controls as the keyboard source.
func NewKeyHolder(controls *game.Controls, hold time.Duration) *KeyHolder {
	return &KeyHolder{
		controls: controls,
		hold:     hold,
		expires:  make(map[game.Control]time.Time),
	}
}

// Press holds ctrl until now+hold.
func (k *KeyHolder) Press(ctrl game.Control, now time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, held := k.expires[ctrl]; !held {
		k.controls.SetPressedFrom(game.SourceKeyboard, ctrl, true)
	}
	k.expires[ctrl] = now.Add(k.hold)
}

// Expire releases every control whose hold ended before now.
func (k *KeyHolder) Expire(now time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for ctrl, until := range k.expires {
		if !now.Before(until) {
			delete(k.expires, ctrl)
			k.controls.SetPressedFrom(game.SourceKeyboard, ctrl, false)
		}
	}
}

// ReleaseAll drops every hold.
func (k *KeyHolder) ReleaseAll() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for ctrl := range k.expires {
		delete(k.expires, ctrl)
	}
	k.controls.ReleaseAll()
}

// Held returns the number of controls currently held.
func (k *KeyHolder) Held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.expires)
}
