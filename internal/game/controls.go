package game

import (
	"sync/atomic"
	"time"
)

// Control identifies one of the four directional controls.
type Control uint8

const (
	ControlUp Control = iota
	ControlDown
	ControlLeft
	ControlRight

	controlCount
)

// Source identifies where a control event came from.
type Source uint8

const (
	SourceKeyboard Source = iota
	SourceTouch
)

// Key bit flags, shared with the wire protocol.
const (
	BitUp    uint8 = 1 << ControlUp
	BitDown  uint8 = 1 << ControlDown
	BitLeft  uint8 = 1 << ControlLeft
	BitRight uint8 = 1 << ControlRight
)

var controlNames = [controlCount]string{"ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight"}

// String returns the key identifier of the control.
func (c Control) String() string {
	if !c.Valid() {
		return "Unknown"
	}
	return controlNames[c]
}

// Valid reports whether c is one of the four controls.
func (c Control) Valid() bool {
	return c < controlCount
}

// ParseControl maps a key identifier ("ArrowUp", ...) to its control.
func ParseControl(key string) (Control, bool) {
	for i, name := range controlNames {
		if name == key {
			return Control(i), true
		}
	}
	return 0, false
}

// InputState is the pressed state of every control at one instant.
type InputState struct {
	Up, Down, Left, Right bool
}

// Bits packs the state into the key bit flags.
func (in InputState) Bits() uint8 {
	var b uint8
	if in.Up {
		b |= BitUp
	}
	if in.Down {
		b |= BitDown
	}
	if in.Left {
		b |= BitLeft
	}
	if in.Right {
		b |= BitRight
	}
	return b
}

// InputFromBits unpacks key bit flags. Unknown bits are ignored.
func InputFromBits(b uint8) InputState {
	return InputState{
		Up:    b&BitUp != 0,
		Down:  b&BitDown != 0,
		Left:  b&BitLeft != 0,
		Right: b&BitRight != 0,
	}
}

// Controls samples the held controls. Event sources write flags from their
// own goroutines; the tick loop reads a Snapshot once per tick.
type Controls struct {
	flags     [controlCount]atomic.Bool
	lastInput atomic.Int64 // unix nanos
	sources   [2]atomic.Uint64
}

// NewControls returns a sampler with every control released.
func NewControls() *Controls {
	return &Controls{}
}

// SetPressed records a press or release. Unknown controls are ignored.
func (c *Controls) SetPressed(ctrl Control, pressed bool) {
	c.SetPressedFrom(SourceKeyboard, ctrl, pressed)
}

// SetPressedFrom is SetPressed with the event source recorded for stats.
// Both sources write the same flag; the last writer wins.
func (c *Controls) SetPressedFrom(src Source, ctrl Control, pressed bool) {
	if !ctrl.Valid() {
		return
	}
	c.flags[ctrl].Store(pressed)
	c.touch(src)
}

// IsPressed reports whether ctrl is held. Unknown controls are never held.
func (c *Controls) IsPressed(ctrl Control) bool {
	if !ctrl.Valid() {
		return false
	}
	return c.flags[ctrl].Load()
}

// ApplyBits sets all four controls from key bit flags.
func (c *Controls) ApplyBits(src Source, bits uint8) {
	in := InputFromBits(bits)
	c.flags[ControlUp].Store(in.Up)
	c.flags[ControlDown].Store(in.Down)
	c.flags[ControlLeft].Store(in.Left)
	c.flags[ControlRight].Store(in.Right)
	c.touch(src)
}

// ReleaseAll clears every control.
func (c *Controls) ReleaseAll() {
	for i := range c.flags {
		c.flags[i].Store(false)
	}
}

// Snapshot reads the current state of all controls.
func (c *Controls) Snapshot() InputState {
	return InputState{
		Up:    c.flags[ControlUp].Load(),
		Down:  c.flags[ControlDown].Load(),
		Left:  c.flags[ControlLeft].Load(),
		Right: c.flags[ControlRight].Load(),
	}
}

// Bits returns the current state as key bit flags.
func (c *Controls) Bits() uint8 {
	return c.Snapshot().Bits()
}

// LastInput returns the time of the most recent control event, or the zero
// time if there was none.
func (c *Controls) LastInput() time.Time {
	n := c.lastInput.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// EventCount returns how many events src has delivered.
func (c *Controls) EventCount(src Source) uint64 {
	if int(src) >= len(c.sources) {
		return 0
	}
	return c.sources[src].Load()
}

func (c *Controls) touch(src Source) {
	c.lastInput.Store(time.Now().UnixNano())
	if int(src) < len(c.sources) {
		c.sources[src].Add(1)
	}
}
