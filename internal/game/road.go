package game

import (
	"math"

	"github.com/race/highway/config"
)

// RoadState is the scroll position of the road mesh. It only moves the
// visual anchor and never feeds collision.
type RoadState struct {
	Offset float64
}

// Scroll advances the offset by one tick at speed and wraps it to 0 once it
// passes RoadLength in either direction.
func Scroll(r RoadState, speed float64, t config.Tuning) RoadState {
	r.Offset += speed * t.MoveScale
	if math.Abs(r.Offset) > t.RoadLength {
		r.Offset = 0
	}
	return r
}
