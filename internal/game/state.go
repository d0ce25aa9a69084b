package game

import "github.com/race/highway/config"

// State is a complete simulation snapshot.
type State struct {
	Tick    uint64
	Player  PlayerVehicle
	Traffic []TrafficVehicle
	Road    RoadState
}

// TickReport describes what happened during one Step.
type TickReport struct {
	Collided bool
	Recycled int
}

// NewState returns the initial state: player at the start pose and a freshly
// spawned traffic pool.
func NewState(t config.Tuning, s *Spawner) State {
	return State{
		Player:  NewPlayerVehicle(t),
		Traffic: s.Traffic(t),
	}
}

// Clone returns a copy that shares no memory with st.
func (st State) Clone() State {
	st.Traffic = append([]TrafficVehicle(nil), st.Traffic...)
	return st
}

// Step advances prev by one fixed tick and returns the next state. prev is not
// modified. Randomness comes only from s.
//
// Order: kinematics, collision against the pool as it stood before this tick,
// reset on collision, traffic advance, road scroll.
func Step(prev State, in InputState, t config.Tuning, s *Spawner) (State, TickReport) {
	var report TickReport

	next := State{
		Tick:    prev.Tick + 1,
		Player:  Drive(prev.Player, in, t),
		Traffic: prev.Traffic,
		Road:    prev.Road,
	}

	if Collides(next.Player, prev.Traffic, t.CollisionDistance) {
		report.Collided = true
		next.Player = NewPlayerVehicle(t)
		next.Traffic = s.Traffic(t)
	}

	next.Traffic, report.Recycled = AdvanceTraffic(next.Traffic, t, s)
	next.Road = Scroll(next.Road, next.Player.Speed, t)

	return next, report
}

// Frame is what a renderer draws. It is a copy and safe to keep.
type Frame struct {
	Tick     uint64
	Player   PlayerVehicle
	Traffic  []TrafficVehicle
	Road     RoadState
	Camera   Camera
	Backdrop uint32
}

// NewFrame builds the renderer view of st.
func NewFrame(st State, t config.Tuning, backdrop uint32) Frame {
	return Frame{
		Tick:     st.Tick,
		Player:   st.Player,
		Traffic:  append([]TrafficVehicle(nil), st.Traffic...),
		Road:     st.Road,
		Camera:   ChaseCamera(st.Player, t),
		Backdrop: backdrop,
	}
}
