package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/race/highway/config"
)

// PlayerVehicle is the player's car.
type PlayerVehicle struct {
	Position mgl64.Vec3 // x lateral, y ride height, z longitudinal
	Heading  float64    // yaw in radians, 0 faces +z
	Speed    float64
}

// NewPlayerVehicle returns the player at the start pose: origin, stopped, facing +z.
func NewPlayerVehicle(t config.Tuning) PlayerVehicle {
	return PlayerVehicle{
		Position: mgl64.Vec3{0, t.RideHeight, 0},
	}
}

// Drive integrates one tick of player kinematics.
//
// Down raises speed toward MaxSpeed and Up lowers it toward -MaxSpeed/2.
// With neither held, friction decays speed geometrically. Left takes priority
// over Right. The move uses the speed and heading computed in this same tick.
func Drive(p PlayerVehicle, in InputState, t config.Tuning) PlayerVehicle {
	switch {
	case in.Down:
		p.Speed = math.Min(p.Speed+t.Acceleration, t.MaxSpeed)
	case in.Up:
		p.Speed = math.Max(p.Speed-t.BrakePower, -t.MaxSpeed/2)
	default:
		p.Speed *= t.Friction
	}

	if in.Left {
		p.Heading += t.TurnSpeed
	} else if in.Right {
		p.Heading -= t.TurnSpeed
	}

	move := p.Speed * t.MoveScale
	p.Position[0] += math.Sin(p.Heading) * move
	p.Position[2] += math.Cos(p.Heading) * move
	p.Position[0] = clampLane(p.Position[0], t)

	return p
}

// clampLane hard-limits a lateral coordinate to the drivable width.
func clampLane(x float64, t config.Tuning) float64 {
	limit := t.LaneLimit()
	return mgl64.Clamp(x, -limit, limit)
}
