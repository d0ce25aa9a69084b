package game

import (
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/race/highway/config"
)

// TrafficVehicle is one car of the traffic pool.
type TrafficVehicle struct {
	Position mgl64.Vec3
	Speed    float64 // forward speed, fixed for the vehicle's lifetime
	Color    uint32  // 0xRRGGBB, only meaningful to renderers
}

// Spawner is the single source of randomness of a session.
type Spawner struct {
	rng *rand.Rand
}

// NewSpawner returns a spawner seeded with seed, or from the clock when seed is 0.
func NewSpawner(seed uint64) *Spawner {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Spawner{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Lane draws a lateral position uniformly across the drivable width.
func (s *Spawner) Lane(t config.Tuning) float64 {
	limit := t.LaneLimit()
	return (s.rng.Float64()*2 - 1) * limit
}

// Vehicle draws a fresh traffic vehicle somewhere on the near half of the road.
func (s *Spawner) Vehicle(t config.Tuning) TrafficVehicle {
	return TrafficVehicle{
		Position: mgl64.Vec3{s.Lane(t), t.RideHeight, -s.rng.Float64() * t.RoadLength},
		Speed:    t.TrafficMinSpeed + s.rng.Float64()*t.TrafficSpeedRange,
		Color:    uint32(s.rng.IntN(0x1000000)),
	}
}

// Traffic spawns a full pool of t.TrafficCount vehicles.
func (s *Spawner) Traffic(t config.Tuning) []TrafficVehicle {
	pool := make([]TrafficVehicle, t.TrafficCount)
	for i := range pool {
		pool[i] = s.Vehicle(t)
	}
	return pool
}

// AdvanceTraffic moves every vehicle forward one tick into a new slice and
// recycles those that pass the far end of the road back to the near end with
// a new lane. Speed and colour survive a recycle. It returns the number of
// recycled vehicles.
func AdvanceTraffic(pool []TrafficVehicle, t config.Tuning, s *Spawner) ([]TrafficVehicle, int) {
	next := make([]TrafficVehicle, len(pool))
	recycled := 0
	for i, car := range pool {
		car.Position[2] += car.Speed * t.MoveScale
		car.Position[0] = clampLane(car.Position[0], t)

		if car.Position[2] > t.RoadLength {
			car.Position[2] = -t.RoadLength
			car.Position[0] = s.Lane(t)
			recycled++
		}
		next[i] = car
	}
	return next, recycled
}
