package game

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/race/highway/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func farTraffic(n int) []TrafficVehicle {
	pool := make([]TrafficVehicle, n)
	for i := range pool {
		pool[i] = TrafficVehicle{Position: mgl64.Vec3{0, 0.25, -500 - float64(i)*10}, Speed: 2}
	}
	return pool
}

func TestNewState(t *testing.T) {
	tuning := config.DefaultTuning()
	st := NewState(tuning, NewSpawner(1))

	assert.Zero(t, st.Tick)
	assert.Equal(t, NewPlayerVehicle(tuning), st.Player)
	assert.Len(t, st.Traffic, tuning.TrafficCount)
	assert.Zero(t, st.Road.Offset)
}

func TestStep_DoesNotMutatePrev(t *testing.T) {
	tuning := config.DefaultTuning()
	prev := State{Player: NewPlayerVehicle(tuning), Traffic: farTraffic(3)}
	before := prev.Clone()

	next, _ := Step(prev, InputState{Down: true, Left: true}, tuning, NewSpawner(1))

	assert.Equal(t, before, prev)
	assert.Equal(t, uint64(1), next.Tick)
	assert.NotEqual(t, prev.Traffic[0].Position, next.Traffic[0].Position)
}

func TestStep_AdvancesEverything(t *testing.T) {
	tuning := config.DefaultTuning()
	prev := State{Player: NewPlayerVehicle(tuning), Traffic: farTraffic(2)}

	next, report := Step(prev, InputState{Down: true}, tuning, NewSpawner(1))

	assert.False(t, report.Collided)
	assert.Equal(t, 0.5, next.Player.Speed)
	assert.InDelta(t, 0.05, next.Player.Position.Z(), 1e-12)
	assert.InDelta(t, -499.8, next.Traffic[0].Position.Z(), 1e-9)
	assert.InDelta(t, 0.05, next.Road.Offset, 1e-12)
}

func TestStep_CollisionResets(t *testing.T) {
	tuning := config.DefaultTuning()
	prev := State{
		Tick: 41,
		Player: PlayerVehicle{
			Position: mgl64.Vec3{3, tuning.RideHeight, 20},
			Heading:  0.7,
			Speed:    10,
		},
		Traffic: []TrafficVehicle{{Position: mgl64.Vec3{3.5, 0.25, 21}, Speed: 2}},
		Road:    RoadState{Offset: 42},
	}

	next, report := Step(prev, InputState{}, tuning, NewSpawner(1))

	require.True(t, report.Collided)
	assert.Equal(t, uint64(42), next.Tick)
	assert.Equal(t, NewPlayerVehicle(tuning), next.Player)
	assert.Equal(t, 42.0, next.Road.Offset, "road offset survives a reset")

	require.Len(t, next.Traffic, tuning.TrafficCount)
	for _, car := range next.Traffic {
		assert.LessOrEqual(t, math.Abs(car.Position.X()), tuning.LaneLimit())
		assert.GreaterOrEqual(t, car.Position.Z(), -tuning.RoadLength)
		assert.LessOrEqual(t, car.Position.Z(), (tuning.TrafficMinSpeed+tuning.TrafficSpeedRange)*tuning.MoveScale)
		assert.NotZero(t, car.Position.Z(), "respawned pool is advanced once")
	}
}

func TestStep_CollidesAgainstPoolBeforeAdvance(t *testing.T) {
	tuning := config.DefaultTuning()
	prev := State{
		Player:  NewPlayerVehicle(tuning),
		Traffic: []TrafficVehicle{{Position: mgl64.Vec3{0, 0.25, -2.6}, Speed: 2}},
	}

	next, report := Step(prev, InputState{}, tuning, NewSpawner(1))
	assert.False(t, report.Collided, "car was 2.6 away before it moved")
	assert.InDelta(t, -2.4, next.Traffic[0].Position.Z(), 1e-9)

	_, report = Step(next, InputState{}, tuning, NewSpawner(1))
	assert.True(t, report.Collided)
}

func TestStep_SameSeedSameRun(t *testing.T) {
	tuning := config.DefaultTuning()

	run := func() State {
		s := NewSpawner(1234)
		st := NewState(tuning, s)
		rng := rand.New(rand.NewPCG(1, 2))
		for i := 0; i < 2000; i++ {
			st, _ = Step(st, InputFromBits(uint8(rng.IntN(16))), tuning, s)
		}
		return st
	}

	assert.Equal(t, run(), run())
}

func TestStep_InvariantsUnderRandomInput(t *testing.T) {
	tuning := config.DefaultTuning()
	s := NewSpawner(77)
	st := NewState(tuning, s)
	rng := rand.New(rand.NewPCG(3, 4))

	collisions := 0
	for i := 0; i < 20000; i++ {
		var report TickReport
		st, report = Step(st, InputFromBits(uint8(rng.IntN(16))), tuning, s)
		if report.Collided {
			collisions++
		}

		require.Equal(t, uint64(i+1), st.Tick)
		require.LessOrEqual(t, math.Abs(st.Player.Position.X()), tuning.LaneLimit())
		require.LessOrEqual(t, st.Player.Speed, tuning.MaxSpeed)
		require.GreaterOrEqual(t, st.Player.Speed, -tuning.MaxSpeed/2)
		require.LessOrEqual(t, math.Abs(st.Road.Offset), tuning.RoadLength)
		require.Len(t, st.Traffic, tuning.TrafficCount)
		for _, car := range st.Traffic {
			require.LessOrEqual(t, car.Position.Z(), tuning.RoadLength)
			require.LessOrEqual(t, math.Abs(car.Position.X()), tuning.LaneLimit())
		}
	}
	t.Logf("%d collisions", collisions)
}

func TestNewFrame_IsACopy(t *testing.T) {
	tuning := config.DefaultTuning()
	st := State{Tick: 5, Player: NewPlayerVehicle(tuning), Traffic: farTraffic(2), Road: RoadState{Offset: 7}}

	f := NewFrame(st, tuning, 0xABCDEF)
	f.Traffic[0].Position[2] = 999

	assert.Equal(t, -500.0, st.Traffic[0].Position.Z())
	assert.Equal(t, uint64(5), f.Tick)
	assert.Equal(t, 7.0, f.Road.Offset)
	assert.Equal(t, uint32(0xABCDEF), f.Backdrop)
	assert.Equal(t, ChaseCamera(st.Player, tuning), f.Camera)
}
