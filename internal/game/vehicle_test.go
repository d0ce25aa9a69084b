package game

import (
	"math"
	"testing"

	"github.com/race/highway/config"
	"github.com/stretchr/testify/assert"
)

func TestNewPlayerVehicle(t *testing.T) {
	p := NewPlayerVehicle(config.DefaultTuning())

	assert.Equal(t, 0.0, p.Position.X())
	assert.Equal(t, 0.25, p.Position.Y())
	assert.Equal(t, 0.0, p.Position.Z())
	assert.Zero(t, p.Heading)
	assert.Zero(t, p.Speed)
}

func TestDrive_CoastUsesDecayedSpeed(t *testing.T) {
	tuning := config.DefaultTuning()
	p := NewPlayerVehicle(tuning)
	p.Speed = 10

	p = Drive(p, InputState{}, tuning)

	assert.InDelta(t, 9.5, p.Speed, 1e-9)
	assert.InDelta(t, 0.95, p.Position.Z(), 1e-9)
	assert.InDelta(t, 0.0, p.Position.X(), 1e-9)
}

func TestDrive_FrictionDecaysWithoutSignChange(t *testing.T) {
	tuning := config.DefaultTuning()

	for _, start := range []float64{50, 3.3, -25, -0.01} {
		p := NewPlayerVehicle(tuning)
		p.Speed = start

		for i := 0; i < 500; i++ {
			prev := p.Speed
			p = Drive(p, InputState{}, tuning)

			assert.InDelta(t, math.Abs(prev)*tuning.Friction, math.Abs(p.Speed), 1e-12)
			assert.Equal(t, math.Signbit(start), math.Signbit(p.Speed), "speed changed sign from %v", start)
		}
	}
}

func TestDrive_DownAcceleratesToMax(t *testing.T) {
	tuning := config.DefaultTuning()
	p := NewPlayerVehicle(tuning)

	p = Drive(p, InputState{Down: true}, tuning)
	assert.InDelta(t, tuning.Acceleration, p.Speed, 1e-12)

	for i := 0; i < 200; i++ {
		p = Drive(p, InputState{Down: true}, tuning)
	}
	assert.Equal(t, tuning.MaxSpeed, p.Speed)
}

func TestDrive_UpBrakesToHalfReverse(t *testing.T) {
	tuning := config.DefaultTuning()
	p := NewPlayerVehicle(tuning)
	p.Speed = 1

	p = Drive(p, InputState{Up: true}, tuning)
	assert.InDelta(t, 1-tuning.BrakePower, p.Speed, 1e-12)

	for i := 0; i < 200; i++ {
		p = Drive(p, InputState{Up: true}, tuning)
	}
	assert.Equal(t, -tuning.MaxSpeed/2, p.Speed)
	assert.Less(t, p.Position.Z(), 0.0, "reverse moves backwards")
}

func TestDrive_DownWinsOverUp(t *testing.T) {
	tuning := config.DefaultTuning()
	p := Drive(NewPlayerVehicle(tuning), InputState{Up: true, Down: true}, tuning)
	assert.InDelta(t, tuning.Acceleration, p.Speed, 1e-12)
}

func TestDrive_Steering(t *testing.T) {
	tuning := config.DefaultTuning()

	tests := []struct {
		name string
		in   InputState
		want float64
	}{
		{"left", InputState{Left: true}, tuning.TurnSpeed},
		{"right", InputState{Right: true}, -tuning.TurnSpeed},
		{"both favours left", InputState{Left: true, Right: true}, tuning.TurnSpeed},
		{"none", InputState{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Drive(NewPlayerVehicle(tuning), tt.in, tuning)
			assert.InDelta(t, tt.want, p.Heading, 1e-12)
		})
	}
}

func TestDrive_MovesAlongNewHeading(t *testing.T) {
	tuning := config.DefaultTuning()
	p := NewPlayerVehicle(tuning)
	p.Speed = 20

	p = Drive(p, InputState{Left: true}, tuning)

	move := 20 * tuning.Friction * tuning.MoveScale
	assert.InDelta(t, math.Sin(tuning.TurnSpeed)*move, p.Position.X(), 1e-9)
	assert.InDelta(t, math.Cos(tuning.TurnSpeed)*move, p.Position.Z(), 1e-9)
}

func TestDrive_ClampsToRoad(t *testing.T) {
	tuning := config.DefaultTuning()
	limit := tuning.LaneLimit()

	p := NewPlayerVehicle(tuning)
	p.Heading = math.Pi / 2
	p.Speed = tuning.MaxSpeed
	for i := 0; i < 100; i++ {
		p = Drive(p, InputState{Down: true}, tuning)
		assert.LessOrEqual(t, math.Abs(p.Position.X()), limit)
	}
	assert.Equal(t, limit, p.Position.X())

	p.Heading = -math.Pi / 2
	for i := 0; i < 100; i++ {
		p = Drive(p, InputState{Down: true}, tuning)
	}
	assert.Equal(t, -limit, p.Position.X())
}
