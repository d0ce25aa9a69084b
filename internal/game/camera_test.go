package game

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/race/highway/config"
	"github.com/stretchr/testify/assert"
)

func TestChaseCamera(t *testing.T) {
	tuning := config.DefaultTuning()

	cam := ChaseCamera(NewPlayerVehicle(tuning), tuning)
	assert.True(t, cam.Position.ApproxEqual(mgl64.Vec3{0, tuning.CameraHeight, -tuning.CameraDistance}))
	assert.Zero(t, cam.Yaw)
	assert.Equal(t, CameraPitch, cam.Pitch)

	p := PlayerVehicle{Position: mgl64.Vec3{2, tuning.RideHeight, 10}, Heading: math.Pi / 2}
	cam = ChaseCamera(p, tuning)
	assert.InDelta(t, 2-tuning.CameraDistance, cam.Position.X(), 1e-9)
	assert.InDelta(t, tuning.CameraHeight, cam.Position.Y(), 1e-9)
	assert.InDelta(t, 10, cam.Position.Z(), 1e-9)
	assert.Equal(t, math.Pi/2, cam.Yaw)
}
