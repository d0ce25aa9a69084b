package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/race/highway/config"
)

// CameraPitch is the fixed downward tilt of the chase camera, in radians.
const CameraPitch = -0.2

// Camera is the chase camera pose handed to renderers.
type Camera struct {
	Position mgl64.Vec3
	Yaw      float64
	Pitch    float64
}

// ChaseCamera places the camera CameraDistance behind the player along its
// heading, at CameraHeight.
func ChaseCamera(p PlayerVehicle, t config.Tuning) Camera {
	back := mgl64.Vec3{math.Sin(p.Heading), 0, math.Cos(p.Heading)}.Mul(t.CameraDistance)
	pos := p.Position.Sub(back)
	pos[1] = t.CameraHeight
	return Camera{
		Position: pos,
		Yaw:      p.Heading,
		Pitch:    CameraPitch,
	}
}
