package game

import "math"

// Distance returns the planar (x/z) distance between two vehicle centres.
func Distance(x1, z1, x2, z2 float64) float64 {
	dx := x1 - x2
	dz := z1 - z2
	return math.Sqrt(dx*dx + dz*dz)
}

// Collides reports whether the player is closer than radius to any traffic
// vehicle. Height is ignored. Every vehicle is tested, so the result does not
// depend on pool order.
func Collides(p PlayerVehicle, traffic []TrafficVehicle, radius float64) bool {
	hit := false
	for _, car := range traffic {
		if Distance(p.Position.X(), p.Position.Z(), car.Position.X(), car.Position.Z()) < radius {
			hit = true
		}
	}
	return hit
}

// Nearest returns the index of the traffic vehicle closest to the player and
// its distance, or -1 for an empty pool.
func Nearest(p PlayerVehicle, traffic []TrafficVehicle) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, car := range traffic {
		d := Distance(p.Position.X(), p.Position.Z(), car.Position.X(), car.Position.Z())
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
