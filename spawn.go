package main

import "math/rand/v2"

const (
	SpawnMargin      = 50.0
	spawnMaxAttempts = 100
)

// SpawnPoint picks a coordinate where a tank-sized probe collides with
// neither an alive player nor an obstacle. It samples uniformly within the
// margin and gives up after a bounded number of attempts, falling back to
// the near-margin default so a join or respawn never fails. The fallback may
// overlap something; callers accept that over non-termination.
func SpawnPoint(mapWidth, mapHeight float64, players []*Player, obstacles []*Obstacle) (float64, float64) {
	for i := 0; i < spawnMaxAttempts; i++ {
		x := SpawnMargin + rand.Float64()*(mapWidth-2*SpawnMargin)
		y := SpawnMargin + rand.Float64()*(mapHeight-2*SpawnMargin)
		if !spawnBlocked(x, y, players, obstacles) {
			return x, y
		}
	}
	return SpawnMargin, SpawnMargin
}

func spawnBlocked(x, y float64, players []*Player, obstacles []*Obstacle) bool {
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if Overlaps(x, y, TankProbe, p.X, p.Y, TankProbe, TankProbe) {
			return true
		}
	}
	return collidesObstacles(x, y, TankProbe, obstacles)
}

func collidesObstacles(x, y, probe float64, obstacles []*Obstacle) bool {
	for _, o := range obstacles {
		if Overlaps(x, y, probe, o.X, o.Y, o.Width, o.Height) {
			return true
		}
	}
	return false
}
