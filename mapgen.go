package main

import (
	"math/rand/v2"
	"time"
)

const (
	boundaryThickness = 20.0
	randomObstacles   = 10
	initialPowerUps   = 5
)

var collectibleKinds = []PowerUpKind{PowerSpeed, PowerDamage, PowerHealth, PowerShield}
var obstacleKinds = []ObstacleKind{ObstacleWall, ObstacleBrick, ObstacleSteel}

// generateObstacles builds the classic map layout: boundary walls, a brick
// cross in the center, steel blocks in the corners, and a handful of random
// boxes.
func generateObstacles(mapWidth, mapHeight float64) []*Obstacle {
	obstacles := []*Obstacle{
		// Boundary walls
		NewObstacle(0, 0, mapWidth, boundaryThickness, ObstacleWall),
		NewObstacle(0, mapHeight-boundaryThickness, mapWidth, boundaryThickness, ObstacleWall),
		NewObstacle(0, 0, boundaryThickness, mapHeight, ObstacleWall),
		NewObstacle(mapWidth-boundaryThickness, 0, boundaryThickness, mapHeight, ObstacleWall),

		// Central brick cross
		NewObstacle(350, 200, 100, 20, ObstacleBrick),
		NewObstacle(350, 380, 100, 20, ObstacleBrick),
		NewObstacle(350, 200, 20, 200, ObstacleBrick),
		NewObstacle(430, 200, 20, 200, ObstacleBrick),

		// Corner steel blocks
		NewObstacle(100, 100, 40, 40, ObstacleSteel),
		NewObstacle(660, 100, 40, 40, ObstacleSteel),
		NewObstacle(100, 460, 40, 40, ObstacleSteel),
		NewObstacle(660, 460, 40, 40, ObstacleSteel),
	}

	for i := 0; i < randomObstacles; i++ {
		x := SpawnMargin + rand.Float64()*(mapWidth-2*SpawnMargin)
		y := SpawnMargin + rand.Float64()*(mapHeight-2*SpawnMargin)
		w := 30 + rand.Float64()*20
		h := 30 + rand.Float64()*20
		kind := obstacleKinds[rand.IntN(len(obstacleKinds))]
		obstacles = append(obstacles, NewObstacle(x, y, w, h, kind))
	}
	return obstacles
}

// generatePowerUps scatters the initial set of collectibles inside the
// margin.
func generatePowerUps(mapWidth, mapHeight float64, now time.Time) []*PowerUp {
	powerUps := make([]*PowerUp, 0, initialPowerUps)
	for i := 0; i < initialPowerUps; i++ {
		x := SpawnMargin + rand.Float64()*(mapWidth-2*SpawnMargin)
		y := SpawnMargin + rand.Float64()*(mapHeight-2*SpawnMargin)
		kind := collectibleKinds[rand.IntN(len(collectibleKinds))]
		powerUps = append(powerUps, NewPowerUp(x, y, kind, now))
	}
	return powerUps
}

// generateBases places one base per team on opposite sides of the map,
// vertically centered.
func generateBases(mapWidth, mapHeight float64) []*Base {
	return []*Base{
		NewBase("red", "Red Team", SpawnMargin, mapHeight/2-BaseHeight/2),
		NewBase("blue", "Blue Team", mapWidth-SpawnMargin-BaseWidth, mapHeight/2-BaseHeight/2),
	}
}
