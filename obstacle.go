package main

// ObstacleKind is the closed set of obstacle materials.
type ObstacleKind string

const (
	ObstacleWall  ObstacleKind = "wall"
	ObstacleBrick ObstacleKind = "brick"
	ObstacleSteel ObstacleKind = "steel"
)

// Obstacle is a static axis-aligned box on the map. Destructibility follows
// from the material alone: only brick can be destroyed.
type Obstacle struct {
	X, Y          float64
	Width, Height float64
	Kind          ObstacleKind
	Health        int
	Destructible  bool
}

// NewObstacle creates an obstacle with material-determined health and
// destructibility.
func NewObstacle(x, y, width, height float64, kind ObstacleKind) *Obstacle {
	o := &Obstacle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
		Kind:   kind,
	}
	switch kind {
	case ObstacleBrick:
		o.Health = 50
		o.Destructible = true
	case ObstacleSteel:
		o.Health = 200
	case ObstacleWall:
		o.Health = 100
	default:
		o.Kind = ObstacleWall
		o.Health = 100
	}
	return o
}

// TakeDamage reduces health, clamped at zero. Indestructible materials
// ignore damage entirely.
func (o *Obstacle) TakeDamage(damage int) {
	if !o.Destructible {
		return
	}
	o.Health -= damage
	if o.Health < 0 {
		o.Health = 0
	}
}

// Destroyed reports whether the obstacle should be removed from the map.
func (o *Obstacle) Destroyed() bool {
	return o.Destructible && o.Health <= 0
}

// ToState converts to the wire projection.
func (o *Obstacle) ToState() ObstacleState {
	return ObstacleState{
		X:            o.X,
		Y:            o.Y,
		Width:        o.Width,
		Height:       o.Height,
		Kind:         string(o.Kind),
		Health:       o.Health,
		Destructible: o.Destructible,
	}
}
