package main

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Direction is a tank's facing, one of the four cardinals.
type Direction int

const (
	DirUp Direction = iota
	DirRight
	DirDown
	DirLeft
)

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	return d >= DirUp && d <= DirLeft
}

const (
	PlayerMaxHealth  = 100
	PlayerBaseSpeed  = 3.0
	PlayerSpeedCap   = 6.0
	KillScoreBonus   = 100
	PickupScoreBonus = 10
	HealthPickupHeal = 50
)

var playerColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FECA57", "#FF9FF3", "#54A0FF", "#5F27CD",
}

// Player is a tank in a room. All fields are guarded by the owning room's
// lock; Player itself is not safe for concurrent use.
type Player struct {
	ID           string
	Name         string
	X, Y         float64
	Direction    Direction
	Health       int
	MaxHealth    int
	Score        int
	Kills        int
	Deaths       int
	Color        string
	Speed        float64
	Alive        bool
	LastActive   time.Time
	PowerUpLevel int
	PowerUpKind  PowerUpKind
}

// NewPlayer creates a full-health player at the given position.
func NewPlayer(name string, x, y float64) *Player {
	return &Player{
		ID:          uuid.NewString(),
		Name:        name,
		X:           x,
		Y:           y,
		Direction:   DirUp,
		Health:      PlayerMaxHealth,
		MaxHealth:   PlayerMaxHealth,
		Color:       playerColors[rand.IntN(len(playerColors))],
		Speed:       PlayerBaseSpeed,
		Alive:       true,
		LastActive:  time.Now(),
		PowerUpKind: PowerNone,
	}
}

// TakeDamage reduces health, clamped at zero, and returns true if this hit
// killed the player. A death increments the player's death count.
func (p *Player) TakeDamage(damage int) bool {
	if !p.Alive {
		return false
	}
	p.Health -= damage
	if p.Health <= 0 {
		p.Health = 0
		p.Alive = false
		p.Deaths++
		return true
	}
	return false
}

// Heal restores health up to MaxHealth.
func (p *Player) Heal(amount int) {
	p.Health += amount
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
}

// AddKill credits a kill and the fixed score bonus.
func (p *Player) AddKill() {
	p.Kills++
	p.Score += KillScoreBonus
}

// AddScore adds points to the running score.
func (p *Player) AddScore(points int) {
	p.Score += points
}

// MoveTo applies an accepted movement: position and facing change together,
// and the activity timestamp refreshes.
func (p *Player) MoveTo(x, y float64, dir Direction) {
	p.X = x
	p.Y = y
	p.Direction = dir
	p.LastActive = time.Now()
}

// Respawn revives the player at the given position with full health.
// Score, kills and deaths carry over.
func (p *Player) Respawn(x, y float64) {
	p.X = x
	p.Y = y
	p.Health = p.MaxHealth
	p.Alive = true
	p.Direction = DirUp
}

// ToState converts to the wire projection.
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:           p.ID,
		Name:         p.Name,
		X:            p.X,
		Y:            p.Y,
		Direction:    int(p.Direction),
		Health:       p.Health,
		MaxHealth:    p.MaxHealth,
		Score:        p.Score,
		Kills:        p.Kills,
		Deaths:       p.Deaths,
		Color:        p.Color,
		Speed:        p.Speed,
		Alive:        p.Alive,
		PowerUpLevel: p.PowerUpLevel,
		PowerUpType:  string(p.PowerUpKind),
	}
}
