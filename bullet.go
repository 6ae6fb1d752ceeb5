package main

import (
	"time"

	"github.com/google/uuid"
)

const (
	BulletDamage = 25
	BulletSpeed  = 8.0 // pixels per tick
)

// Bullet is a shell in flight. Velocity is derived once from the firing
// direction; once Active goes false it never comes back.
type Bullet struct {
	ID        string
	PlayerID  string
	X, Y      float64
	VX, VY    float64
	Damage    int
	Active    bool
	CreatedAt time.Time
}

// NewBullet spawns a bullet at (x,y) moving along dir at fixed speed.
func NewBullet(playerID string, x, y float64, dir Direction, now time.Time) *Bullet {
	b := &Bullet{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		X:         x,
		Y:         y,
		Damage:    BulletDamage,
		Active:    true,
		CreatedAt: now,
	}
	switch dir {
	case DirUp:
		b.VY = -BulletSpeed
	case DirRight:
		b.VX = BulletSpeed
	case DirDown:
		b.VY = BulletSpeed
	case DirLeft:
		b.VX = -BulletSpeed
	}
	return b
}

// Update advances the bullet one tick.
func (b *Bullet) Update() {
	b.X += b.VX
	b.Y += b.VY
}

// ToState converts to the wire projection.
func (b *Bullet) ToState() BulletState {
	return BulletState{
		ID:       b.ID,
		PlayerID: b.PlayerID,
		X:        b.X,
		Y:        b.Y,
		VX:       b.VX,
		VY:       b.VY,
		Damage:   b.Damage,
		Active:   b.Active,
	}
}
