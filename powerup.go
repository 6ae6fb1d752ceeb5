package main

import (
	"time"

	"github.com/google/uuid"
)

// PowerUpKind is the closed set of collectible buffs. PowerNone is only ever
// a player's active-buff marker, never a world object.
type PowerUpKind string

const (
	PowerSpeed  PowerUpKind = "speed"
	PowerDamage PowerUpKind = "damage"
	PowerHealth PowerUpKind = "health"
	PowerShield PowerUpKind = "shield"
	PowerNone   PowerUpKind = "none"
)

const (
	PowerUpRadius   = 8.0
	PowerUpDuration = 30 * time.Second
)

// PowerUp is a timed collectible. It expires by clock comparison whether or
// not anyone picks it up.
type PowerUp struct {
	ID        string
	X, Y      float64
	Kind      PowerUpKind
	Color     string
	Radius    float64
	Active    bool
	CreatedAt time.Time
	Duration  time.Duration
}

// NewPowerUp creates an active power-up at (x,y) with the fixed lifetime.
func NewPowerUp(x, y float64, kind PowerUpKind, now time.Time) *PowerUp {
	return &PowerUp{
		ID:        uuid.NewString(),
		X:         x,
		Y:         y,
		Kind:      kind,
		Color:     powerUpColor(kind),
		Radius:    PowerUpRadius,
		Active:    true,
		CreatedAt: now,
		Duration:  PowerUpDuration,
	}
}

// Expired reports whether the power-up's lifetime has elapsed at the given
// instant.
func (pu *PowerUp) Expired(now time.Time) bool {
	return now.After(pu.CreatedAt.Add(pu.Duration))
}

func powerUpColor(kind PowerUpKind) string {
	switch kind {
	case PowerSpeed:
		return "#FF6B6B"
	case PowerDamage:
		return "#4ECDC4"
	case PowerHealth:
		return "#45B7D1"
	case PowerShield:
		return "#96CEB4"
	default:
		return "#FFFFFF"
	}
}

// applyPowerUpEffect applies a collected power-up to a player and awards the
// pickup score bonus. Dispatch is exhaustive over the collectible kinds.
func applyPowerUpEffect(p *Player, kind PowerUpKind) {
	switch kind {
	case PowerSpeed:
		p.Speed++
		if p.Speed > PlayerSpeedCap {
			p.Speed = PlayerSpeedCap
		}
	case PowerDamage:
		p.PowerUpLevel++
		p.PowerUpKind = PowerDamage
	case PowerHealth:
		p.Heal(HealthPickupHeal)
	case PowerShield:
		p.PowerUpLevel++
		p.PowerUpKind = PowerShield
	}
	p.AddScore(PickupScoreBonus)
}

// ToState converts to the wire projection.
func (pu *PowerUp) ToState() PowerUpState {
	return PowerUpState{
		ID:     pu.ID,
		X:      pu.X,
		Y:      pu.Y,
		Kind:   string(pu.Kind),
		Color:  pu.Color,
		Radius: pu.Radius,
		Active: pu.Active,
	}
}
