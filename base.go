package main

import (
	"hash/fnv"

	"github.com/google/uuid"
)

const (
	BaseWidth     = 60.0
	BaseHeight    = 60.0
	BaseMaxHealth = 1000
)

var teamColors = []string{"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4"}

// Base is a team objective box. Unlike a player it has no alive/dead state
// machine beyond the destroyed flag, which repair can clear.
type Base struct {
	ID            string
	TeamID        string
	TeamName      string
	X, Y          float64
	Width, Height float64
	Health        int
	MaxHealth     int
	Destroyed     bool
	Color         string
}

// NewBase creates a full-health base for the given team.
func NewBase(teamID, teamName string, x, y float64) *Base {
	return &Base{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		TeamName:  teamName,
		X:         x,
		Y:         y,
		Width:     BaseWidth,
		Height:    BaseHeight,
		Health:    BaseMaxHealth,
		MaxHealth: BaseMaxHealth,
		Color:     teamColor(teamID),
	}
}

func teamColor(teamID string) string {
	h := fnv.New32a()
	h.Write([]byte(teamID))
	return teamColors[h.Sum32()%uint32(len(teamColors))]
}

// TakeDamage reduces health, clamped at zero, and marks the base destroyed
// when it reaches zero.
func (b *Base) TakeDamage(damage int) {
	b.Health -= damage
	if b.Health <= 0 {
		b.Health = 0
		b.Destroyed = true
	}
}

// Repair restores health up to MaxHealth; a repaired base is no longer
// destroyed.
func (b *Base) Repair(amount int) {
	b.Health += amount
	if b.Health > b.MaxHealth {
		b.Health = b.MaxHealth
	}
	if b.Health > 0 {
		b.Destroyed = false
	}
}

// HealthPercent returns remaining health as a fraction of maximum.
func (b *Base) HealthPercent() float64 {
	return float64(b.Health) / float64(b.MaxHealth)
}

// ToState converts to the wire projection.
func (b *Base) ToState() BaseState {
	return BaseState{
		ID:        b.ID,
		TeamID:    b.TeamID,
		TeamName:  b.TeamName,
		X:         b.X,
		Y:         b.Y,
		Width:     b.Width,
		Height:    b.Height,
		Health:    b.Health,
		MaxHealth: b.MaxHealth,
		Destroyed: b.Destroyed,
		Color:     b.Color,
	}
}
