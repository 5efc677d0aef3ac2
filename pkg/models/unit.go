package models

import (
	"github.com/google/uuid"

	"github.com/gravitas-games/hextactics/internal/hex"
)

// Unit represents a combatant standing on the battle map.
type Unit struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Faction Faction   `json:"faction"`
	Pos     hex.Axial `json:"pos"`

	// Vision
	SightRange int `json:"sight_range"`
	SenseBonus int `json:"sense_bonus,omitempty"` // 0 means use the battle default

	// Movement budget for the current turn
	MovePoints    int `json:"move_points"`
	MaxMovePoints int `json:"max_move_points"`

	Alive bool `json:"alive"`
}

// NewUnit creates a live unit with a fresh id and full move points.
func NewUnit(name string, faction Faction, pos hex.Axial, sightRange, movePoints int) *Unit {
	return &Unit{
		ID:            uuid.NewString(),
		Name:          name,
		Faction:       faction,
		Pos:           pos,
		SightRange:    sightRange,
		MovePoints:    movePoints,
		MaxMovePoints: movePoints,
		Alive:         true,
	}
}

// IsAlive checks if the unit is still on the field.
func (u *Unit) IsAlive() bool {
	return u != nil && u.Alive
}

// ResetMovePoints refills the movement budget at the start of the unit's turn.
func (u *Unit) ResetMovePoints() {
	u.MovePoints = u.MaxMovePoints
}

// SenseRange returns sight range plus the unit's sense bonus, or defaultBonus
// when the unit has none of its own.
func (u *Unit) SenseRange(defaultBonus int) int {
	bonus := u.SenseBonus
	if bonus == 0 {
		bonus = defaultBonus
	}
	return u.SightRange + bonus
}
