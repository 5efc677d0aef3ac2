package path

import (
	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/internal/movement"
	"github.com/gravitas-games/hextactics/internal/terrain"
	"github.com/gravitas-games/hextactics/pkg/models"
)

// BattlePolicy prices steps with terrain, occupancy and zone of control for one mover.
type BattlePolicy struct {
	Calc  *movement.Calculator
	Mover *models.Unit
}

// Passable reports whether the goal tile exists and is walkable terrain.
// Occupancy is left to Cost.
func (p BattlePolicy) Passable(a hex.Axial) bool {
	t := p.Calc.Tiles.Get(a)
	return t != nil && t.Walkable()
}

// Cost delegates to the movement calculator.
func (p BattlePolicy) Cost(from, to hex.Axial) (int, bool) {
	return p.Calc.Cost(from, to, p.Mover)
}

// OpenWorldPolicy blocks obstacles and flooded tiles; every other step costs 1.
type OpenWorldPolicy struct {
	Tiles *terrain.Map
}

// Passable reports whether a tile can be entered outside battle.
func (p OpenWorldPolicy) Passable(a hex.Axial) bool {
	t := p.Tiles.Get(a)
	return t != nil && t.Walkable() && !t.Flooded
}

// Cost is uniform.
func (p OpenWorldPolicy) Cost(_, to hex.Axial) (int, bool) {
	if !p.Passable(to) {
		return 0, false
	}
	return 1, true
}
