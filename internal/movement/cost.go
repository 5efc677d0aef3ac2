// Package movement prices single steps across the battle map.
package movement

import (
	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/internal/terrain"
	"github.com/gravitas-games/hextactics/pkg/models"
)

// DefaultZOCPenalty is added to every step taken from a tile adjacent to a hostile unit.
const DefaultZOCPenalty = 1

// Occupants looks up the unit standing on a coordinate.
type Occupants interface {
	TryGetOccupantAt(a hex.Axial) (*models.Unit, bool)
}

// Calculator combines terrain, occupancy and zone of control into step costs.
type Calculator struct {
	Tiles      *terrain.Map
	Units      Occupants
	Relation   models.Relation
	ZOCPenalty int
}

// NewCalculator creates a calculator with the default zone-of-control penalty.
// A nil relation uses models.DefaultRelation.
func NewCalculator(tiles *terrain.Map, units Occupants, rel models.Relation) *Calculator {
	if rel == nil {
		rel = models.DefaultRelation
	}
	return &Calculator{
		Tiles:      tiles,
		Units:      units,
		Relation:   rel,
		ZOCPenalty: DefaultZOCPenalty,
	}
}

// Cost returns the price of mover stepping from one tile onto an adjacent
// one. ok is false when the step is impassable: off-map, unwalkable terrain,
// or a hostile unit on the destination. Friendly units never block here.
func (c *Calculator) Cost(from, to hex.Axial, mover *models.Unit) (cost int, ok bool) {
	tile := c.Tiles.Get(to)
	if tile == nil || !tile.Walkable() {
		return 0, false
	}
	cost = tile.Terrain.BaseCost()

	if occ, found := c.Units.TryGetOccupantAt(to); found && c.hostile(mover, occ) {
		return 0, false
	}

	if c.HasHostileNeighbor(from, mover) {
		cost += c.ZOCPenalty
	}
	return cost, true
}

// HasHostileNeighbor reports whether a unit hostile to mover stands next to a.
func (c *Calculator) HasHostileNeighbor(a hex.Axial, mover *models.Unit) bool {
	for _, n := range a.Neighbors() {
		if occ, found := c.Units.TryGetOccupantAt(n); found && c.hostile(mover, occ) {
			return true
		}
	}
	return false
}

func (c *Calculator) hostile(mover, other *models.Unit) bool {
	if mover == nil || other == nil || mover.ID == other.ID {
		return false
	}
	return c.Relation(mover.Faction, other.Faction)
}
