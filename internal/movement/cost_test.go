package movement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/internal/occupancy"
	"github.com/gravitas-games/hextactics/internal/terrain"
	"github.com/gravitas-games/hextactics/pkg/models"
)

type fixture struct {
	tiles *terrain.Map
	units *occupancy.Index
	calc  *Calculator
	mover *models.Unit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tiles := terrain.NewDisk(4, terrain.Ground)
	units := occupancy.New(nil)
	mover := &models.Unit{ID: "hero", Faction: models.FactionPlayer, Alive: true}
	require.NoError(t, units.Register(mover))
	return &fixture{
		tiles: tiles,
		units: units,
		calc:  NewCalculator(tiles, units, nil),
		mover: mover,
	}
}

func (f *fixture) place(t *testing.T, id string, faction models.Faction, a hex.Axial) *models.Unit {
	t.Helper()
	u := &models.Unit{ID: id, Faction: faction, Pos: a, Alive: true}
	require.NoError(t, f.units.Register(u))
	return u
}

func TestGroundStepCostsOne(t *testing.T) {
	f := newFixture(t)
	for _, n := range (hex.Axial{}).Neighbors() {
		cost, ok := f.calc.Cost(hex.Axial{}, n, f.mover)
		require.True(t, ok)
		assert.Equal(t, 1, cost)
	}
}

func TestSwampStepCostsTwo(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tiles.SetTerrain(hex.Axial{Q: 1}, terrain.Swamp))

	cost, ok := f.calc.Cost(hex.Axial{}, hex.Axial{Q: 1}, f.mover)
	require.True(t, ok)
	assert.Equal(t, 2, cost)
}

func TestImpassableTerrainAndOffMap(t *testing.T) {
	f := newFixture(t)
	for _, tt := range []terrain.Terrain{terrain.Obstacle, terrain.Wall, terrain.Pit} {
		require.NoError(t, f.tiles.SetTerrain(hex.Axial{Q: 1}, tt))
		_, ok := f.calc.Cost(hex.Axial{}, hex.Axial{Q: 1}, f.mover)
		assert.False(t, ok, "%s should be impassable", tt)
	}

	_, ok := f.calc.Cost(hex.Axial{Q: 4}, hex.Axial{Q: 5}, f.mover)
	assert.False(t, ok, "off-map tile should be impassable")
}

func TestZOCPenaltyPerStep(t *testing.T) {
	f := newFixture(t)
	f.place(t, "orc", models.FactionEnemy, hex.Axial{Q: -1, R: 1})

	require.True(t, f.calc.HasHostileNeighbor(hex.Axial{}, f.mover))

	// Every edge leaving a ZOC tile pays the penalty.
	for _, n := range (hex.Axial{}).Neighbors() {
		if n == (hex.Axial{Q: -1, R: 1}) {
			continue
		}
		cost, ok := f.calc.Cost(hex.Axial{}, n, f.mover)
		require.True(t, ok)
		assert.Equal(t, 2, cost, "step to %s", n)
	}

	// Swamp from a ZOC tile: base 2 + penalty 1.
	require.NoError(t, f.tiles.SetTerrain(hex.Axial{Q: 1}, terrain.Swamp))
	cost, ok := f.calc.Cost(hex.Axial{}, hex.Axial{Q: 1}, f.mover)
	require.True(t, ok)
	assert.Equal(t, 3, cost)

	// Leaving a tile with no hostile neighbour is unpenalised.
	cost, ok = f.calc.Cost(hex.Axial{Q: 2}, hex.Axial{Q: 3}, f.mover)
	require.True(t, ok)
	assert.Equal(t, 1, cost)
}

func TestHostileOccupantBlocks(t *testing.T) {
	f := newFixture(t)
	f.place(t, "orc", models.FactionEnemy, hex.Axial{Q: 1})
	require.NoError(t, f.tiles.SetTerrain(hex.Axial{Q: 1}, terrain.Swamp))

	_, ok := f.calc.Cost(hex.Axial{}, hex.Axial{Q: 1}, f.mover)
	assert.False(t, ok)
}

func TestFriendlyAndNeutralDoNotBlock(t *testing.T) {
	f := newFixture(t)
	f.place(t, "ally", models.FactionPlayer, hex.Axial{Q: 1})
	f.place(t, "merchant", models.FactionNeutral, hex.Axial{R: 1})

	cost, ok := f.calc.Cost(hex.Axial{}, hex.Axial{Q: 1}, f.mover)
	require.True(t, ok)
	assert.Equal(t, 1, cost)

	cost, ok = f.calc.Cost(hex.Axial{}, hex.Axial{R: 1}, f.mover)
	require.True(t, ok)
	assert.Equal(t, 1, cost)
	assert.False(t, f.calc.HasHostileNeighbor(hex.Axial{}, f.mover))
}

func TestCustomRelation(t *testing.T) {
	f := newFixture(t)
	f.place(t, "ally", models.FactionPlayer, hex.Axial{Q: 1})
	f.calc.Relation = func(a, b models.Faction) bool { return true }

	_, ok := f.calc.Cost(hex.Axial{}, hex.Axial{Q: 1}, f.mover)
	assert.False(t, ok, "relation marks everybody hostile")
}
