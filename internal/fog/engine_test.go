package fog

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/internal/occupancy"
	"github.com/gravitas-games/hextactics/internal/terrain"
	"github.com/gravitas-games/hextactics/pkg/models"
)

type detection struct {
	id string
	at hex.Axial
}

type harness struct {
	tiles    *terrain.Map
	units    *occupancy.Index
	engine   *Engine
	detected []detection
}

func newHarness(t *testing.T, radius int, opts Options) *harness {
	t.Helper()
	h := &harness{
		tiles: terrain.NewDisk(radius, terrain.Ground),
		units: occupancy.New(nil),
	}
	opts.Side = models.FactionPlayer
	opts.OnDetect = func(u *models.Unit, at hex.Axial) {
		h.detected = append(h.detected, detection{u.ID, at})
	}
	h.engine = New(h.tiles, h.units, opts, nil)
	return h
}

func (h *harness) add(t *testing.T, id string, f models.Faction, a hex.Axial, sight int) *models.Unit {
	t.Helper()
	u := &models.Unit{ID: id, Faction: f, Pos: a, SightRange: sight, Alive: true}
	require.NoError(t, h.units.Register(u))
	return u
}

func (h *harness) move(u *models.Unit, to hex.Axial) hex.Axial {
	from := u.Pos
	u.Pos = to
	h.units.HandleMoveCompleted(u, from, to)
	return from
}

func TestNothingVisibleBeforeRefresh(t *testing.T) {
	h := newHarness(t, 3, Options{})
	h.add(t, "scout", models.FactionPlayer, hex.Axial{}, 2)
	assert.False(t, h.engine.IsVisible(hex.Axial{}))
	assert.False(t, h.engine.IsExplored(hex.Axial{}))
	assert.Equal(t, terrain.FogUnknown, h.engine.State(hex.Axial{}))
}

func TestSightRadiusOnOpenMap(t *testing.T) {
	h := newHarness(t, 10, Options{})
	h.add(t, "scout", models.FactionPlayer, hex.Axial{}, 6)
	h.engine.Refresh()

	h.tiles.Each(func(tile *terrain.Tile) {
		within := hex.DistanceAxial(hex.Axial{}, tile.Coord) <= 6
		assert.Equal(t, within, h.engine.IsVisible(tile.Coord), "tile %s", tile.Coord)
		if within {
			assert.Equal(t, terrain.FogVisible, tile.Fog)
		} else {
			assert.Equal(t, terrain.FogUnknown, tile.Fog)
		}
	})
	assert.Len(t, h.engine.Snapshot().Visible, hex.DiskSize(6))
}

func TestGhostAfterMovingAway(t *testing.T) {
	h := newHarness(t, 10, Options{})
	scout := h.add(t, "scout", models.FactionPlayer, hex.Axial{Q: -5}, 2)
	h.engine.Refresh()
	require.True(t, h.engine.IsVisible(hex.Axial{Q: -6}))

	h.move(scout, hex.Axial{Q: 5})
	h.engine.Refresh()

	assert.False(t, h.engine.IsVisible(hex.Axial{Q: -6}))
	assert.True(t, h.engine.IsExplored(hex.Axial{Q: -6}))
	assert.Equal(t, terrain.FogGhost, h.engine.State(hex.Axial{Q: -6}))
	assert.Equal(t, terrain.FogGhost, h.tiles.Get(hex.Axial{Q: -6}).Fog)
	assert.Equal(t, terrain.FogVisible, h.tiles.Get(hex.Axial{Q: 6}).Fog)
	assert.Equal(t, terrain.FogUnknown, h.tiles.Get(hex.Axial{R: 8}).Fog)
}

func classify(h *harness) map[hex.Axial]terrain.FogState {
	out := make(map[hex.Axial]terrain.FogState)
	h.tiles.Each(func(tile *terrain.Tile) { out[tile.Coord] = h.engine.State(tile.Coord) })
	return out
}

func TestRefreshIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	h := newHarness(t, 8, Options{})
	cells := h.tiles.Coords()
	for i := 0; i < 10; i++ {
		a := cells[rng.Intn(len(cells))]
		if h.units.HasOccupantAt(a) {
			continue
		}
		faction := models.FactionPlayer
		if i%2 == 1 {
			faction = models.FactionEnemy
		}
		h.add(t, string(rune('a'+i)), faction, a, 1+rng.Intn(3))
	}

	h.engine.Refresh()
	first := classify(h)
	firstSnap := h.engine.Snapshot()
	var firstShown []bool
	for _, u := range h.units.Occupants() {
		firstShown = append(firstShown, h.engine.IsShown(u))
	}

	h.engine.Refresh()
	assert.Equal(t, first, classify(h))
	assert.Equal(t, firstSnap, h.engine.Snapshot())
	var secondShown []bool
	for _, u := range h.units.Occupants() {
		secondShown = append(secondShown, h.engine.IsShown(u))
	}
	assert.Equal(t, firstShown, secondShown)
}

func TestExploredNeverShrinks(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	h := newHarness(t, 9, Options{})
	scout := h.add(t, "scout", models.FactionPlayer, hex.Axial{}, 2)
	cells := h.tiles.Coords()

	explored := map[hex.Axial]bool{}
	for i := 0; i < 60; i++ {
		h.move(scout, cells[rng.Intn(len(cells))])
		h.engine.Refresh()
		for a := range explored {
			require.True(t, h.engine.IsExplored(a), "step %d lost %s", i, a)
		}
		for _, a := range h.engine.Snapshot().Explored {
			explored[a] = true
		}
	}
}

func TestSensedHostileOnRefresh(t *testing.T) {
	h := newHarness(t, 10, Options{SenseBonus: 2})
	h.add(t, "scout", models.FactionPlayer, hex.Axial{}, 3)
	orc := h.add(t, "orc", models.FactionEnemy, hex.Axial{Q: 5}, 3)
	far := h.add(t, "troll", models.FactionEnemy, hex.Axial{Q: -8}, 3)
	goblin := h.add(t, "goblin", models.FactionEnemy, hex.Axial{R: 2}, 3)
	merchant := h.add(t, "merchant", models.FactionNeutral, hex.Axial{Q: -4}, 3)

	h.engine.Refresh()

	assert.True(t, h.engine.IsSensed(orc.Pos))
	assert.False(t, h.engine.IsShown(orc))
	assert.False(t, h.engine.IsSensed(far.Pos))
	assert.False(t, h.engine.IsShown(far))
	assert.True(t, h.engine.IsShown(goblin))
	assert.False(t, h.engine.IsSensed(goblin.Pos))
	assert.False(t, h.engine.IsSensed(merchant.Pos), "neutral units are never sensed")
	assert.Empty(t, h.detected, "full refresh does not signal")
}

func TestSensedPersistsUntilHostileMoves(t *testing.T) {
	h := newHarness(t, 10, Options{SenseBonus: 2})
	scout := h.add(t, "scout", models.FactionPlayer, hex.Axial{}, 3)
	orc := h.add(t, "orc", models.FactionEnemy, hex.Axial{Q: 5}, 3)
	h.engine.Refresh()
	require.True(t, h.engine.IsSensed(orc.Pos))

	// Scout walks away; the marker stays because the orc has not moved.
	h.move(scout, hex.Axial{Q: -6})
	h.engine.Refresh()
	assert.True(t, h.engine.IsSensed(hex.Axial{Q: 5}))

	// The orc moves while out of sense range: marker gone.
	from := h.move(orc, hex.Axial{Q: 6, R: 1})
	h.engine.UpdateHostile(orc, from, orc.Pos)
	assert.False(t, h.engine.IsSensed(hex.Axial{Q: 5}))
	assert.False(t, h.engine.IsSensed(orc.Pos))
	assert.Empty(t, h.detected)
}

func TestHostileMoveIncrementalUpdate(t *testing.T) {
	h := newHarness(t, 10, Options{SenseBonus: 2})
	h.add(t, "scout", models.FactionPlayer, hex.Axial{}, 3)
	orc := h.add(t, "orc", models.FactionEnemy, hex.Axial{Q: 5}, 3)
	h.engine.Refresh()
	require.True(t, h.engine.IsSensed(hex.Axial{Q: 5}))

	// Leaves a sensed tile for another hidden tile inside sense range.
	from := h.move(orc, hex.Axial{Q: 4, R: 1})
	h.engine.UpdateHostile(orc, from, orc.Pos)

	assert.False(t, h.engine.IsSensed(hex.Axial{Q: 5}))
	assert.True(t, h.engine.IsSensed(hex.Axial{Q: 4, R: 1}))
	require.Len(t, h.detected, 1)
	assert.Equal(t, detection{"orc", hex.Axial{Q: 4, R: 1}}, h.detected[0])

	// A duplicate event for the same tile does not signal again.
	h.engine.UpdateHostile(orc, orc.Pos, orc.Pos)
	assert.Len(t, h.detected, 1)
	assert.True(t, h.engine.IsSensed(orc.Pos))

	// Into plain sight: shown, no marker, no signal.
	from = h.move(orc, hex.Axial{Q: 3})
	h.engine.UpdateHostile(orc, from, orc.Pos)
	assert.True(t, h.engine.IsShown(orc))
	assert.False(t, h.engine.IsSensed(hex.Axial{Q: 3}))
	assert.False(t, h.engine.IsSensed(hex.Axial{Q: 4, R: 1}))
	assert.Len(t, h.detected, 1)

	// Back into hiding within sense range: a new detection.
	from = h.move(orc, hex.Axial{Q: 4})
	h.engine.UpdateHostile(orc, from, orc.Pos)
	assert.False(t, h.engine.IsShown(orc))
	assert.Len(t, h.detected, 2)
}

func TestAlreadySensedAtDestination(t *testing.T) {
	h := newHarness(t, 10, Options{SenseBonus: 2})
	h.add(t, "scout", models.FactionPlayer, hex.Axial{}, 3)
	orc := h.add(t, "orc", models.FactionEnemy, hex.Axial{Q: 5}, 3)

	// A friendly-triggered refresh observed the orc at its new tile before
	// the orc's own move event arrived.
	from := h.move(orc, hex.Axial{Q: 4, R: 1})
	h.engine.Refresh()
	require.True(t, h.engine.IsSensed(orc.Pos))

	h.engine.UpdateHostile(orc, from, orc.Pos)
	assert.True(t, h.engine.IsSensed(orc.Pos))
	assert.Empty(t, h.detected)
}

func TestDeadHostileMarkerPruned(t *testing.T) {
	h := newHarness(t, 10, Options{SenseBonus: 2})
	h.add(t, "scout", models.FactionPlayer, hex.Axial{}, 3)
	orc := h.add(t, "orc", models.FactionEnemy, hex.Axial{Q: 5}, 3)
	h.engine.Refresh()
	require.True(t, h.engine.IsSensed(orc.Pos))

	h.units.Unregister(orc)
	h.engine.Refresh()
	assert.False(t, h.engine.IsSensed(hex.Axial{Q: 5}))
}

func TestFriendlyUpdateIgnored(t *testing.T) {
	h := newHarness(t, 5, Options{})
	scout := h.add(t, "scout", models.FactionPlayer, hex.Axial{}, 2)
	h.engine.UpdateHostile(scout, hex.Axial{}, hex.Axial{})
	h.engine.UpdateHostile(nil, hex.Axial{}, hex.Axial{})
	assert.True(t, h.engine.IsShown(scout))
	assert.False(t, h.engine.IsShown(nil))
}

func TestOcclusion(t *testing.T) {
	behindWall := hex.Axial{Q: 3}

	open := newHarness(t, 6, Options{})
	open.add(t, "scout", models.FactionPlayer, hex.Axial{}, 4)
	require.NoError(t, open.tiles.SetTerrain(hex.Axial{Q: 1}, terrain.Wall))
	open.engine.Refresh()
	assert.True(t, open.engine.IsVisible(behindWall), "distance-only model ignores walls")

	blocked := newHarness(t, 6, Options{Occlusion: true})
	blocked.add(t, "scout", models.FactionPlayer, hex.Axial{}, 2)
	// Ring of walls around the scout.
	for _, n := range (hex.Axial{}).Neighbors() {
		require.NoError(t, blocked.tiles.SetTerrain(n, terrain.Wall))
	}
	blocked.engine.Refresh()
	assert.True(t, blocked.engine.IsVisible(hex.Axial{Q: 1}), "the wall itself is seen")
	assert.False(t, blocked.engine.IsVisible(hex.Axial{Q: 2}))
}
