package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/hextactics/internal/battle"
	"github.com/gravitas-games/hextactics/internal/config"
	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/internal/network"
	"github.com/gravitas-games/hextactics/internal/terrain"
	"github.com/gravitas-games/hextactics/pkg/models"
)

func bridgeSession(t *testing.T) (*battle.Session, *models.Unit, *models.Unit) {
	t.Helper()
	s := battle.NewSession("bridge", config.Default().Battle, terrain.NewDisk(10, terrain.Ground), nil, nil)
	hero := &models.Unit{ID: "hero", Faction: models.FactionPlayer}
	orc := &models.Unit{ID: "orc", Faction: models.FactionEnemy, Pos: hex.Axial{Q: 9}}
	require.NoError(t, s.AddUnit(hero))
	require.NoError(t, s.AddUnit(orc))
	return s, hero, orc
}

func TestDecodeBridgeEvent(t *testing.T) {
	ev, err := DecodeBridgeEvent([]byte(`{"type":"move_completed","unit_id":"orc","from":{"q":9,"r":0},"to":{"q":8,"r":0},"side":"enemy"}`))
	require.NoError(t, err)
	assert.Equal(t, network.BridgeMoveCompleted, ev.Type)
	assert.Equal(t, hex.Axial{Q: 8}, ev.To)
	require.NotNil(t, ev.From)
	assert.Equal(t, hex.Axial{Q: 9}, *ev.From)
	assert.Equal(t, models.FactionEnemy, ev.Side)

	ev, err = DecodeBridgeEvent([]byte(`{"type":"turn_changed","side":"player"}`))
	require.NoError(t, err)
	assert.Equal(t, models.FactionPlayer, ev.Side)
	assert.Nil(t, ev.From)

	_, err = DecodeBridgeEvent([]byte(`{"type":"unit_died"}`))
	assert.Error(t, err, "missing unit")
	_, err = DecodeBridgeEvent([]byte(`{"type":"teleport","unit_id":"x"}`))
	assert.Error(t, err)
	_, err = DecodeBridgeEvent([]byte(`{`))
	assert.Error(t, err)
	_, err = DecodeBridgeEvent([]byte(`{"type":"turn_changed","side":"pirates"}`))
	assert.Error(t, err)
}

func TestApplyBridgeMove(t *testing.T) {
	s, _, orc := bridgeSession(t)

	// Within sense range (6 + 2) but out of sight.
	err := ApplyBridgeEvent(s, network.BridgeEvent{Type: network.BridgeMoveCompleted, UnitID: "orc", To: hex.Axial{Q: 7}})
	require.NoError(t, err)
	assert.Equal(t, hex.Axial{Q: 7}, orc.Pos)
	assert.True(t, s.Fog().IsSensed(hex.Axial{Q: 7}))
	assert.False(t, s.HasOccupantAt(hex.Axial{Q: 9}))

	err = ApplyBridgeEvent(s, network.BridgeEvent{Type: network.BridgeMoveCompleted, UnitID: "orc", To: hex.Axial{}})
	assert.ErrorIs(t, err, battle.ErrGoalOccupied)

	err = ApplyBridgeEvent(s, network.BridgeEvent{Type: network.BridgeMoveCompleted, UnitID: "orc", To: hex.Axial{Q: 40}})
	assert.Error(t, err)

	err = ApplyBridgeEvent(s, network.BridgeEvent{Type: network.BridgeMoveCompleted, UnitID: "ghost", To: hex.Axial{Q: 1}})
	assert.ErrorIs(t, err, battle.ErrUnknownUnit)
}

func TestApplyBridgeTurnAndDeath(t *testing.T) {
	s, _, orc := bridgeSession(t)

	require.NoError(t, ApplyBridgeEvent(s, network.BridgeEvent{Type: network.BridgeTurnChanged, Side: models.FactionEnemy}))
	assert.Equal(t, models.FactionEnemy, s.Turn())

	require.NoError(t, ApplyBridgeEvent(s, network.BridgeEvent{Type: network.BridgeUnitDied, UnitID: "orc"}))
	assert.False(t, orc.Alive)
	assert.False(t, s.HasOccupantAt(hex.Axial{Q: 9}))

	// Repeated deaths are ignored.
	require.NoError(t, ApplyBridgeEvent(s, network.BridgeEvent{Type: network.BridgeUnitDied, UnitID: "orc"}))

	assert.Error(t, ApplyBridgeEvent(s, network.BridgeEvent{Type: "bogus"}))
}

func TestApplyBridgeMoveWithStaleOrigin(t *testing.T) {
	s, _, orc := bridgeSession(t)

	// The sender believes the orc started elsewhere; occupancy repairs itself.
	stale := hex.Axial{Q: 4, R: -4}
	err := ApplyBridgeEvent(s, network.BridgeEvent{Type: network.BridgeMoveCompleted, UnitID: "orc", From: &stale, To: hex.Axial{Q: 8}})
	require.NoError(t, err)

	assert.Equal(t, hex.Axial{Q: 8}, orc.Pos)
	assert.False(t, s.HasOccupantAt(hex.Axial{Q: 9}))
	assert.False(t, s.HasOccupantAt(stale))
	occ, ok := s.TryGetOccupantAt(hex.Axial{Q: 8})
	require.True(t, ok)
	assert.Same(t, orc, occ)

	origin := hex.Axial{Q: 8}
	require.NoError(t, ApplyBridgeEvent(s, network.BridgeEvent{Type: network.BridgeMoveCompleted, UnitID: "orc", From: &origin, To: hex.Axial{Q: 7}}))
	assert.True(t, s.HasOccupantAt(hex.Axial{Q: 7}))
	assert.False(t, s.HasOccupantAt(origin))
}
