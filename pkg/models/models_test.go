package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/hextactics/internal/hex"
)

func TestDefaultRelation(t *testing.T) {
	assert.True(t, DefaultRelation(FactionPlayer, FactionEnemy))
	assert.True(t, DefaultRelation(FactionEnemy, FactionPlayer))
	assert.False(t, DefaultRelation(FactionPlayer, FactionPlayer))
	assert.False(t, DefaultRelation(FactionNeutral, FactionEnemy))
	assert.False(t, DefaultRelation(FactionPlayer, FactionNeutral))
}

func TestParseFaction(t *testing.T) {
	f, err := ParseFaction(" Enemy ")
	require.NoError(t, err)
	assert.Equal(t, FactionEnemy, f)

	_, err = ParseFaction("pirates")
	assert.Error(t, err)
}

func TestNewUnit(t *testing.T) {
	a := NewUnit("scout", FactionPlayer, hex.Axial{Q: 1}, 6, 4)
	b := NewUnit("scout", FactionPlayer, hex.Axial{Q: 1}, 6, 4)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.IsAlive())
	assert.Equal(t, 4, a.MovePoints)

	a.MovePoints = 1
	a.ResetMovePoints()
	assert.Equal(t, 4, a.MovePoints)

	assert.Equal(t, 8, a.SenseRange(2))
	a.SenseBonus = 3
	assert.Equal(t, 9, a.SenseRange(2))

	var dead *Unit
	assert.False(t, dead.IsAlive())
}

func TestPlayerCommands(t *testing.T) {
	p := &Player{ID: "1", Faction: FactionPlayer}
	assert.True(t, p.Commands(&Unit{Faction: FactionPlayer}))
	assert.False(t, p.Commands(&Unit{Faction: FactionEnemy}))
	assert.False(t, p.Commands(nil))
}
