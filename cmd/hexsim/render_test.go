package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/hextactics/internal/battle"
	"github.com/gravitas-games/hextactics/internal/config"
	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/internal/terrain"
	"github.com/gravitas-games/hextactics/pkg/models"
)

func TestParseAxial(t *testing.T) {
	a, err := parseAxial("-3, 2")
	require.NoError(t, err)
	assert.Equal(t, hex.Axial{Q: -3, R: 2}, a)

	for _, bad := range []string{"", "1", "1,2,3", "a,1", "1,b"} {
		_, err := parseAxial(bad)
		assert.Error(t, err, "%q", bad)
	}
}

func TestRender(t *testing.T) {
	cfg := config.Default().Battle
	cfg.SightRange = 1
	s := battle.NewSession("render", cfg, terrain.NewDisk(3, terrain.Ground), nil, nil)
	require.NoError(t, s.Tiles().SetTerrain(hex.Axial{Q: 1}, terrain.Wall))
	require.NoError(t, s.AddUnit(&models.Unit{ID: "scout", Faction: models.FactionPlayer}))
	require.NoError(t, s.AddUnit(&models.Unit{ID: "orc", Faction: models.FactionEnemy, Pos: hex.Axial{Q: -3}}))

	out := Render(s, []hex.Axial{{Q: 0, R: 3}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 7)

	// Middle row is r = 0: q from -3 to 3.
	assert.Equal(t, "!   . @ #     ", lines[3])
	assert.Contains(t, lines[6], "*")
}

func TestPathCommand(t *testing.T) {
	cmd := pathCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--seed", "3", "--radius", "4", "--from", "0,0", "--to", "1,0"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "steps=1 cost=1")
	assert.Contains(t, out.String(), "Map(tiles=61)")
	assert.Contains(t, out.String(), "wall=")
}

func TestTerrainSummary(t *testing.T) {
	m := terrain.NewDisk(1, terrain.Ground)
	require.NoError(t, m.SetTerrain(hex.Axial{Q: 1}, terrain.Swamp))
	assert.Equal(t, "Map(tiles=7) ground=6 swamp=1 obstacle=0 wall=0 pit=0", terrainSummary(m))
}
