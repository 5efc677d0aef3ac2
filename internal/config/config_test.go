package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/hextactics/pkg/models"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
battle:
  map_seed: 42
  player_faction: enemy
  occlusion: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(42), cfg.Battle.MapSeed)
	assert.Equal(t, models.FactionEnemy, cfg.Battle.PlayerFaction)
	assert.True(t, cfg.Battle.Occlusion)
	assert.Equal(t, 10, cfg.Battle.MapRadius)
	assert.Equal(t, 6, cfg.Battle.SightRange)
	assert.Equal(t, 2, cfg.Battle.SenseBonus)
	assert.Equal(t, 1, cfg.Battle.ZOCPenalty)
	assert.Equal(t, 10000, cfg.Battle.MaxSearchIterations)
	assert.Equal(t, "hextactics:events", cfg.Redis.Channel)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("battle: [not, a, map]"))
	assert.Error(t, err)

	_, err = Parse([]byte("battle:\n  player_faction: pirates\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("battle:\n  zoc_penalty: -1\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("redis:\n  enabled: true\n"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, models.FactionPlayer, cfg.Battle.PlayerFaction)
	assert.Equal(t, 250, cfg.Server.StepDelayMs)
}
