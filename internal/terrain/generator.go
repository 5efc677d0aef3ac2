package terrain

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/gravitas-games/hextactics/internal/hex"
)

// GenConfig holds battle map generation parameters.
type GenConfig struct {
	Radius     int     // Hex radius of the battlefield
	Seed       int64   // Map seed; the same seed always yields the same map
	SwampLevel float64 // Moisture above which ground turns to swamp (0.0–1.0)
	RockLevel  float64 // Elevation above which ground turns to obstacle (0.0–1.0)
	WallLevel  float64 // Elevation above which obstacle turns to wall (0.0–1.0)
	PitChance  float64 // Fraction of low, dry tiles that become pits
	FloodLevel float64 // Moisture above which swamp tiles are flooded
}

// DefaultGenConfig returns a reasonable battle map configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:     10,
		Seed:       1,
		SwampLevel: 0.68,
		RockLevel:  0.70,
		WallLevel:  0.80,
		PitChance:  0.03,
		FloodLevel: 0.82,
	}
}

// Generate builds a battle map from layered simplex noise. The centre tile and
// its neighbours are always ground so a deployment zone exists.
func Generate(cfg GenConfig) *Map {
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	wetNoise := opensimplex.NewNormalized(cfg.Seed + 1)
	pitNoise := opensimplex.NewNormalized(cfg.Seed + 2)

	m := NewMap()
	for _, a := range hex.Disk(hex.Axial{}, cfg.Radius) {
		// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
		x := float64(a.Q) + float64(a.R)*0.5
		y := float64(a.R) * math.Sqrt(3.0) / 2.0

		elev := octaveNoise(elevNoise, x, y, 3, 0.15, 0.5)
		wet := octaveNoise(wetNoise, x, y, 2, 0.12, 0.5)

		tile := &Tile{Coord: a, Terrain: Ground}
		switch {
		case elev > cfg.WallLevel:
			tile.Terrain = Wall
		case elev > cfg.RockLevel:
			tile.Terrain = Obstacle
		case wet > cfg.SwampLevel:
			tile.Terrain = Swamp
			tile.Flooded = wet > cfg.FloodLevel
		case pitNoise.Eval2(x*0.9, y*0.9) < cfg.PitChance:
			tile.Terrain = Pit
		}
		if hex.DistanceAxial(hex.Axial{}, a) <= 1 {
			tile.Terrain = Ground
			tile.Flooded = false
		}
		m.Set(tile)
	}
	return m
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
