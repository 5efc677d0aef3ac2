// Package terrain holds per-tile terrain classification, the fog state the
// visibility engine writes onto each tile, and the seeded map generator.
package terrain

import (
	"fmt"
	"strings"
)

// Terrain classifies a single tile.
type Terrain uint8

const (
	Ground   Terrain = iota // open ground, cost 1
	Swamp                   // slow ground, cost 2
	Obstacle                // rocks, trees: blocks movement and sight
	Wall                    // blocks movement and sight; may be destroyed
	Pit                     // cannot be entered, does not block sight
)

var terrainNames = [...]string{
	Ground:   "ground",
	Swamp:    "swamp",
	Obstacle: "obstacle",
	Wall:     "wall",
	Pit:      "pit",
}

// String returns the lower-case terrain name.
func (t Terrain) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return fmt.Sprintf("terrain(%d)", uint8(t))
}

// Walkable reports whether a unit may step onto the tile.
func (t Terrain) Walkable() bool {
	switch t {
	case Ground, Swamp:
		return true
	default:
		return false
	}
}

// BlocksSight reports whether the tile stops vision past it.
func (t Terrain) BlocksSight() bool {
	return t == Obstacle || t == Wall
}

// BaseCost is the movement cost of stepping onto the tile. Zero for terrain
// that cannot be entered.
func (t Terrain) BaseCost() int {
	switch t {
	case Ground:
		return 1
	case Swamp:
		return 2
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Terrain) MarshalText() ([]byte, error) {
	if int(t) >= len(terrainNames) {
		return nil, fmt.Errorf("unknown terrain %d", uint8(t))
	}
	return []byte(terrainNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Terrain) UnmarshalText(text []byte) error {
	parsed, err := ParseTerrain(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTerrain maps a terrain name to its value.
func ParseTerrain(s string) (Terrain, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range terrainNames {
		if n == name {
			return Terrain(i), nil
		}
	}
	return Ground, fmt.Errorf("unknown terrain %q", s)
}

// FogState is the fog-of-war classification of a tile for the viewing side.
type FogState uint8

const (
	// FogUnknown tiles have never been seen this match.
	FogUnknown FogState = iota
	// FogVisible tiles are inside a friendly unit's current sight.
	FogVisible
	// FogGhost tiles were seen before; terrain is remembered, occupants are not shown.
	FogGhost
)

// String returns a human-readable representation of the fog state.
func (f FogState) String() string {
	switch f {
	case FogUnknown:
		return "unknown"
	case FogVisible:
		return "visible"
	case FogGhost:
		return "ghost"
	default:
		return "invalid"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f FogState) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
