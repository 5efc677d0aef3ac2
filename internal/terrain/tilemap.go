package terrain

import (
	"fmt"
	"sort"

	"github.com/gravitas-games/hextactics/internal/hex"
)

// Tile represents a single hex cell of the battle map.
type Tile struct {
	Coord   hex.Axial `json:"coord"`
	Terrain Terrain   `json:"terrain"`
	Fog     FogState  `json:"fog"`
	Flooded bool      `json:"flooded,omitempty"` // Only consulted by open-world movement
}

// Walkable reports whether a unit may step onto the tile.
func (t *Tile) Walkable() bool { return t.Terrain.Walkable() }

// BlocksSight reports whether the tile stops vision past it.
func (t *Tile) BlocksSight() bool { return t.Terrain.BlocksSight() }

// Map holds every tile of a battle keyed by coordinate.
// Coordinates without a tile are off-map.
type Map struct {
	tiles map[hex.Axial]*Tile
	order []hex.Axial // sorted lazily for deterministic iteration
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{tiles: make(map[hex.Axial]*Tile)}
}

// NewDisk creates a map covering every cell within radius of the origin,
// all of the given terrain.
func NewDisk(radius int, t Terrain) *Map {
	m := NewMap()
	for _, a := range hex.Disk(hex.Axial{}, radius) {
		m.Set(&Tile{Coord: a, Terrain: t})
	}
	return m
}

// Get returns the tile at the given coordinate, or nil if off-map.
func (m *Map) Get(a hex.Axial) *Tile {
	return m.tiles[a]
}

// Has reports whether a tile exists at the coordinate.
func (m *Map) Has(a hex.Axial) bool {
	_, ok := m.tiles[a]
	return ok
}

// Set places a tile at its coordinate, replacing any previous tile.
func (m *Map) Set(t *Tile) {
	if _, exists := m.tiles[t.Coord]; !exists {
		m.order = nil
	}
	m.tiles[t.Coord] = t
}

// SetTerrain changes the terrain of an existing tile (e.g. a destroyed wall).
func (m *Map) SetTerrain(a hex.Axial, t Terrain) error {
	tile, ok := m.tiles[a]
	if !ok {
		return fmt.Errorf("no tile at %s", a)
	}
	tile.Terrain = t
	return nil
}

// Count returns the number of tiles.
func (m *Map) Count() int {
	return len(m.tiles)
}

// Coords returns every tile coordinate ordered by q, then r.
func (m *Map) Coords() []hex.Axial {
	if m.order == nil {
		m.order = make([]hex.Axial, 0, len(m.tiles))
		for a := range m.tiles {
			m.order = append(m.order, a)
		}
		sort.Slice(m.order, func(i, j int) bool { return hex.Less(m.order[i], m.order[j]) })
	}
	out := make([]hex.Axial, len(m.order))
	copy(out, m.order)
	return out
}

// Each calls fn for every tile in coordinate order.
func (m *Map) Each(fn func(t *Tile)) {
	if m.order == nil {
		m.Coords()
	}
	for _, a := range m.order {
		fn(m.tiles[a])
	}
}

// Counts returns a summary of terrain type distribution.
func (m *Map) Counts() map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range m.tiles {
		counts[t.Terrain]++
	}
	return counts
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(tiles=%d)", len(m.tiles))
}
