package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gravitas-games/hextactics/internal/battle"
	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/internal/terrain"
)

// Legend:
//
//	@ friendly   E hostile (shown)   ! sensed   * path
//	. ground     ~ swamp   # obstacle/wall   o pit
//	ghost tiles use the same glyphs dimmed to ':' and unknown tiles are blank
var glyphs = map[terrain.Terrain]byte{
	terrain.Ground:   '.',
	terrain.Swamp:    '~',
	terrain.Obstacle: '#',
	terrain.Wall:     '#',
	terrain.Pit:      'o',
}

// Render draws the battle map as the player's side sees it, one row per r,
// offset so neighbouring rows interleave like a hex grid.
func Render(s *battle.Session, route []hex.Axial) string {
	onRoute := make(map[hex.Axial]bool, len(route))
	for _, a := range route {
		onRoute[a] = true
	}

	radius := 0
	for _, a := range s.Tiles().Coords() {
		radius = max(radius, hex.DistanceAxial(hex.Axial{}, a))
	}

	var b strings.Builder
	for r := -radius; r <= radius; r++ {
		b.WriteString(strings.Repeat(" ", abs(r)))
		for q := -radius; q <= radius; q++ {
			a := hex.Axial{Q: q, R: r}
			if hex.DistanceAxial(hex.Axial{}, a) > radius {
				continue
			}
			b.WriteByte(cell(s, a, onRoute[a]))
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func cell(s *battle.Session, a hex.Axial, onRoute bool) byte {
	t := s.Tiles().Get(a)
	if t == nil {
		return ' '
	}
	if u, ok := s.TryGetOccupantAt(a); ok && s.Fog().IsShown(u) {
		if u.Faction == s.PlayerSide() {
			return '@'
		}
		return 'E'
	}
	if s.Fog().IsSensed(a) {
		return '!'
	}
	if onRoute {
		return '*'
	}
	switch s.Fog().State(a) {
	case terrain.FogVisible:
		return glyphs[t.Terrain]
	case terrain.FogGhost:
		return ':'
	default:
		return ' '
	}
}

// terrainSummary lists how many tiles of each terrain the map holds.
func terrainSummary(m *terrain.Map) string {
	counts := m.Counts()
	parts := make([]string, 0, len(glyphs))
	for t := terrain.Ground; t <= terrain.Pit; t++ {
		parts = append(parts, fmt.Sprintf("%s=%d", t, counts[t]))
	}
	return m.String() + " " + strings.Join(parts, " ")
}

// parseAxial reads a "q,r" pair.
func parseAxial(s string) (hex.Axial, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return hex.Axial{}, fmt.Errorf("invalid hex %q: want q,r", s)
	}
	q, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return hex.Axial{}, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	r, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return hex.Axial{}, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return hex.Axial{Q: q, R: r}, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
