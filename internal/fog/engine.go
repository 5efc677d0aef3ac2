// Package fog tracks what the viewing side can currently see, what it has
// seen before, and which hidden hostiles it has sensed.
package fog

import (
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"

	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/internal/occupancy"
	"github.com/gravitas-games/hextactics/internal/terrain"
	"github.com/gravitas-games/hextactics/pkg/logger"
	"github.com/gravitas-games/hextactics/pkg/models"
)

// DefaultSenseBonus extends sight range for passive detection of hidden hostiles.
const DefaultSenseBonus = 2

// DetectFunc receives the one-shot signal fired when a hidden hostile is
// newly sensed at a tile.
type DetectFunc func(u *models.Unit, at hex.Axial)

// Options configures an Engine.
type Options struct {
	Side       models.Faction  // the side whose view is computed
	Relation   models.Relation // nil means models.DefaultRelation
	SenseBonus int             // <= 0 means DefaultSenseBonus
	Occlusion  bool            // stop sight at sight-blocking tiles
	OnDetect   DetectFunc
}

// Engine computes fog of war for one side.
//
// Engine is not safe for concurrent use.
type Engine struct {
	tiles *terrain.Map
	units *occupancy.Index
	opts  Options

	visible  mapset.Set[hex.Axial]
	explored mapset.Set[hex.Axial] // never shrinks
	sensed   map[hex.Axial]string  // coord -> id of the sensed unit
	shown    map[string]bool       // unit id -> rendered

	log logrus.FieldLogger
}

// New creates an engine with nothing visible or explored yet.
func New(tiles *terrain.Map, units *occupancy.Index, opts Options, log logrus.FieldLogger) *Engine {
	if opts.Relation == nil {
		opts.Relation = models.DefaultRelation
	}
	if opts.SenseBonus <= 0 {
		opts.SenseBonus = DefaultSenseBonus
	}
	return &Engine{
		tiles:    tiles,
		units:    units,
		opts:     opts,
		visible:  mapset.New[hex.Axial](),
		explored: mapset.New[hex.Axial](),
		sensed:   make(map[hex.Axial]string),
		shown:    make(map[string]bool),
		log:      logger.OrDiscard(log).WithField("component", "fog"),
	}
}

// Side returns the faction whose view this engine computes.
func (e *Engine) Side() models.Faction { return e.opts.Side }

// Refresh recomputes the visible set from every friendly unit, grows the
// explored set, writes fog states onto the tiles and re-evaluates every
// non-friendly unit. It is a pure function of unit positions and sight stats,
// so repeated calls without changes give identical results.
func (e *Engine) Refresh() {
	friends := e.friendlies()

	visible := mapset.New[hex.Axial]()
	for _, u := range friends {
		e.expand(u.Pos, u.SightRange, visible)
	}
	e.visible = visible
	visible.Each(func(a hex.Axial) { e.explored.Put(a) })

	e.tiles.Each(func(t *terrain.Tile) {
		switch {
		case e.visible.Has(t.Coord):
			t.Fog = terrain.FogVisible
		case e.explored.Has(t.Coord):
			t.Fog = terrain.FogGhost
		default:
			t.Fog = terrain.FogUnknown
		}
	})

	// Markers outlive refreshes only while their unit stays put.
	for a, id := range e.sensed {
		if u, ok := e.units.TryGetOccupantAt(a); !ok || u.ID != id {
			delete(e.sensed, a)
		}
	}
	for id := range e.shown {
		if _, ok := e.units.PositionOf(id); !ok {
			delete(e.shown, id)
		}
	}

	for _, u := range e.units.Occupants() {
		if e.isFriendly(u) {
			continue
		}
		e.evaluate(u, friends)
	}

	e.log.WithFields(logrus.Fields{
		"side":     e.opts.Side.String(),
		"visible":  e.visible.Size(),
		"explored": e.explored.Size(),
		"sensed":   len(e.sensed),
	}).Debug("Visibility refreshed")
}

// UpdateHostile handles a single non-friendly unit finishing a step without
// recomputing the visible set. The marker at from is cleared immediately;
// only the new tile is evaluated, and the detect callback fires once when the
// unit becomes sensed at a tile it was not already sensed at.
func (e *Engine) UpdateHostile(u *models.Unit, from, to hex.Axial) {
	if u == nil || e.isFriendly(u) {
		return
	}
	alreadySensed := e.sensed[to] == u.ID

	delete(e.sensed, from)
	e.clearSensed(u.ID)

	if e.visible.Has(to) {
		e.shown[u.ID] = true
		return
	}
	e.shown[u.ID] = false
	if !e.hostile(u) || !e.withinSense(to, e.friendlies()) {
		return
	}
	e.sensed[to] = u.ID
	if alreadySensed {
		return
	}

	e.log.WithFields(logrus.Fields{
		"unit": u.ID,
		"at":   to.String(),
	}).Debug("Hidden hostile detected")
	if e.opts.OnDetect != nil {
		e.opts.OnDetect(u, to)
	}
}

// IsVisible reports whether a is inside a friendly unit's current sight.
func (e *Engine) IsVisible(a hex.Axial) bool {
	return e.visible.Has(a)
}

// IsExplored reports whether a is visible now or has been seen this match.
func (e *Engine) IsExplored(a hex.Axial) bool {
	return e.visible.Has(a) || e.explored.Has(a)
}

// IsSensed reports whether a hidden hostile is sensed at a.
func (e *Engine) IsSensed(a hex.Axial) bool {
	_, ok := e.sensed[a]
	return ok
}

// State returns the fog classification of a.
func (e *Engine) State(a hex.Axial) terrain.FogState {
	switch {
	case e.visible.Has(a):
		return terrain.FogVisible
	case e.explored.Has(a):
		return terrain.FogGhost
	default:
		return terrain.FogUnknown
	}
}

// IsShown reports whether the unit should currently be rendered for this side.
// Friendly units are always shown.
func (e *Engine) IsShown(u *models.Unit) bool {
	if u == nil {
		return false
	}
	if e.isFriendly(u) {
		return true
	}
	return e.shown[u.ID]
}

// Snapshot is a copy of the engine's sets, each ordered by q then r.
type Snapshot struct {
	Visible  []hex.Axial `json:"visible"`
	Explored []hex.Axial `json:"explored"`
	Sensed   []hex.Axial `json:"sensed"`
}

// Snapshot copies the current classification.
func (e *Engine) Snapshot() Snapshot {
	explored := mapset.New[hex.Axial]()
	e.explored.Each(func(a hex.Axial) { explored.Put(a) })
	e.visible.Each(func(a hex.Axial) { explored.Put(a) })

	sensed := make([]hex.Axial, 0, len(e.sensed))
	for a := range e.sensed {
		sensed = append(sensed, a)
	}
	sortCoords(sensed)

	return Snapshot{
		Visible:  setToSorted(e.visible),
		Explored: setToSorted(explored),
		Sensed:   sensed,
	}
}

// expand adds every tile reachable within radius steps of origin to into.
// Without occlusion this is exactly the on-map disk; with occlusion the
// search does not continue past sight-blocking tiles.
func (e *Engine) expand(origin hex.Axial, radius int, into mapset.Set[hex.Axial]) {
	if radius < 0 || !e.tiles.Has(origin) {
		return
	}
	type node struct {
		a    hex.Axial
		dist int
	}
	visited := mapset.New[hex.Axial]()
	visited.Put(origin)
	into.Put(origin)

	q := []node{{origin, 0}}
	for len(q) > 0 {
		cur := q[0]
		q = q[1:]
		if cur.dist >= radius {
			continue
		}
		if e.opts.Occlusion && cur.a != origin && e.tiles.Get(cur.a).BlocksSight() {
			continue
		}
		for _, nb := range cur.a.Neighbors() {
			if visited.Has(nb) || !e.tiles.Has(nb) {
				continue
			}
			visited.Put(nb)
			into.Put(nb)
			q = append(q, node{nb, cur.dist + 1})
		}
	}
}

// evaluate shows or hides a non-friendly unit after a full refresh.
func (e *Engine) evaluate(u *models.Unit, friends []*models.Unit) {
	if e.visible.Has(u.Pos) {
		e.shown[u.ID] = true
		e.clearSensed(u.ID)
		return
	}
	e.shown[u.ID] = false
	if e.hostile(u) && e.withinSense(u.Pos, friends) {
		e.sensed[u.Pos] = u.ID
	}
}

func (e *Engine) withinSense(a hex.Axial, friends []*models.Unit) bool {
	for _, f := range friends {
		if hex.DistanceAxial(f.Pos, a) <= f.SenseRange(e.opts.SenseBonus) {
			return true
		}
	}
	return false
}

func (e *Engine) clearSensed(id string) {
	for a, owner := range e.sensed {
		if owner == id {
			delete(e.sensed, a)
		}
	}
}

func (e *Engine) friendlies() []*models.Unit {
	var out []*models.Unit
	for _, u := range e.units.Occupants() {
		if e.isFriendly(u) {
			out = append(out, u)
		}
	}
	return out
}

func (e *Engine) isFriendly(u *models.Unit) bool {
	return u.Faction == e.opts.Side
}

func (e *Engine) hostile(u *models.Unit) bool {
	return e.opts.Relation(e.opts.Side, u.Faction)
}

func setToSorted(s mapset.Set[hex.Axial]) []hex.Axial {
	out := make([]hex.Axial, 0, s.Size())
	s.Each(func(a hex.Axial) { out = append(out, a) })
	sortCoords(out)
	return out
}

func sortCoords(as []hex.Axial) {
	sort.Slice(as, func(i, j int) bool { return hex.Less(as[i], as[j]) })
}
