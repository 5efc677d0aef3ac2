// Package battle owns every spatial service of one battle and reacts to the
// movement, turn and death events that drive them.
package battle

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/hextactics/internal/config"
	"github.com/gravitas-games/hextactics/internal/fog"
	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/internal/movement"
	"github.com/gravitas-games/hextactics/internal/occupancy"
	"github.com/gravitas-games/hextactics/internal/path"
	"github.com/gravitas-games/hextactics/internal/terrain"
	"github.com/gravitas-games/hextactics/pkg/logger"
	"github.com/gravitas-games/hextactics/pkg/models"
)

// ErrUnknownUnit is returned for units the session does not track.
var ErrUnknownUnit = errors.New("unknown unit")

// Session is the battle context: it constructs and owns the occupancy index,
// cost calculator, pathfinder and fog engine, and routes events between them.
//
// Session is not safe for concurrent use; callers serialize access.
type Session struct {
	ID string

	cfg    config.BattleConfig
	tiles  *terrain.Map
	units  *occupancy.Index
	calc   *movement.Calculator
	finder *path.Finder
	fog    *fog.Engine
	bus    EventBus

	roster map[string]*models.Unit
	turn   models.Faction

	log logrus.FieldLogger
}

// NewSession creates a battle over the given tiles. A nil bus discards events;
// a nil logger discards diagnostics.
func NewSession(id string, cfg config.BattleConfig, tiles *terrain.Map, bus EventBus, log logrus.FieldLogger) *Session {
	if bus == nil {
		bus = NewNullEventBus()
	}
	log = logger.OrDiscard(log).WithField("session", id)

	units := occupancy.New(log)
	calc := movement.NewCalculator(tiles, units, models.DefaultRelation)
	if cfg.ZOCPenalty > 0 {
		calc.ZOCPenalty = cfg.ZOCPenalty
	}

	s := &Session{
		ID:     id,
		cfg:    cfg,
		tiles:  tiles,
		units:  units,
		calc:   calc,
		finder: path.NewFinder(cfg.MaxSearchIterations, log),
		bus:    bus,
		roster: make(map[string]*models.Unit),
		turn:   cfg.PlayerFaction,
		log:    log,
	}
	s.fog = fog.New(tiles, units, fog.Options{
		Side:       cfg.PlayerFaction,
		Relation:   models.DefaultRelation,
		SenseBonus: cfg.SenseBonus,
		Occlusion:  cfg.Occlusion,
		OnDetect:   s.onDetect,
	}, log)

	log.WithField("map", tiles.String()).Info("Battle session created")
	return s
}

// NewGeneratedSession builds the map from cfg.MapSeed and cfg.MapRadius.
func NewGeneratedSession(id string, cfg config.BattleConfig, bus EventBus, log logrus.FieldLogger) *Session {
	gen := terrain.DefaultGenConfig()
	gen.Seed = cfg.MapSeed
	gen.Radius = cfg.MapRadius
	return NewSession(id, cfg, terrain.Generate(gen), bus, log)
}

// AddUnit places a unit on the field. Zero sight range or move points are
// filled from the battle defaults.
func (s *Session) AddUnit(u *models.Unit) error {
	if u == nil {
		return fmt.Errorf("add unit: %w", occupancy.ErrNilUnit)
	}
	if t := s.tiles.Get(u.Pos); t == nil || !t.Walkable() {
		return fmt.Errorf("add unit %s: tile %s cannot hold a unit", u.ID, u.Pos)
	}
	if u.SightRange == 0 {
		u.SightRange = s.cfg.SightRange
	}
	if u.MaxMovePoints == 0 {
		u.MaxMovePoints = s.cfg.MovePoints
		u.MovePoints = u.MaxMovePoints
	}
	u.Alive = true

	if err := s.units.Register(u); err != nil {
		return fmt.Errorf("add unit: %w", err)
	}
	s.roster[u.ID] = u

	s.log.WithFields(logrus.Fields{
		"unit":    u.ID,
		"faction": u.Faction.String(),
		"at":      u.Pos.String(),
	}).Info("Unit registered")

	s.refresh()
	return nil
}

// Unit returns a tracked unit, alive or dead.
func (s *Session) Unit(id string) (*models.Unit, bool) {
	u, ok := s.roster[id]
	return u, ok
}

// Units returns every tracked unit ordered by id.
func (s *Session) Units() []*models.Unit {
	out := make([]*models.Unit, 0, len(s.roster))
	for _, u := range s.roster {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tiles returns the battle map.
func (s *Session) Tiles() *terrain.Map { return s.tiles }

// Fog returns the visibility engine of the player's side.
func (s *Session) Fog() *fog.Engine { return s.fog }

// Turn returns the side currently acting.
func (s *Session) Turn() models.Faction { return s.turn }

// PlayerSide returns the side whose view the fog engine computes.
func (s *Session) PlayerSide() models.Faction { return s.cfg.PlayerFaction }

// BattlePolicy prices steps for mover with terrain, occupancy and zone of control.
func (s *Session) BattlePolicy(mover *models.Unit) path.Policy {
	return path.BattlePolicy{Calc: s.calc, Mover: mover}
}

// OpenWorldPolicy prices every passable, unflooded step at 1.
func (s *Session) OpenWorldPolicy() path.Policy {
	return path.OpenWorldPolicy{Tiles: s.tiles}
}

// FindPath searches for a least-cost path under the given policy.
func (s *Session) FindPath(start, goal hex.Axial, policy path.Policy) (path.Path, bool) {
	return s.finder.FindPath(start, goal, policy)
}

// PathFor searches a battle path for mover from its current position.
func (s *Session) PathFor(mover *models.Unit, goal hex.Axial) (path.Path, bool) {
	return s.finder.FindPath(mover.Pos, goal, s.BattlePolicy(mover))
}

// FindOpenWorldPath searches with the open-world policy.
func (s *Session) FindOpenWorldPath(start, goal hex.Axial) (path.Path, bool) {
	return s.finder.FindPath(start, goal, s.OpenWorldPolicy())
}

// MoveCost prices a single step for mover. ok is false when impassable.
func (s *Session) MoveCost(from, to hex.Axial, mover *models.Unit) (int, bool) {
	return s.calc.Cost(from, to, mover)
}

// InZoneOfControl reports whether a unit hostile to mover stands next to a.
func (s *Session) InZoneOfControl(a hex.Axial, mover *models.Unit) bool {
	return s.calc.HasHostileNeighbor(a, mover)
}

// HasOccupantAt reports whether a unit stands on a.
func (s *Session) HasOccupantAt(a hex.Axial) bool { return s.units.HasOccupantAt(a) }

// TryGetOccupantAt returns the unit standing on a.
func (s *Session) TryGetOccupantAt(a hex.Axial) (*models.Unit, bool) {
	return s.units.TryGetOccupantAt(a)
}

// IsVisible reports whether the player's side currently sees a.
func (s *Session) IsVisible(a hex.Axial) bool { return s.fog.IsVisible(a) }

// IsExplored reports whether the player's side sees or has seen a.
func (s *Session) IsExplored(a hex.Axial) bool { return s.fog.IsExplored(a) }

// HandleMoveCompleted records a finished step. Friendly moves trigger a full
// fog refresh; other moves update only the mover's visibility. Moves of dead
// or untracked units are ignored. A unit already standing on to is resettled
// on the nearest free tile.
func (s *Session) HandleMoveCompleted(u *models.Unit, from, to hex.Axial) {
	if u == nil {
		return
	}
	if tracked, ok := s.roster[u.ID]; !ok || tracked != u || !u.Alive {
		s.log.WithFields(logrus.Fields{
			"unit": u.ID,
			"to":   to.String(),
		}).Warn("Ignoring move of a dead or untracked unit")
		return
	}

	evicted, _ := s.units.TryGetOccupantAt(to)
	u.Pos = to
	s.units.HandleMoveCompleted(u, from, to)
	displaced := evicted != nil && evicted.ID != u.ID
	if displaced {
		s.resettle(evicted)
	}

	if u.Faction == s.cfg.PlayerFaction || displaced {
		s.refresh()
	} else {
		s.fog.UpdateHostile(u, from, to)
	}

	s.bus.Publish(Event{Type: EventMoveCompleted, Unit: u, From: from, To: to, Side: u.Faction})
}

// HandleTurnChanged records that side now acts. Its units regain their move
// points, and entering the player's phase refreshes visibility.
func (s *Session) HandleTurnChanged(side models.Faction) {
	prev := s.turn
	s.turn = side
	for _, u := range s.roster {
		if u.Alive && u.Faction == side {
			u.ResetMovePoints()
		}
	}

	s.log.WithFields(logrus.Fields{
		"from": prev.String(),
		"to":   side.String(),
	}).Debug("Turn changed")
	s.bus.Publish(Event{Type: EventTurnChanged, Side: side})

	if side == s.cfg.PlayerFaction {
		s.refresh()
	}
}

// HandleUnitDied removes a unit from the field and refreshes visibility.
func (s *Session) HandleUnitDied(u *models.Unit) {
	if u == nil {
		return
	}
	u.Alive = false
	s.units.Unregister(u)

	s.log.WithField("unit", u.ID).Info("Unit died")
	s.bus.Publish(Event{Type: EventUnitDied, Unit: u, From: u.Pos, To: u.Pos, Side: u.Faction})
	s.refresh()
}

// resettle puts a unit pushed out of its tile onto the nearest free walkable
// tile so every live unit stays in the occupancy index.
func (s *Session) resettle(u *models.Unit) {
	from := u.Pos
	for r := 1; r <= 2*s.cfg.MapRadius+1; r++ {
		for _, a := range hex.Ring(from, r) {
			t := s.tiles.Get(a)
			if t == nil || !t.Walkable() || s.units.HasOccupantAt(a) {
				continue
			}
			u.Pos = a
			if err := s.units.Register(u); err != nil {
				continue
			}
			s.log.WithFields(logrus.Fields{
				"unit": u.ID,
				"from": from.String(),
				"to":   a.String(),
			}).Warn("Resettled displaced unit")
			return
		}
	}
	s.log.WithField("unit", u.ID).Error("No free tile to resettle displaced unit")
}

func (s *Session) refresh() {
	s.fog.Refresh()
	s.bus.Publish(Event{Type: EventVisibilityRefreshed, Side: s.cfg.PlayerFaction})
}

func (s *Session) onDetect(u *models.Unit, at hex.Axial) {
	s.bus.Publish(Event{Type: EventUnitDetected, Unit: u, From: at, To: at, Side: u.Faction})
}
