// Package occupancy keeps the authoritative map from hex coordinate to the
// unit standing on it.
package occupancy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/pkg/logger"
	"github.com/gravitas-games/hextactics/pkg/models"
)

var (
	// ErrOccupied is returned when registering onto a coordinate held by another unit.
	ErrOccupied = errors.New("coordinate already occupied")
	// ErrNilUnit is returned for nil or id-less units.
	ErrNilUnit = errors.New("unit is nil or has no id")
)

// Index maps coordinates to units. At most one unit stands on a coordinate and
// a unit stands on at most one coordinate.
//
// Index is not safe for concurrent use.
type Index struct {
	byCoord map[hex.Axial]*models.Unit
	log     logrus.FieldLogger
}

// New creates an empty index. A nil logger discards diagnostics.
func New(log logrus.FieldLogger) *Index {
	return &Index{
		byCoord: make(map[hex.Axial]*models.Unit),
		log:     logger.OrDiscard(log).WithField("component", "occupancy"),
	}
}

// Register places u at u.Pos. Any older mapping for u is dropped first.
func (x *Index) Register(u *models.Unit) error {
	if u == nil || u.ID == "" {
		return ErrNilUnit
	}
	if cur, ok := x.byCoord[u.Pos]; ok && cur.ID != u.ID {
		return fmt.Errorf("register %s at %s: %w by %s", u.ID, u.Pos, ErrOccupied, cur.ID)
	}
	x.removeStray(u.ID)
	x.byCoord[u.Pos] = u
	return nil
}

// Unregister removes every mapping held by u.
func (x *Index) Unregister(u *models.Unit) {
	if u == nil {
		return
	}
	if cur, ok := x.byCoord[u.Pos]; ok && cur.ID == u.ID {
		delete(x.byCoord, u.Pos)
		return
	}
	x.removeStray(u.ID)
}

// Sync re-registers u at its current position.
func (x *Index) Sync(u *models.Unit) error {
	return x.Register(u)
}

// HasOccupantAt reports whether any unit stands on a.
func (x *Index) HasOccupantAt(a hex.Axial) bool {
	_, ok := x.byCoord[a]
	return ok
}

// TryGetOccupantAt returns the unit standing on a.
func (x *Index) TryGetOccupantAt(a hex.Axial) (*models.Unit, bool) {
	u, ok := x.byCoord[a]
	return u, ok
}

// PositionOf returns the coordinate the index holds for the unit id.
func (x *Index) PositionOf(id string) (hex.Axial, bool) {
	for a, u := range x.byCoord {
		if u.ID == id {
			return a, true
		}
	}
	return hex.Axial{}, false
}

// HandleMoveCompleted records that u finished a step from one tile to another.
// A stale from (forced warp, knockback, out-of-order event) is repaired by a
// full scan; a different unit found at to is evicted. Neither case is an error.
func (x *Index) HandleMoveCompleted(u *models.Unit, from, to hex.Axial) {
	if u == nil {
		return
	}
	if cur, ok := x.byCoord[from]; ok && cur.ID == u.ID {
		delete(x.byCoord, from)
	} else {
		removed := x.removeStray(u.ID)
		x.log.WithFields(logrus.Fields{
			"unit":     u.ID,
			"from":     from.String(),
			"to":       to.String(),
			"repaired": removed,
		}).Warn("Stale move origin, repaired occupancy by full scan")
	}

	if cur, ok := x.byCoord[to]; ok && cur.ID != u.ID {
		x.log.WithFields(logrus.Fields{
			"unit":    u.ID,
			"evicted": cur.ID,
			"at":      to.String(),
		}).Warn("Move landed on an occupied tile, evicting previous occupant")
	}
	x.byCoord[to] = u
}

// Occupants returns every unit in the index ordered by id.
func (x *Index) Occupants() []*models.Unit {
	out := make([]*models.Unit, 0, len(x.byCoord))
	for _, u := range x.byCoord {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of occupied coordinates.
func (x *Index) Len() int {
	return len(x.byCoord)
}

// Validate checks that no unit is mapped to more than one coordinate.
func (x *Index) Validate() error {
	seen := make(map[string]hex.Axial, len(x.byCoord))
	for a, u := range x.byCoord {
		if prev, dup := seen[u.ID]; dup {
			return fmt.Errorf("unit %s mapped to both %s and %s", u.ID, prev, a)
		}
		seen[u.ID] = a
	}
	return nil
}

// removeStray deletes every mapping that points to id and returns how many
// were removed.
func (x *Index) removeStray(id string) int {
	removed := 0
	for a, u := range x.byCoord {
		if u.ID == id {
			delete(x.byCoord, a)
			removed++
		}
	}
	return removed
}
