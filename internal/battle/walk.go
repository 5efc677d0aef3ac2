package battle

import (
	"context"
	"errors"
	"fmt"

	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/internal/path"
	"github.com/gravitas-games/hextactics/pkg/models"
)

var (
	// ErrNoPath is returned when no path reaches the goal.
	ErrNoPath = errors.New("no path to goal")
	// ErrGoalOccupied is returned when another unit stands on the goal.
	ErrGoalOccupied = errors.New("goal is occupied")
	// ErrWalkBlocked is returned when the next step has become impassable.
	ErrWalkBlocked = errors.New("next step is blocked")
	// ErrOutOfMovePoints is returned when the unit cannot pay for the next step.
	ErrOutOfMovePoints = errors.New("not enough move points")
	// ErrWalkDone is returned by Step after the goal has been reached.
	ErrWalkDone = errors.New("walk already finished")
)

// Walk follows a precomputed path one landing at a time. Every Step commits
// its cost and occupancy change before returning; nothing is rolled back when
// a later step fails.
type Walk struct {
	s     *Session
	unit  *models.Unit
	path  path.Path
	next  int
	taken []hex.Axial
	spent int
}

// WalkResult summarises a walk so far.
type WalkResult struct {
	Path  path.Path   `json:"path"`
	Taken []hex.Axial `json:"taken"`
	Spent int         `json:"spent"`
}

// BeginWalk plans a battle path for u to goal. The path is computed once, up
// front; the unit may not end its move on another unit.
func (s *Session) BeginWalk(u *models.Unit, goal hex.Axial) (*Walk, error) {
	if u == nil || !u.IsAlive() {
		return nil, ErrUnknownUnit
	}
	if tracked, ok := s.roster[u.ID]; !ok || tracked != u {
		return nil, fmt.Errorf("walk %s: %w", u.ID, ErrUnknownUnit)
	}
	if occ, ok := s.units.TryGetOccupantAt(goal); ok && occ.ID != u.ID {
		return nil, fmt.Errorf("walk %s to %s: %w", u.ID, goal, ErrGoalOccupied)
	}
	p, ok := s.PathFor(u, goal)
	if !ok {
		return nil, fmt.Errorf("walk %s to %s: %w", u.ID, goal, ErrNoPath)
	}
	return &Walk{s: s, unit: u, path: p}, nil
}

// Done reports whether the goal has been reached.
func (w *Walk) Done() bool { return w.next >= len(w.path.Steps) }

// Remaining returns the steps not yet taken.
func (w *Walk) Remaining() []hex.Axial {
	return append([]hex.Axial(nil), w.path.Steps[w.next:]...)
}

// Result returns the planned path, the tiles entered so far and the points spent.
func (w *Walk) Result() WalkResult {
	return WalkResult{
		Path:  w.path,
		Taken: append([]hex.Axial(nil), w.taken...),
		Spent: w.spent,
	}
}

// Step advances to the next tile the unit can stand on. Tiles held by
// friendly units are passed through in the same step, so the occupancy index
// never shows two units on one tile; the whole segment is checked before any
// of it is committed.
func (w *Walk) Step() (hex.Axial, error) {
	if w.Done() {
		return w.unit.Pos, ErrWalkDone
	}
	if !w.unit.IsAlive() {
		return w.unit.Pos, fmt.Errorf("walk %s: %w", w.unit.ID, ErrUnknownUnit)
	}

	from := w.unit.Pos
	segment, cost, err := w.nextSegment(from)
	if err != nil {
		return from, err
	}

	w.unit.MovePoints -= cost
	w.spent += cost
	w.next += len(segment)
	w.taken = append(w.taken, segment...)

	landing := segment[len(segment)-1]
	w.s.HandleMoveCompleted(w.unit, from, landing)
	return landing, nil
}

func (w *Walk) nextSegment(from hex.Axial) ([]hex.Axial, int, error) {
	var (
		segment []hex.Axial
		total   int
	)
	cur := from
	for i := w.next; i < len(w.path.Steps); i++ {
		to := w.path.Steps[i]
		cost, ok := w.s.MoveCost(cur, to, w.unit)
		if !ok {
			return nil, 0, fmt.Errorf("step %s -> %s: %w", cur, to, ErrWalkBlocked)
		}
		total += cost
		if total > w.unit.MovePoints {
			return nil, 0, fmt.Errorf("step %s -> %s needs %d of %d: %w", cur, to, total, w.unit.MovePoints, ErrOutOfMovePoints)
		}
		segment = append(segment, to)
		if occ, taken := w.s.units.TryGetOccupantAt(to); !taken || occ.ID == w.unit.ID {
			return segment, total, nil
		}
		cur = to
	}
	// The goal was checked free when the walk began; it is occupied now.
	return nil, 0, fmt.Errorf("walk %s: %w", w.unit.ID, ErrGoalOccupied)
}

// Walk moves u toward goal, calling pause after every committed step. pause
// is the suspension point where animation plays; ctx cancellation is honoured
// between steps. Steps already taken stay taken when an error is returned.
func (s *Session) Walk(ctx context.Context, u *models.Unit, goal hex.Axial, pause func(ctx context.Context, at hex.Axial) error) (WalkResult, error) {
	w, err := s.BeginWalk(u, goal)
	if err != nil {
		return WalkResult{}, err
	}
	for !w.Done() {
		if err := ctx.Err(); err != nil {
			return w.Result(), err
		}
		at, err := w.Step()
		if err != nil {
			return w.Result(), err
		}
		if pause != nil {
			if err := pause(ctx, at); err != nil {
				return w.Result(), err
			}
		}
	}
	return w.Result(), nil
}
