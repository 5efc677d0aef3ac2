// Package path finds least-cost routes over the hex grid.
package path

import (
	"container/heap"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/pkg/logger"
)

// DefaultMaxIterations bounds the number of node expansions per search.
const DefaultMaxIterations = 10000

// Policy decides which tiles can be entered and what each step costs.
// Costs must be at least 1 for the distance heuristic to stay admissible.
type Policy interface {
	Passable(a hex.Axial) bool
	Cost(from, to hex.Axial) (int, bool)
}

// Path is an ordered route from (exclusive) start to (inclusive) goal.
type Path struct {
	Steps []hex.Axial `json:"steps"`
	Cost  int         `json:"cost"`
}

// Len returns the number of steps.
func (p Path) Len() int { return len(p.Steps) }

// Goal returns the last step, or false for an empty path.
func (p Path) Goal() (hex.Axial, bool) {
	if len(p.Steps) == 0 {
		return hex.Axial{}, false
	}
	return p.Steps[len(p.Steps)-1], true
}

// Finder runs A* searches bounded by MaxIterations.
type Finder struct {
	MaxIterations int
	log           logrus.FieldLogger
}

// NewFinder creates a finder. maxIterations <= 0 uses DefaultMaxIterations.
func NewFinder(maxIterations int, log logrus.FieldLogger) *Finder {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Finder{
		MaxIterations: maxIterations,
		log:           logger.OrDiscard(log).WithField("component", "pathfinder"),
	}
}

// FindPath computes a least-cost path with A* using hex distance as the
// heuristic. It returns false when the goal cannot be entered, is unreachable,
// or the iteration cap is hit. start == goal yields an empty zero-cost path.
//
// Frontier ties are broken by lower heuristic, then by insertion order, so
// results are reproducible.
func (f *Finder) FindPath(start, goal hex.Axial, policy Policy) (Path, bool) {
	if start == goal {
		return Path{}, true
	}
	if !policy.Passable(goal) {
		return Path{}, false
	}

	open := &nodePQ{}
	heap.Init(open)
	var seq uint64
	push := func(a hex.Axial, g int) {
		h := hex.DistanceAxial(a, goal)
		heap.Push(open, &pqNode{a: a, f: g + h, h: h, seq: seq})
		seq++
	}

	g := map[hex.Axial]int{start: 0}
	came := map[hex.Axial]hex.Axial{}
	closed := map[hex.Axial]bool{}
	push(start, 0)

	iterations := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(*pqNode).a
		if closed[cur] {
			continue
		}
		closed[cur] = true

		if cur == goal {
			return reconstruct(came, start, goal, g[goal]), true
		}

		iterations++
		if iterations > f.MaxIterations {
			f.log.WithFields(logrus.Fields{
				"start":      start.String(),
				"goal":       goal.String(),
				"iterations": iterations,
			}).Warn("Search hit iteration cap, treating as no path")
			return Path{}, false
		}

		for _, nb := range cur.Neighbors() {
			if closed[nb] {
				continue
			}
			step, ok := policy.Cost(cur, nb)
			if !ok {
				continue
			}
			if step <= 0 {
				step = 1
			}
			tentative := g[cur] + step
			if old, seen := g[nb]; !seen || tentative < old {
				g[nb] = tentative
				came[nb] = cur
				push(nb, tentative)
			}
		}
	}
	return Path{}, false
}

func reconstruct(came map[hex.Axial]hex.Axial, start, goal hex.Axial, cost int) Path {
	steps := []hex.Axial{goal}
	for k := goal; ; {
		k = came[k]
		if k == start {
			break
		}
		steps = append(steps, k)
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return Path{Steps: steps, Cost: cost}
}

// PQ implementation
type pqNode struct {
	a   hex.Axial
	f   int
	h   int
	seq uint64
}

type nodePQ []*pqNode

func (p nodePQ) Len() int { return len(p) }
func (p nodePQ) Less(i, j int) bool {
	if p[i].f != p[j].f {
		return p[i].f < p[j].f
	}
	if p[i].h != p[j].h {
		return p[i].h < p[j].h
	}
	return p[i].seq < p[j].seq
}
func (p nodePQ) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p *nodePQ) Push(x any)   { *p = append(*p, x.(*pqNode)) }
func (p *nodePQ) Pop() any {
	old := *p
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*p = old[:n-1]
	return x
}
