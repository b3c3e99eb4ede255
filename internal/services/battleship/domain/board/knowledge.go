package board

import (
	"strings"

	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
)

// Mark is what a player has observed about one opponent cell.
type Mark uint8

const (
	MarkUnknown Mark = iota
	MarkMiss
	MarkHit
)

// String returns the snapshot symbol for the mark.
func (m Mark) String() string {
	switch m {
	case MarkMiss:
		return string(SymbolMiss)
	case MarkHit:
		return string(SymbolHit)
	default:
		return string(SymbolUnknown)
	}
}

// Knowledge is the local view of the opponent's fleet, fed only by results.
type Knowledge struct {
	marks [grid.Cells]Mark
}

// NewKnowledge returns a board with every cell unknown.
func NewKnowledge() *Knowledge {
	return &Knowledge{}
}

// Mark returns the observation at c.
func (k *Knowledge) Mark(c grid.Coord) Mark {
	if !c.Valid() {
		return MarkUnknown
	}
	return k.marks[c.Index()]
}

// Fired reports whether c is already known, by a shot or by inference.
func (k *Knowledge) Fired(c grid.Coord) bool {
	return k.Mark(c) != MarkUnknown
}

// Record applies the result of one of our shots. A sinking result also marks
// the unknown cells around the sunk ship as misses; those inferred cells are
// returned.
func (k *Knowledge) Record(c grid.Coord, outcome Outcome) []grid.Coord {
	if !c.Valid() || !outcome.Valid() {
		return nil
	}
	if !outcome.IsHit() {
		if k.marks[c.Index()] == MarkUnknown {
			k.marks[c.Index()] = MarkMiss
		}
		return nil
	}
	k.marks[c.Index()] = MarkHit
	if !outcome.Sinks() {
		return nil
	}

	var inferred []grid.Coord
	for _, mast := range k.hitComponent(c) {
		for _, n := range mast.Around() {
			if k.marks[n.Index()] == MarkUnknown {
				k.marks[n.Index()] = MarkMiss
				inferred = append(inferred, n)
			}
		}
	}
	return inferred
}

// hitComponent returns the 4-connected hit cells containing c.
func (k *Knowledge) hitComponent(c grid.Coord) []grid.Coord {
	seen := [grid.Cells]bool{}
	seen[c.Index()] = true
	stack := []grid.Coord{c}
	var out []grid.Coord
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		for _, n := range cur.Neighbors() {
			if !seen[n.Index()] && k.marks[n.Index()] == MarkHit {
				seen[n.Index()] = true
				stack = append(stack, n)
			}
		}
	}
	return out
}

// Unknown returns every coordinate not yet fired upon, in row-major order.
func (k *Knowledge) Unknown() []grid.Coord {
	var out []grid.Coord
	for index, m := range k.marks {
		if m == MarkUnknown {
			out = append(out, grid.FromIndex(index))
		}
	}
	return out
}

// Hits counts confirmed hits.
func (k *Knowledge) Hits() int {
	n := 0
	for _, m := range k.marks {
		if m == MarkHit {
			n++
		}
	}
	return n
}

// Snapshot renders the knowledge board as 100 row-major symbols.
func (k *Knowledge) Snapshot() string {
	var sb strings.Builder
	sb.Grow(grid.Cells)
	for _, m := range k.marks {
		sb.WriteString(m.String())
	}
	return sb.String()
}
