// Package fleet generates random standard-fleet layouts.
//
// Placement is probabilistic and backtrack-free: ship lengths are shuffled and
// each ship gets a bounded number of random placements. A dead end discards
// the whole board and starts over, also a bounded number of times, after
// which a fixed pre-validated layout is returned. Generate never fails.
package fleet

import (
	"math/rand"
	"strings"

	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
)

const (
	// DefaultShipAttempts bounds random placements tried for one ship.
	DefaultShipAttempts = 1000
	// DefaultBoardAttempts bounds whole-board restarts.
	DefaultBoardAttempts = 1000
)

// Fallback is the fixed layout used when random placement is exhausted.
const Fallback = "" +
	"####.###.." +
	".........." +
	"###.##.##." +
	".........." +
	"##.#.#.#.#" +
	".........." +
	".........." +
	".........." +
	".........." +
	".........."

// Generator places the standard fleet at random.
type Generator struct {
	rng           *rand.Rand
	sizes         []int
	shipAttempts  int
	boardAttempts int
}

// Option configures a Generator.
type Option func(*Generator)

// WithAttempts overrides the per-ship and per-board attempt ceilings.
func WithAttempts(ship, whole int) Option {
	return func(g *Generator) {
		if ship > 0 {
			g.shipAttempts = ship
		}
		if whole > 0 {
			g.boardAttempts = whole
		}
	}
}

// NewGenerator returns a generator drawing from rng.
func NewGenerator(rng *rand.Rand, opts ...Option) *Generator {
	g := &Generator{
		rng:           rng,
		sizes:         append([]int(nil), board.FleetSizes...),
		shipAttempts:  DefaultShipAttempts,
		boardAttempts: DefaultBoardAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a 100-character layout holding the standard fleet with no
// two ships touching.
func (g *Generator) Generate() string {
	for attempt := 0; attempt < g.boardAttempts; attempt++ {
		var cells [grid.Cells]bool
		if g.placeAll(&cells) {
			return render(&cells)
		}
	}
	return Fallback
}

func (g *Generator) placeAll(cells *[grid.Cells]bool) bool {
	sizes := append([]int(nil), g.sizes...)
	g.rng.Shuffle(len(sizes), func(i, j int) {
		sizes[i], sizes[j] = sizes[j], sizes[i]
	})
	for _, size := range sizes {
		if !g.place(cells, size) {
			return false
		}
	}
	return true
}

func (g *Generator) place(cells *[grid.Cells]bool, size int) bool {
	for attempt := 0; attempt < g.shipAttempts; attempt++ {
		origin := grid.At(g.rng.Intn(grid.Size), g.rng.Intn(grid.Size))
		horizontal := g.rng.Intn(2) == 0
		masts, ok := span(origin, size, horizontal)
		if !ok || !free(cells, masts) {
			continue
		}
		for _, c := range masts {
			cells[c.Index()] = true
		}
		return true
	}
	return false
}

// span lists the cells of a ship starting at origin, or false when it would
// leave the board.
func span(origin grid.Coord, size int, horizontal bool) ([]grid.Coord, bool) {
	masts := make([]grid.Coord, size)
	for i := 0; i < size; i++ {
		c := origin
		if horizontal {
			c.Col += i
		} else {
			c.Row += i
		}
		if !c.Valid() {
			return nil, false
		}
		masts[i] = c
	}
	return masts, true
}

// free reports whether masts and all of their neighbours are free water.
func free(cells *[grid.Cells]bool, masts []grid.Coord) bool {
	for _, c := range masts {
		if cells[c.Index()] {
			return false
		}
		for _, n := range c.Around() {
			if cells[n.Index()] {
				return false
			}
		}
	}
	return true
}

func render(cells *[grid.Cells]bool) string {
	var sb strings.Builder
	sb.Grow(grid.Cells)
	for _, occupied := range cells {
		if occupied {
			sb.WriteRune(board.SymbolShip)
		} else {
			sb.WriteRune(board.SymbolWater)
		}
	}
	return sb.String()
}
