// Package shot resolves incoming fire against a defending board.
package shot

import (
	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
)

// Resolution is the full effect of resolving one shot.
type Resolution struct {
	Coord   grid.Coord
	Outcome board.Outcome
	// Repeat is true when the coordinate had already been resolved and the
	// stored outcome was returned without touching the board.
	Repeat bool
	// Sunk lists the masts of a ship sunk by this shot.
	Sunk []grid.Coord
	// Cleared lists water cells around a sunk ship that became misses.
	Cleared []grid.Coord
}

// Resolver owns a defending board and remembers the outcome of every
// coordinate it resolved.
type Resolver struct {
	board    *board.Board
	outcomes [grid.Cells]board.Outcome
}

// NewResolver returns a resolver for b.
func NewResolver(b *board.Board) *Resolver {
	return &Resolver{board: b}
}

// Board returns the defending board.
func (r *Resolver) Board() *board.Board {
	return r.board
}

// Resolve fires at c. A coordinate resolved before returns its recorded
// outcome and leaves the board unchanged.
func (r *Resolver) Resolve(c grid.Coord) (Resolution, error) {
	if !c.Valid() {
		return Resolution{}, apperrors.Newf(apperrors.CodeCoordinateFault, "coordinate %s is off the board", c)
	}
	index := c.Index()
	if r.board.Resolved(c) {
		return Resolution{Coord: c, Outcome: r.outcomes[index], Repeat: true}, nil
	}

	if !r.board.IsOccupied(c) {
		r.board.MarkMiss(c)
		r.outcomes[index] = board.OutcomeMiss
		return Resolution{Coord: c, Outcome: board.OutcomeMiss}, nil
	}

	r.board.MarkHit(c)
	ship, _ := r.board.ShipAt(c)
	if !r.board.Sunk(ship) {
		r.outcomes[index] = board.OutcomeHit
		return Resolution{Coord: c, Outcome: board.OutcomeHit}, nil
	}

	outcome := board.OutcomeHitAndSunk
	if r.board.AllSunk() {
		outcome = board.OutcomeLastSunk
	}
	r.outcomes[index] = outcome
	cleared := r.board.MarkAround(ship)
	for _, n := range cleared {
		r.outcomes[n.Index()] = board.OutcomeMiss
	}
	return Resolution{
		Coord:   c,
		Outcome: outcome,
		Sunk:    ship.Coords(),
		Cleared: cleared,
	}, nil
}
