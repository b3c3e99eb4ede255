package autopilot

import (
	"context"
	"math/rand"
	"sync"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
)

// Random picks unknown cells uniformly.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a picker drawing from rng.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

// NextShot returns a random cell not yet fired upon.
func (r *Random) NextShot(_ context.Context, view *board.Knowledge) (grid.Coord, error) {
	candidates := view.Unknown()
	if len(candidates) == 0 {
		return grid.Coord{}, apperrors.New(apperrors.CodeCoordinateFault, "no unknown cells left to fire at")
	}
	r.mu.Lock()
	pick := r.rng.Intn(len(candidates))
	r.mu.Unlock()
	return candidates[pick], nil
}
