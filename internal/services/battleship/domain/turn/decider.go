package turn

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
)

const (
	rejectionCodeGameOver         = "GAME_OVER"
	rejectionCodeNotLocalTurn     = "NOT_LOCAL_TURN"
	rejectionCodeNoPendingShot    = "NO_PENDING_SHOT"
	rejectionCodeShotPending      = "SHOT_PENDING"
	rejectionCodeCoordMismatch    = "RESULT_COORD_MISMATCH"
	rejectionCodeCoordInvalid     = "COORD_INVALID"
	rejectionCodeOutcomeInvalid   = "OUTCOME_INVALID"
	rejectionCodeUnsupportedEvent = "EVENT_UNSUPPORTED"
)

// Event is an input to Decide.
type Event interface {
	isEvent()
}

// Fire is the local player choosing a coordinate.
type Fire struct {
	Coord grid.Coord
}

// ResultReceived is the peer's answer to our pending shot. LastSunk carries
// no coordinate on the wire, so HasCoord may be false.
type ResultReceived struct {
	Outcome  board.Outcome
	Coord    grid.Coord
	HasCoord bool
}

// ShotResolved is an incoming shot already resolved against our board.
type ShotResolved struct {
	Coord   grid.Coord
	Outcome board.Outcome
}

func (Fire) isEvent()           {}
func (ResultReceived) isEvent() {}
func (ShotResolved) isEvent()   {}

// Effect is work the runtime performs after an accepted event.
type Effect interface {
	isEffect()
}

// SendShot sends our shot to the peer.
type SendShot struct {
	Coord grid.Coord
}

// SendResult answers the peer's shot.
type SendResult struct {
	Coord   grid.Coord
	Outcome board.Outcome
}

// RecordResult applies the result of our shot to the knowledge board.
type RecordResult struct {
	Coord   grid.Coord
	Outcome board.Outcome
}

// Finish ends the game.
type Finish struct {
	Result Result
}

func (SendShot) isEffect()     {}
func (SendResult) isEffect()   {}
func (RecordResult) isEffect() {}
func (Finish) isEffect()       {}

// Rejection captures why an event was declined.
type Rejection struct {
	Code    string
	Message string
}

// Decision is the pure outcome of handling an event. A rejected decision
// leaves Next equal to the input state.
type Decision struct {
	Next       State
	Effects    []Effect
	Rejections []Rejection
}

// Accepted reports whether the event was applied.
func (d Decision) Accepted() bool {
	return len(d.Rejections) == 0
}

// Err returns the rejections as a protocol fault, or nil.
func (d Decision) Err() error {
	if d.Accepted() {
		return nil
	}
	messages := make([]string, 0, len(d.Rejections))
	for _, r := range d.Rejections {
		messages = append(messages, r.Message)
	}
	return apperrors.WithMetadata(
		apperrors.CodeProtocolFault,
		strings.Join(messages, "; "),
		map[string]string{"Rejection": d.Rejections[0].Code},
	)
}

func accept(next State, effects ...Effect) Decision {
	next.Moves++
	return Decision{Next: next, Effects: effects}
}

func reject(state State, code, format string, args ...any) Decision {
	return Decision{
		Next:       state,
		Rejections: []Rejection{{Code: code, Message: fmt.Sprintf(format, args...)}},
	}
}

// Decide returns the decision for evt against state.
func Decide(state State, evt Event) Decision {
	if state.Phase == PhaseGameOver {
		return reject(state, rejectionCodeGameOver, "game already %s", state.Result)
	}
	switch e := evt.(type) {
	case Fire:
		return decideFire(state, e)
	case ResultReceived:
		return decideResult(state, e)
	case ShotResolved:
		return decideResolved(state, e)
	default:
		return reject(state, rejectionCodeUnsupportedEvent, "unsupported event %T", evt)
	}
}

func decideFire(state State, e Fire) Decision {
	if state.Phase != PhaseAwaitingLocalShot {
		return reject(state, rejectionCodeNotLocalTurn, "cannot fire while %s", state.Phase)
	}
	if !e.Coord.Valid() {
		return reject(state, rejectionCodeCoordInvalid, "shot coordinate %s is off the board", e.Coord)
	}
	next := State{
		Phase:      PhaseAwaitingRemoteShot,
		Pending:    e.Coord,
		HasPending: true,
		Moves:      state.Moves,
	}
	return accept(next, SendShot{Coord: e.Coord})
}

func decideResult(state State, e ResultReceived) Decision {
	if state.Expects() != ExpectResult {
		return reject(state, rejectionCodeNoPendingShot, "unexpected result while %s", state.Phase)
	}
	if !e.Outcome.Valid() {
		return reject(state, rejectionCodeOutcomeInvalid, "invalid outcome %d", e.Outcome)
	}
	if e.HasCoord && e.Coord != state.Pending {
		return reject(state, rejectionCodeCoordMismatch,
			"result for %s does not match pending shot %s", e.Coord, state.Pending)
	}

	record := RecordResult{Coord: state.Pending, Outcome: e.Outcome}
	next := State{Moves: state.Moves}
	switch {
	case e.Outcome == board.OutcomeLastSunk:
		next.Phase = PhaseGameOver
		next.Result = ResultWon
		return accept(next, record, Finish{Result: ResultWon})
	case e.Outcome.KeepsTurn():
		next.Phase = PhaseAwaitingLocalShot
	default:
		next.Phase = PhaseAwaitingRemoteShot
	}
	return accept(next, record)
}

func decideResolved(state State, e ShotResolved) Decision {
	switch state.Expects() {
	case ExpectShot:
	case ExpectResult:
		return reject(state, rejectionCodeShotPending,
			"incoming shot while our shot at %s is unanswered", state.Pending)
	default:
		return reject(state, rejectionCodeNotLocalTurn, "incoming shot while %s", state.Phase)
	}
	if !e.Coord.Valid() {
		return reject(state, rejectionCodeCoordInvalid, "incoming coordinate %s is off the board", e.Coord)
	}
	if !e.Outcome.Valid() {
		return reject(state, rejectionCodeOutcomeInvalid, "invalid outcome %d", e.Outcome)
	}

	reply := SendResult{Coord: e.Coord, Outcome: e.Outcome}
	next := State{Moves: state.Moves}
	switch {
	case e.Outcome == board.OutcomeLastSunk:
		next.Phase = PhaseGameOver
		next.Result = ResultLost
		return accept(next, reply, Finish{Result: ResultLost})
	case e.Outcome.KeepsTurn():
		next.Phase = PhaseAwaitingRemoteShot
	default:
		next.Phase = PhaseAwaitingLocalShot
	}
	return accept(next, reply)
}
