package turn

import "github.com/louisbranch/broadside/internal/services/battleship/domain/grid"

// Role is fixed by who opened the connection.
type Role uint8

const (
	// RoleListener accepted the connection and waits for the first shot.
	RoleListener Role = iota
	// RoleConnector dialed the peer and fires first.
	RoleConnector
)

// String returns the role label used in logs.
func (r Role) String() string {
	if r == RoleConnector {
		return "connector"
	}
	return "listener"
}

// Phase is the tagged variant of the game state.
type Phase uint8

const (
	PhaseAwaitingLocalShot Phase = iota
	PhaseAwaitingRemoteShot
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingLocalShot:
		return "awaiting local shot"
	case PhaseAwaitingRemoteShot:
		return "awaiting remote shot"
	case PhaseGameOver:
		return "game over"
	default:
		return "unknown"
	}
}

// Result is the terminal result of a game.
type Result uint8

const (
	ResultInProgress Result = iota
	ResultWon
	ResultLost
)

func (r Result) String() string {
	switch r {
	case ResultWon:
		return "won"
	case ResultLost:
		return "lost"
	default:
		return "in progress"
	}
}

// State is the turn position of one player.
type State struct {
	Phase Phase
	// Pending is the coordinate of our shot whose result has not arrived.
	// It is only meaningful while HasPending is true.
	Pending    grid.Coord
	HasPending bool
	// Result is set once Phase is PhaseGameOver.
	Result Result
	// Moves counts accepted events.
	Moves int
}

// Initial returns the opening state for a role.
func Initial(role Role) State {
	if role == RoleConnector {
		return State{Phase: PhaseAwaitingLocalShot}
	}
	return State{Phase: PhaseAwaitingRemoteShot}
}

// Expect names the next input a state can accept.
type Expect uint8

const (
	// ExpectNothing means the game is over.
	ExpectNothing Expect = iota
	// ExpectLocalShot means the local player must choose a coordinate.
	ExpectLocalShot
	// ExpectResult means the peer must answer our pending shot.
	ExpectResult
	// ExpectShot means the peer must fire.
	ExpectShot
)

// Expects reports which input the state is waiting for.
func (s State) Expects() Expect {
	switch {
	case s.Phase == PhaseGameOver:
		return ExpectNothing
	case s.Phase == PhaseAwaitingLocalShot:
		return ExpectLocalShot
	case s.HasPending:
		return ExpectResult
	default:
		return ExpectShot
	}
}

// Over reports whether the state is terminal.
func (s State) Over() bool {
	return s.Phase == PhaseGameOver
}
