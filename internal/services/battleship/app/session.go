package server

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/shot"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/turn"
	"github.com/louisbranch/broadside/internal/services/battleship/protocol"
)

// maxShotAttempts bounds how often a shot source may hand back an unusable
// coordinate in a row.
const maxShotAttempts = 5

// ShotSource picks the local player's next coordinate.
type ShotSource interface {
	NextShot(ctx context.Context, view *board.Knowledge) (grid.Coord, error)
}

// Observer is told about game progress. Implementations must not block.
type Observer interface {
	Turn(expect turn.Expect, own *board.Board, view *board.Knowledge)
	Fired(c grid.Coord, outcome board.Outcome)
	Incoming(c grid.Coord, outcome board.Outcome)
}

// Link is the line transport a session plays over.
type Link interface {
	Send(ctx context.Context, line string) error
	Receive(ctx context.Context, accept func(line string) error) error
}

type nopObserver struct{}

func (nopObserver) Turn(turn.Expect, *board.Board, *board.Knowledge) {}
func (nopObserver) Fired(grid.Coord, board.Outcome)                  {}
func (nopObserver) Incoming(grid.Coord, board.Outcome)               {}

// Session is one player's side of a game.
type Session struct {
	state    turn.State
	resolver *shot.Resolver
	view     *board.Knowledge
	link     Link
	shots    ShotSource
	opening  ShotSource
	observer Observer
}

// NewSession prepares a game for role on own. opening, when set, chooses the
// very first local shot; shots chooses all others.
func NewSession(role turn.Role, own *board.Board, link Link, shots, opening ShotSource, observer Observer) *Session {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Session{
		state:    turn.Initial(role),
		resolver: shot.NewResolver(own),
		view:     board.NewKnowledge(),
		link:     link,
		shots:    shots,
		opening:  opening,
		observer: observer,
	}
}

// State returns the current turn state.
func (s *Session) State() turn.State {
	return s.state
}

// Board returns our board with received fire.
func (s *Session) Board() *board.Board {
	return s.resolver.Board()
}

// View returns what we know of the opponent board.
func (s *Session) View() *board.Knowledge {
	return s.view
}

// Play runs the game until it ends or the link gives up.
func (s *Session) Play(ctx context.Context) (turn.Result, error) {
	for !s.state.Over() {
		if err := ctx.Err(); err != nil {
			return turn.ResultInProgress, err
		}
		s.observer.Turn(s.state.Expects(), s.resolver.Board(), s.view)

		var err error
		switch s.state.Expects() {
		case turn.ExpectLocalShot:
			err = s.fire(ctx)
		case turn.ExpectResult, turn.ExpectShot:
			err = s.link.Receive(ctx, func(line string) error {
				return s.handle(ctx, line)
			})
		}
		if err != nil {
			return turn.ResultInProgress, err
		}
	}
	return s.state.Result, nil
}

func (s *Session) fire(ctx context.Context) error {
	source := s.shots
	if s.opening != nil {
		source, s.opening = s.opening, nil
	}
	if source == nil {
		return fmt.Errorf("no shot source configured")
	}

	var lastErr error
	for attempt := 0; attempt < maxShotAttempts; attempt++ {
		c, err := source.NextShot(ctx, s.view)
		if err == nil && s.view.Fired(c) {
			err = apperrors.WithMetadata(apperrors.CodeCoordinateFault,
				"already fired at "+c.String(), map[string]string{"Coord": c.String()})
		}
		if err != nil {
			if !apperrors.HasCode(err, apperrors.CodeCoordinateFault) {
				return err
			}
			lastErr = err
			continue
		}
		return s.apply(ctx, turn.Fire{Coord: c})
	}
	return fmt.Errorf("no usable shot after %d attempts: %w", maxShotAttempts, lastErr)
}

// handle is the accept callback for the link. Protocol faults returned from
// here send the link down its retry path.
func (s *Session) handle(ctx context.Context, line string) error {
	msg, err := protocol.Decode(line)
	if err != nil {
		return err
	}

	switch msg.Kind {
	case protocol.KindShot:
		if s.state.Expects() != turn.ExpectShot {
			return apperrors.Newf(apperrors.CodeProtocolFault, "unexpected shot %q while %s", line, s.state.Phase)
		}
		res, err := s.resolver.Resolve(msg.Coord)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeProtocolFault, "resolve incoming shot", err)
		}
		return s.apply(ctx, turn.ShotResolved{Coord: res.Coord, Outcome: res.Outcome})
	case protocol.KindResult:
		return s.apply(ctx, turn.ResultReceived{
			Outcome:  msg.Outcome,
			Coord:    msg.Coord,
			HasCoord: msg.HasCoord,
		})
	default:
		return apperrors.Newf(apperrors.CodeProtocolFault, "unsupported message %q", line)
	}
}

// apply runs evt through the state machine and performs its effects.
func (s *Session) apply(ctx context.Context, evt turn.Event) error {
	decision := turn.Decide(s.state, evt)
	if err := decision.Err(); err != nil {
		return err
	}
	s.state = decision.Next

	for _, effect := range decision.Effects {
		switch e := effect.(type) {
		case turn.SendShot:
			if err := s.send(ctx, protocol.Shot(e.Coord)); err != nil {
				return err
			}
		case turn.SendResult:
			s.observer.Incoming(e.Coord, e.Outcome)
			if err := s.send(ctx, protocol.Result(e.Coord, e.Outcome)); err != nil {
				return err
			}
		case turn.RecordResult:
			s.view.Record(e.Coord, e.Outcome)
			s.observer.Fired(e.Coord, e.Outcome)
		case turn.Finish:
		}
	}
	return nil
}

func (s *Session) send(ctx context.Context, msg protocol.Message) error {
	line, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return s.link.Send(ctx, line)
}
