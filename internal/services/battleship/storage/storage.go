// Package storage defines the move journal of a battleship game.
//
// Every line written to or read from the peer is recorded as a Move, in the
// order the game saw it. The in-memory journal backs the end-of-game history;
// a durable Journal (see the sqlite subpackage) keeps games across runs.
package storage

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

// Direction says which way a line travelled.
type Direction string

const (
	DirectionSent          Direction = "sent"
	DirectionReceived      Direction = "received"
	DirectionRetransmitted Direction = "retransmitted"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	switch d {
	case DirectionSent, DirectionReceived, DirectionRetransmitted:
		return true
	default:
		return false
	}
}

// Move is one journalled protocol line.
type Move struct {
	GameID    string
	Seq       int
	Direction Direction
	Line      string
	Timestamp time.Time
}

// Journal persists moves.
type Journal interface {
	Append(ctx context.Context, move Move) error
	Moves(ctx context.Context, gameID string) ([]Move, error)
}

// ErrInvalidMove is returned for moves missing a game id, a sequence
// number or a known direction.
var ErrInvalidMove = errors.New("invalid move")

// Validate checks the fields every journal requires.
func (m Move) Validate() error {
	switch {
	case strings.TrimSpace(m.GameID) == "":
		return errors.Join(ErrInvalidMove, errors.New("game id is required"))
	case m.Seq < 1:
		return errors.Join(ErrInvalidMove, errors.New("sequence must be positive"))
	case !m.Direction.Valid():
		return errors.Join(ErrInvalidMove, errors.New("unknown direction "+string(m.Direction)))
	default:
		return nil
	}
}

// MemoryJournal keeps moves in process memory. It is safe for concurrent use.
type MemoryJournal struct {
	mu    sync.Mutex
	moves map[string][]Move
}

// NewMemoryJournal returns an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{moves: make(map[string][]Move)}
}

func (j *MemoryJournal) Append(_ context.Context, move Move) error {
	if err := move.Validate(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.moves[move.GameID] = append(j.moves[move.GameID], move)
	return nil
}

func (j *MemoryJournal) Moves(_ context.Context, gameID string) ([]Move, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.moves[gameID]), nil
}
