package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/turn"
	"github.com/louisbranch/broadside/internal/services/battleship/storage"
	"golang.org/x/text/message"
)

// Display prints game progress. It is safe for concurrent use.
type Display struct {
	mu      sync.Mutex
	out     io.Writer
	printer *message.Printer
}

// NewDisplay writes to out in the printer's language.
func NewDisplay(out io.Writer, printer *message.Printer) *Display {
	return &Display{out: out, printer: printer}
}

// Turn announces whose move it is and shows the relevant board.
func (d *Display) Turn(expect turn.Expect, own *board.Board, view *board.Knowledge) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch expect {
	case turn.ExpectLocalShot:
		fmt.Fprintln(d.out)
		printLine(d.out, d.printer, "console.turn.local")
		printLine(d.out, d.printer, "console.board.enemy")
		_ = Render(d.out, view.Snapshot())
	case turn.ExpectShot:
		fmt.Fprintln(d.out)
		printLine(d.out, d.printer, "console.turn.remote")
		printLine(d.out, d.printer, "console.turn.waiting")
	}
}

// Fired reports the result of our shot.
func (d *Display) Fired(c grid.Coord, outcome board.Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	printLine(d.out, d.printer, "console.shot.outgoing", c, d.printer.Sprintf(outcomeKey(outcome)))
}

// Incoming reports a shot the opponent landed on our board.
func (d *Display) Incoming(c grid.Coord, outcome board.Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	printLine(d.out, d.printer, "console.shot.incoming", c, d.printer.Sprintf(outcomeKey(outcome)))
}

// Boards shows our board with received fire and the opponent board as known.
func (d *Display) Boards(own *board.Board, view *board.Knowledge) {
	d.mu.Lock()
	defer d.mu.Unlock()
	printLine(d.out, d.printer, "console.board.own")
	_ = Render(d.out, own.Snapshot())
	printLine(d.out, d.printer, "console.board.enemy")
	_ = Render(d.out, view.Snapshot())
}

// Summary is what the console needs to close a game.
type Summary struct {
	GameID string
	Result turn.Result
	Moves  []storage.Move
	Own    *board.Board
	View   *board.Knowledge
}

// Finish prints the result or the abort reason, the final boards and the
// move history.
func (d *Display) Finish(summary Summary, cause error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintln(d.out)
	switch {
	case cause != nil:
		printLine(d.out, d.printer, "console.result.aborted", cause)
	case summary.Result == turn.ResultWon:
		printLine(d.out, d.printer, "console.result.won")
	case summary.Result == turn.ResultLost:
		printLine(d.out, d.printer, "console.result.lost")
	}
	if summary.Own != nil {
		printLine(d.out, d.printer, "console.board.final_own")
		_ = Render(d.out, summary.Own.Snapshot())
	}
	if summary.View != nil {
		printLine(d.out, d.printer, "console.board.final_enemy")
		_ = Render(d.out, summary.View.Snapshot())
	}
	WriteHistory(d.out, d.printer, summary.GameID, summary.Moves)
}

// WriteHistory prints the journalled moves of one game. Nothing is printed
// for a game without moves.
func WriteHistory(w io.Writer, p *message.Printer, gameID string, moves []storage.Move) {
	if len(moves) == 0 {
		return
	}
	printLine(w, p, "console.history.title", gameID)
	for _, move := range moves {
		printLine(w, p, historyKey(move.Direction), move.Seq, move.Line)
	}
}

func outcomeKey(o board.Outcome) string {
	switch o {
	case board.OutcomeMiss:
		return "outcome.miss"
	case board.OutcomeHit:
		return "outcome.hit"
	case board.OutcomeHitAndSunk:
		return "outcome.hit_and_sunk"
	case board.OutcomeLastSunk:
		return "outcome.last_sunk"
	default:
		return o.String()
	}
}

func historyKey(d storage.Direction) string {
	switch d {
	case storage.DirectionReceived:
		return "console.history.received"
	case storage.DirectionRetransmitted:
		return "console.history.retransmitted"
	default:
		return "console.history.sent"
	}
}

func printLine(w io.Writer, p *message.Printer, key string, args ...any) {
	p.Fprintf(w, key, args...)
	fmt.Fprintln(w)
}
