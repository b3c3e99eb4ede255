package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/board"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
	"golang.org/x/text/message"
)

// Prompt reads shots typed by the local player. Malformed or repeated
// coordinates are reported and asked again.
type Prompt struct {
	in      io.Reader
	out     io.Writer
	printer *message.Printer

	start sync.Once
	lines chan scanned
}

type scanned struct {
	text string
	err  error
}

// NewPrompt reads from in and writes prompts to out.
func NewPrompt(in io.Reader, out io.Writer, printer *message.Printer) *Prompt {
	return &Prompt{in: in, out: out, printer: printer, lines: make(chan scanned)}
}

// NextShot blocks until a usable coordinate is typed. It fails when input
// ends or ctx is done, even while a read is pending.
func (p *Prompt) NextShot(ctx context.Context, view *board.Knowledge) (grid.Coord, error) {
	p.start.Do(func() { go p.scan() })
	for {
		if err := ctx.Err(); err != nil {
			return grid.Coord{}, err
		}
		p.printer.Fprintf(p.out, "console.prompt")

		var line scanned
		select {
		case <-ctx.Done():
			return grid.Coord{}, ctx.Err()
		case line = <-p.lines:
		}
		if line.err != nil {
			return grid.Coord{}, fmt.Errorf("read shot: %w", line.err)
		}
		c, err := grid.Parse(line.text)
		if err != nil {
			if !apperrors.HasCode(err, apperrors.CodeCoordinateFault) {
				return grid.Coord{}, err
			}
			printLine(p.out, p.printer, "console.prompt.invalid")
			continue
		}
		if view.Fired(c) {
			printLine(p.out, p.printer, "console.prompt.repeat", c)
			continue
		}
		return c, nil
	}
}

// scan feeds lines one at a time; a line typed while nobody asks waits for
// the next NextShot. It ends after the first read error or end of input,
// which every later call then sees.
func (p *Prompt) scan() {
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.lines <- scanned{text: scanner.Text()}
	}
	err := scanner.Err()
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	for {
		p.lines <- scanned{err: err}
	}
}
