// Package console is the terminal face of a game: it prompts for shots,
// draws boards and prints the move history, in the configured language.
package console

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
)

// Render draws a 100-symbol row-major snapshot as a 10x10 grid with column
// letters and row numbers.
func Render(w io.Writer, snapshot string) error {
	if n := utf8.RuneCountInString(snapshot); n != grid.Cells {
		return fmt.Errorf("snapshot has %d cells, want %d", n, grid.Cells)
	}
	var sb strings.Builder
	sb.WriteString("   ")
	for col := 0; col < grid.Size; col++ {
		sb.WriteByte(' ')
		sb.WriteRune(rune('A' + col))
	}
	sb.WriteByte('\n')

	cells := []rune(snapshot)
	for row := 0; row < grid.Size; row++ {
		fmt.Fprintf(&sb, "%2d ", row+1)
		for col := 0; col < grid.Size; col++ {
			sb.WriteByte(' ')
			sb.WriteRune(cells[row*grid.Size+col])
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
