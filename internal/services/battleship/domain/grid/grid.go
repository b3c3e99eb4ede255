// Package grid addresses the cells of the fixed 10x10 battleship board.
//
// A Coord is a zero-based (row, column) pair. Its canonical text form is a
// column letter A..J followed by a one-based row number 1..10, so the top-left
// cell is "A1" and the bottom-right cell is "J10".
package grid

import (
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// Size is the number of rows and columns on a board.
	Size = 10
	// Cells is the number of addressable cells on a board.
	Cells = Size * Size
)

const firstColumn = 'A'

// Coord addresses one board cell.
type Coord struct {
	Row int
	Col int
}

// At returns the coordinate for a row and column.
func At(row, col int) Coord {
	return Coord{Row: row, Col: col}
}

// FromIndex returns the coordinate of a row-major cell index.
func FromIndex(index int) Coord {
	return Coord{Row: index / Size, Col: index % Size}
}

// Valid reports whether the coordinate lies on the board.
func (c Coord) Valid() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

// Index returns the row-major cell index.
func (c Coord) Index() int {
	return c.Row*Size + c.Col
}

// String formats the coordinate in canonical upper-case form.
func (c Coord) String() string {
	if !c.Valid() {
		return "?" + strconv.Itoa(c.Row+1) + ":" + strconv.Itoa(c.Col+1)
	}
	return string(rune(firstColumn+c.Col)) + strconv.Itoa(c.Row+1)
}

// Parse reads a coordinate in "<letter><row>" form. The letter is
// case-insensitive; the row must be written without sign or leading zeros.
func Parse(text string) (Coord, error) {
	trimmed := strings.TrimSpace(text)
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] >= utf8.RuneSelf {
			return Coord{}, fault(text, "expected a column letter and a row number")
		}
	}
	// Upper-casing pure ASCII never changes its length.
	value := cases.Upper(language.Und).String(trimmed)
	if len(value) < 2 || len(value) > 3 {
		return Coord{}, fault(text, "expected a column letter and a row number")
	}
	col := int(value[0]) - firstColumn
	if col < 0 || col >= Size {
		return Coord{}, fault(text, "column must be A-J")
	}
	digits := value[1:]
	row, err := strconv.Atoi(digits)
	if err != nil || strconv.Itoa(row) != digits {
		return Coord{}, fault(text, "row must be a number")
	}
	if row < 1 || row > Size {
		return Coord{}, fault(text, "row must be 1-10")
	}
	return Coord{Row: row - 1, Col: col}, nil
}

// MustParse is Parse for literals known to be valid; it panics otherwise.
func MustParse(text string) Coord {
	c, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return c
}

// Neighbors returns the on-board cells orthogonally adjacent to c.
func (c Coord) Neighbors() []Coord {
	out := make([]Coord, 0, 4)
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		n := Coord{Row: c.Row + d[0], Col: c.Col + d[1]}
		if n.Valid() {
			out = append(out, n)
		}
	}
	return out
}

// Around returns the on-board cells touching c, diagonals included.
func (c Coord) Around() []Coord {
	out := make([]Coord, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			n := Coord{Row: c.Row + dr, Col: c.Col + dc}
			if n.Valid() {
				out = append(out, n)
			}
		}
	}
	return out
}

func fault(text, reason string) error {
	return apperrors.WithMetadata(
		apperrors.CodeCoordinateFault,
		"invalid coordinate "+strconv.Quote(text)+": "+reason,
		map[string]string{"Coord": text},
	)
}
