package board

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
)

// Cell is the state of one defending-board coordinate.
type Cell uint8

const (
	CellWater Cell = iota
	CellShip
	CellHit
	CellMiss
)

// Layout and snapshot symbols.
const (
	SymbolShip    = '#'
	SymbolWater   = '.'
	SymbolHit     = '@'
	SymbolMiss    = '~'
	SymbolUnknown = '?'
)

// String returns the snapshot symbol for the cell.
func (c Cell) String() string {
	switch c {
	case CellShip:
		return string(SymbolShip)
	case CellHit:
		return string(SymbolHit)
	case CellMiss:
		return string(SymbolMiss)
	default:
		return string(SymbolWater)
	}
}

// Rules constrains which layouts Load accepts.
type Rules struct {
	// Masts is the required number of occupied cells; zero disables the check.
	Masts int
}

// DefaultRules is the standard fleet: 20 masts.
var DefaultRules = Rules{Masts: FleetMasts}

// Ship is one flood-fill component of occupied cells.
type Ship struct {
	cells []int
}

// Len returns the number of masts.
func (s Ship) Len() int {
	return len(s.cells)
}

// Coords returns the ship's coordinates in row-major order.
func (s Ship) Coords() []grid.Coord {
	out := make([]grid.Coord, len(s.cells))
	for i, index := range s.cells {
		out[i] = grid.FromIndex(index)
	}
	return out
}

// Contains reports whether c is one of the ship's masts.
func (s Ship) Contains(c grid.Coord) bool {
	if !c.Valid() {
		return false
	}
	index := c.Index()
	for _, cell := range s.cells {
		if cell == index {
			return true
		}
	}
	return false
}

// Board is a defending board: the local fleet plus the fire it received.
type Board struct {
	cells [grid.Cells]Cell
	// owner holds ship index + 1 for occupied cells, zero for water.
	owner [grid.Cells]int
	ships []Ship
}

// Load parses a layout under DefaultRules.
func Load(layout string) (*Board, error) {
	return LoadWithRules(layout, DefaultRules)
}

// LoadWithRules parses a 100-character layout over {'#', '.'}, detects ships
// and validates the no-touch rule and the mast count.
func LoadWithRules(layout string, rules Rules) (*Board, error) {
	symbols := []rune(layout)
	if len(symbols) != grid.Cells {
		return nil, invalidLayout("layout has %d cells, want %d", len(symbols), grid.Cells)
	}

	b := &Board{}
	masts := 0
	for index, symbol := range symbols {
		switch symbol {
		case SymbolShip:
			b.cells[index] = CellShip
			masts++
		case SymbolWater:
			b.cells[index] = CellWater
		default:
			return nil, invalidLayout("unexpected symbol %q at %s", symbol, grid.FromIndex(index))
		}
	}
	if rules.Masts > 0 && masts != rules.Masts {
		return nil, invalidLayout("layout has %d masts, want %d", masts, rules.Masts)
	}

	b.detectShips()
	if err := b.checkSpacing(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Board) detectShips() {
	for start := 0; start < grid.Cells; start++ {
		if b.cells[start] != CellShip || b.owner[start] != 0 {
			continue
		}
		id := len(b.ships) + 1
		b.owner[start] = id
		stack := []int{start}
		var cells []int
		for len(stack) > 0 {
			index := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cells = append(cells, index)
			for _, n := range grid.FromIndex(index).Neighbors() {
				ni := n.Index()
				if b.cells[ni] == CellShip && b.owner[ni] == 0 {
					b.owner[ni] = id
					stack = append(stack, ni)
				}
			}
		}
		sort.Ints(cells)
		b.ships = append(b.ships, Ship{cells: cells})
	}
}

// checkSpacing rejects ships touching each other, diagonals included.
func (b *Board) checkSpacing() error {
	for index := 0; index < grid.Cells; index++ {
		id := b.owner[index]
		if id == 0 {
			continue
		}
		c := grid.FromIndex(index)
		for _, n := range c.Around() {
			other := b.owner[n.Index()]
			if other != 0 && other != id {
				return invalidLayout("ships touch at %s and %s", c, n)
			}
		}
	}
	return nil
}

// Cell returns the state at c; off-board coordinates read as water.
func (b *Board) Cell(c grid.Coord) Cell {
	if !c.Valid() {
		return CellWater
	}
	return b.cells[c.Index()]
}

// IsOccupied reports whether a mast stands at c, hit or not.
func (b *Board) IsOccupied(c grid.Coord) bool {
	return c.Valid() && b.owner[c.Index()] != 0
}

// Resolved reports whether c already received fire.
func (b *Board) Resolved(c grid.Coord) bool {
	cell := b.Cell(c)
	return cell == CellHit || cell == CellMiss
}

// MarkHit moves a ship cell to hit. Any other cell is left untouched.
func (b *Board) MarkHit(c grid.Coord) {
	if c.Valid() && b.cells[c.Index()] == CellShip {
		b.cells[c.Index()] = CellHit
	}
}

// MarkMiss moves a water cell to miss. Any other cell is left untouched.
func (b *Board) MarkMiss(c grid.Coord) {
	if c.Valid() && b.cells[c.Index()] == CellWater {
		b.cells[c.Index()] = CellMiss
	}
}

// ShipAt returns the ship containing c.
func (b *Board) ShipAt(c grid.Coord) (Ship, bool) {
	if !c.Valid() {
		return Ship{}, false
	}
	id := b.owner[c.Index()]
	if id == 0 {
		return Ship{}, false
	}
	return b.ships[id-1], true
}

// Ships returns the detected fleet.
func (b *Board) Ships() []Ship {
	return append([]Ship(nil), b.ships...)
}

// ShipSizes returns the fleet's ship lengths, longest first.
func (b *Board) ShipSizes() []int {
	sizes := make([]int, len(b.ships))
	for i, s := range b.ships {
		sizes[i] = s.Len()
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	return sizes
}

// Sunk reports whether every mast of s has been hit.
func (b *Board) Sunk(s Ship) bool {
	for _, index := range s.cells {
		if b.cells[index] != CellHit {
			return false
		}
	}
	return true
}

// AllSunk reports whether every detected ship is sunk.
func (b *Board) AllSunk() bool {
	for _, s := range b.ships {
		if !b.Sunk(s) {
			return false
		}
	}
	return true
}

// RemainingMasts counts masts not yet hit.
func (b *Board) RemainingMasts() int {
	n := 0
	for _, cell := range b.cells {
		if cell == CellShip {
			n++
		}
	}
	return n
}

// MarkAround marks every water cell touching s as a miss and returns them.
func (b *Board) MarkAround(s Ship) []grid.Coord {
	var marked []grid.Coord
	for _, c := range s.Coords() {
		for _, n := range c.Around() {
			if b.cells[n.Index()] == CellWater {
				b.cells[n.Index()] = CellMiss
				marked = append(marked, n)
			}
		}
	}
	return marked
}

// Snapshot renders the board with received fire as 100 row-major symbols.
func (b *Board) Snapshot() string {
	var sb strings.Builder
	sb.Grow(grid.Cells)
	for _, cell := range b.cells {
		sb.WriteString(cell.String())
	}
	return sb.String()
}

// Layout renders the original fleet, ignoring received fire.
func (b *Board) Layout() string {
	var sb strings.Builder
	sb.Grow(grid.Cells)
	for _, id := range b.owner {
		if id != 0 {
			sb.WriteRune(SymbolShip)
		} else {
			sb.WriteRune(SymbolWater)
		}
	}
	return sb.String()
}

func invalidLayout(format string, args ...any) error {
	return apperrors.New(apperrors.CodeInvalidLayout, fmt.Sprintf(format, args...))
}
