package board

import (
	"slices"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/broadside/internal/platform/errors"
	"github.com/louisbranch/broadside/internal/services/battleship/domain/grid"
)

const standardLayout = "" +
	"####.###.." +
	".........." +
	"###.##.##." +
	".........." +
	"##.#.#.#.#" +
	".........." +
	".........." +
	".........." +
	".........." +
	".........."

// layoutWith returns an all-water layout with masts at the given cells.
func layoutWith(coords ...string) string {
	cells := []byte(strings.Repeat(".", grid.Cells))
	for _, text := range coords {
		cells[grid.MustParse(text).Index()] = '#'
	}
	return string(cells)
}

func TestLoadStandardLayout(t *testing.T) {
	b, err := Load(standardLayout)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.ShipSizes(); !slices.Equal(got, FleetSizes) {
		t.Fatalf("ship sizes = %v, want %v", got, FleetSizes)
	}
	if !b.StandardFleet() {
		t.Fatal("expected standard fleet")
	}
	if got := b.RemainingMasts(); got != FleetMasts {
		t.Fatalf("remaining masts = %d, want %d", got, FleetMasts)
	}
	if b.Layout() != standardLayout {
		t.Fatal("expected layout to round trip")
	}
}

func TestLoadRejectsInvalidLayouts(t *testing.T) {
	tests := []struct {
		name   string
		layout string
	}{
		{name: "too short", layout: standardLayout[:99]},
		{name: "too long", layout: standardLayout + "."},
		{name: "bad symbol", layout: "x" + standardLayout[1:]},
		{name: "non ascii", layout: "ł" + standardLayout[1:]},
		{name: "too few masts", layout: "." + standardLayout[1:]},
		{name: "diagonal touch", layout: layoutWith(
			"A1", "B1", "C1", "D1",
			"A3", "B3", "C3",
			"E2", // touches D1 diagonally
			"G3", "H3", "I3",
			"A5", "B5", "D5", "E5", "G5", "H5",
			"J5", "J7", "J9",
		)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.layout)
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperrors.HasCode(err, apperrors.CodeInvalidLayout) {
				t.Fatalf("error code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeInvalidLayout)
			}
		})
	}
}

func TestLoadAllowsBentShipAsOneComponent(t *testing.T) {
	b, err := LoadWithRules(layoutWith("A1", "B1", "B2"), Rules{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(b.Ships()) != 1 {
		t.Fatalf("ships = %d, want 1", len(b.Ships()))
	}
}

func TestShipAtAndSunk(t *testing.T) {
	b, err := LoadWithRules(layoutWith("A1", "A2", "C5"), Rules{Masts: 3})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ship, ok := b.ShipAt(grid.MustParse("A2"))
	if !ok {
		t.Fatal("expected ship at A2")
	}
	if ship.Len() != 2 || !ship.Contains(grid.MustParse("A1")) {
		t.Fatalf("unexpected ship %v", ship.Coords())
	}
	if _, ok := b.ShipAt(grid.MustParse("B5")); ok {
		t.Fatal("expected no ship at B5")
	}

	b.MarkHit(grid.MustParse("A1"))
	if b.Sunk(ship) {
		t.Fatal("ship sunk after one hit")
	}
	b.MarkHit(grid.MustParse("A2"))
	if !b.Sunk(ship) {
		t.Fatal("expected ship sunk")
	}
	if b.AllSunk() {
		t.Fatal("single mast at C5 still afloat")
	}
	b.MarkHit(grid.MustParse("C5"))
	if !b.AllSunk() {
		t.Fatal("expected all sunk")
	}
}

func TestMarkersAreMonotonic(t *testing.T) {
	b, err := LoadWithRules(layoutWith("D4"), Rules{Masts: 1})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	mast := grid.MustParse("D4")
	water := grid.MustParse("E9")

	if b.Resolved(mast) || b.Resolved(water) {
		t.Fatal("fresh board reports fire")
	}
	b.MarkMiss(mast)
	if b.Resolved(mast) {
		t.Fatal("miss on a mast counted as fire")
	}
	if b.Cell(mast) != CellShip {
		t.Fatalf("miss on a mast changed it to %v", b.Cell(mast))
	}
	b.MarkHit(water)
	if b.Cell(water) != CellWater {
		t.Fatalf("hit on water changed it to %v", b.Cell(water))
	}
	b.MarkMiss(water)
	b.MarkMiss(water)
	if b.Cell(water) != CellMiss {
		t.Fatalf("water cell = %v, want miss", b.Cell(water))
	}
	b.MarkHit(mast)
	b.MarkHit(mast)
	if b.Cell(mast) != CellHit {
		t.Fatalf("mast cell = %v, want hit", b.Cell(mast))
	}
	if !b.IsOccupied(mast) {
		t.Fatal("hit mast is still occupied")
	}
	if !b.Resolved(mast) || !b.Resolved(water) {
		t.Fatal("expected both cells resolved")
	}
}

func TestSnapshotShowsOverlay(t *testing.T) {
	b, err := LoadWithRules(layoutWith("A1", "A2"), Rules{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b.MarkHit(grid.MustParse("A1"))
	b.MarkMiss(grid.MustParse("B1"))
	snap := b.Snapshot()
	if len(snap) != grid.Cells {
		t.Fatalf("snapshot length = %d", len(snap))
	}
	if snap[:2] != "@~" {
		t.Fatalf("first row starts %q, want %q", snap[:2], "@~")
	}
	if snap[grid.MustParse("A2").Index()] != '#' {
		t.Fatal("expected intact mast at A2")
	}
}

func TestReadLayoutStripsWhitespace(t *testing.T) {
	var sb strings.Builder
	for row := 0; row < grid.Size; row++ {
		sb.WriteString(standardLayout[row*grid.Size : (row+1)*grid.Size])
		sb.WriteString("\r\n")
	}
	layout, err := ReadLayout(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if layout != standardLayout {
		t.Fatalf("layout = %q", layout)
	}
}
