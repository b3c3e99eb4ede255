package board

import (
	"slices"
)

// FleetMasts is the number of occupied cells in a standard fleet.
const FleetMasts = 20

// FleetSizes lists the standard fleet's ship lengths, longest first.
var FleetSizes = []int{4, 3, 3, 2, 2, 2, 1, 1, 1, 1}

// StandardFleet reports whether the board holds exactly the standard fleet.
func (b *Board) StandardFleet() bool {
	return slices.Equal(b.ShipSizes(), FleetSizes)
}
