package board

// Outcome is the result of resolving one shot against a defending board.
type Outcome uint8

const (
	// OutcomeNone means the coordinate has not been resolved.
	OutcomeNone Outcome = iota
	OutcomeMiss
	OutcomeHit
	OutcomeHitAndSunk
	OutcomeLastSunk
)

// String returns a stable English label.
func (o Outcome) String() string {
	switch o {
	case OutcomeMiss:
		return "miss"
	case OutcomeHit:
		return "hit"
	case OutcomeHitAndSunk:
		return "hit and sunk"
	case OutcomeLastSunk:
		return "last sunk"
	default:
		return "none"
	}
}

// Valid reports whether o is one of the four shot results.
func (o Outcome) Valid() bool {
	return o >= OutcomeMiss && o <= OutcomeLastSunk
}

// IsHit reports whether a mast was struck.
func (o Outcome) IsHit() bool {
	return o == OutcomeHit || o == OutcomeHitAndSunk || o == OutcomeLastSunk
}

// Sinks reports whether the shot completed a ship.
func (o Outcome) Sinks() bool {
	return o == OutcomeHitAndSunk || o == OutcomeLastSunk
}

// KeepsTurn reports whether the shooter fires again.
func (o Outcome) KeepsTurn() bool {
	return o == OutcomeHit || o == OutcomeHitAndSunk
}
