package bot

import "pokerduel/internal/domain"

// Tuning controls when a patient bot trades cards instead of scoring.
type Tuning struct {
	// MinPlayCategory is the weakest best-available hand worth scoring.
	MinPlayCategory domain.HandCategory
	// MaxDiscard caps the cards swapped in one turn.
	MaxDiscard int
	// MinDeckForDiscard stops discarding once the deck is nearly spent.
	MinDeckForDiscard int
}

// DefaultTuning discards hands weaker than two pair while the deck lasts.
var DefaultTuning = Tuning{
	MinPlayCategory:   domain.TwoPair,
	MaxDiscard:        3,
	MinDeckForDiscard: 8,
}
