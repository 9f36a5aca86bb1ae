package bot

import (
	"pokerduel/internal/app"
	"pokerduel/internal/domain"
)

// Move represents the decision made by the AI. Discard swaps the cards for
// new draws instead of scoring them.
type Move struct {
	Discard bool
	Cards   []domain.Card
}

// Brain is the interface that all bot strategies must implement. It only sees
// what the seated player is allowed to know.
type Brain interface {
	CalculateMove(view app.PlayerView) (Move, error)
}
