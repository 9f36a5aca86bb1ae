package bot

import (
	"errors"

	"pokerduel/internal/app"
	"pokerduel/internal/bot/internal"
)

// ErrEmptyHand is returned when a bot is asked to act holding no cards.
var ErrEmptyHand = errors.New("bot has no cards")

// GreedyBot scores the best selection it holds every turn.
type GreedyBot struct{}

func (b *GreedyBot) CalculateMove(view app.PlayerView) (Move, error) {
	if len(view.Hand) == 0 {
		return Move{}, ErrEmptyHand
	}
	scored := internal.BuildScoredMoves(internal.GetValidMoves(view.Hand, view.Settings.MaxPlaySize))
	return Move{Cards: scored[0].Move.Cards}, nil
}

// PatientBot discards weak hands hoping to build a stronger category, but
// always takes a winning play when one is available.
type PatientBot struct {
	Tuning Tuning
}

func (b *PatientBot) CalculateMove(view app.PlayerView) (Move, error) {
	if len(view.Hand) == 0 {
		return Move{}, ErrEmptyHand
	}
	scored := internal.BuildScoredMoves(internal.GetValidMoves(view.Hand, view.Settings.MaxPlaySize))
	best := scored[0]

	wins := view.Score+best.Points >= view.Settings.TargetScore
	if wins || best.Category >= b.Tuning.MinPlayCategory || view.DeckRemaining < b.Tuning.MinDeckForDiscard {
		return Move{Cards: best.Move.Cards}, nil
	}

	dead := internal.DeadCards(view.Hand, b.Tuning.MaxDiscard)
	if len(dead) == 0 {
		return Move{Cards: best.Move.Cards}, nil
	}
	return Move{Discard: true, Cards: dead}, nil
}
