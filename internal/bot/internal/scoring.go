package internal

import (
	"sort"

	"pokerduel/internal/domain"
)

// ScoredMove is a candidate move with its evaluated category and points.
type ScoredMove struct {
	Move     ValidMove
	Category domain.HandCategory
	Points   int
}

// BuildScoredMoves evaluates each move and orders them best first. Among
// equal points the move using fewer cards wins.
func BuildScoredMoves(moves []ValidMove) []ScoredMove {
	scored := make([]ScoredMove, 0, len(moves))
	for _, m := range moves {
		category := domain.Evaluate(m.Cards)
		scored = append(scored, ScoredMove{
			Move:     m,
			Category: category,
			Points:   domain.Score(category, m.Cards),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Points != scored[j].Points {
			return scored[i].Points > scored[j].Points
		}
		return len(scored[i].Move.Cards) < len(scored[j].Move.Cards)
	})
	return scored
}

// DeadCards returns up to limit cards that share a rank with no other card in
// the hand, lowest chip value first. Cards of the hand's most common suit are
// kept when at least three of them are held, since they still draw to a flush.
func DeadCards(hand []domain.Card, limit int) []domain.Card {
	ranks := make(map[domain.Rank]int, len(hand))
	suits := make(map[domain.Suit]int, len(domain.Suits))
	for _, c := range hand {
		ranks[c.Rank]++
		suits[c.Suit]++
	}

	keepSuit, keepCount := domain.Suit(-1), 0
	for _, s := range domain.Suits {
		if suits[s] > keepCount {
			keepSuit, keepCount = s, suits[s]
		}
	}
	if keepCount < 3 {
		keepSuit = -1
	}

	var dead []domain.Card
	for _, c := range hand {
		if ranks[c.Rank] == 1 && c.Suit != keepSuit {
			dead = append(dead, c)
		}
	}
	sort.SliceStable(dead, func(i, j int) bool { return dead[i].ChipValue() < dead[j].ChipValue() })
	if len(dead) > limit {
		dead = dead[:limit]
	}
	return dead
}
