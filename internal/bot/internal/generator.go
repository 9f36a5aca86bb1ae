package internal

import "pokerduel/internal/domain"

// ValidMove represents a possible selection from a hand.
type ValidMove struct {
	Cards []domain.Card
}

// GetValidMoves returns every non-empty subset of hand with at most maxSize
// cards. Subsets keep the hand's card order and are produced smallest first.
func GetValidMoves(hand []domain.Card, maxSize int) []ValidMove {
	if maxSize > len(hand) {
		maxSize = len(hand)
	}
	var moves []ValidMove
	for size := 1; size <= maxSize; size++ {
		combine(hand, size, 0, make([]domain.Card, 0, size), &moves)
	}
	return moves
}

func combine(hand []domain.Card, size, start int, cur []domain.Card, out *[]ValidMove) {
	if len(cur) == size {
		*out = append(*out, ValidMove{Cards: append([]domain.Card(nil), cur...)})
		return
	}
	for i := start; i <= len(hand)-(size-len(cur)); i++ {
		combine(hand, size, i+1, append(cur, hand[i]), out)
	}
}
