package app

import "pokerduel/internal/domain"

// HandScoreTable exposes the scoring table for UI previews.
func HandScoreTable() map[domain.HandCategory]domain.HandScore {
	return domain.HandScoreTable()
}

// PreviewScore returns what cards would score as category. It touches no
// game state and is safe at any time.
func PreviewScore(category domain.HandCategory, cards []domain.Card) int {
	return domain.Score(category, cards)
}

// PreviewSelection evaluates and scores a tentative selection.
func PreviewSelection(cards []domain.Card) (domain.HandCategory, int) {
	category := domain.Evaluate(cards)
	return category, domain.Score(category, cards)
}
