package domain

// HasCards reports whether every card in want is held in hand, counting
// multiplicity. Naming the same card twice requires holding it twice.
func HasCards(hand []Card, want []Card) bool {
	held := make(map[Card]int, len(hand))
	for _, c := range hand {
		held[c]++
	}
	for _, c := range want {
		if held[c] == 0 {
			return false
		}
		held[c]--
	}
	return true
}

// RemoveCards removes the specified cards from a hand and returns the updated hand.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}

	return updated
}

// ScoreTier buckets a score by its share of the target: 75% and above is
// tier 3, 50% tier 2, 25% tier 1, otherwise 0.
func ScoreTier(score, targetScore int) int {
	if targetScore <= 0 {
		return 0
	}
	// Integer comparison avoids float rounding at the thresholds.
	switch {
	case score*4 >= targetScore*3:
		return 3
	case score*2 >= targetScore:
		return 2
	case score*4 >= targetScore:
		return 1
	default:
		return 0
	}
}

// HighestScorer returns the player with the strictly highest score. Equal
// scores go to the lowest player number. Nil when there are no players.
func HighestScorer(players []*Player) *Player {
	var best *Player
	for _, p := range players {
		if best == nil || p.Score > best.Score || (p.Score == best.Score && p.Number < best.Number) {
			best = p
		}
	}
	return best
}
