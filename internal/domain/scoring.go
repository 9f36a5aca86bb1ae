package domain

import "sort"

// HandScore is the base chips and multiplier awarded for a category.
type HandScore struct {
	BaseChips  int `json:"base_chips"`
	Multiplier int `json:"multiplier"`
}

// handScores is fixed for the lifetime of the process.
var handScores = map[HandCategory]HandScore{
	HighCard:      {BaseChips: 5, Multiplier: 1},
	Pair:          {BaseChips: 10, Multiplier: 2},
	TwoPair:       {BaseChips: 20, Multiplier: 2},
	ThreeOfAKind:  {BaseChips: 30, Multiplier: 3},
	Straight:      {BaseChips: 30, Multiplier: 4},
	Flush:         {BaseChips: 35, Multiplier: 4},
	FullHouse:     {BaseChips: 40, Multiplier: 4},
	FourOfAKind:   {BaseChips: 60, Multiplier: 7},
	StraightFlush: {BaseChips: 100, Multiplier: 8},
}

// HandScoreTable returns a copy of the category table. Mutating the result
// has no effect on scoring.
func HandScoreTable() map[HandCategory]HandScore {
	out := make(map[HandCategory]HandScore, len(handScores))
	for k, v := range handScores {
		out[k] = v
	}
	return out
}

// HandScoreFor returns the table entry for a category. Unknown categories
// score zero.
func HandScoreFor(category HandCategory) HandScore {
	return handScores[category]
}

// Score computes (base chips + chips of the scoring cards) * multiplier.
// It is a pure function of its arguments.
func Score(category HandCategory, cards []Card) int {
	entry, ok := handScores[category]
	if !ok {
		return 0
	}
	chips := entry.BaseChips + scoringChips(category, cards)
	return chips * entry.Multiplier
}

// ScoringCards returns the subset of cards that contribute chips for the
// given category.
func ScoringCards(category HandCategory, cards []Card) []Card {
	if len(cards) == 0 {
		return nil
	}

	switch category {
	case HighCard:
		best := cards[0]
		for _, c := range cards[1:] {
			if c.Rank > best.Rank {
				best = c
			}
		}
		return []Card{best}
	case Pair:
		return flattenGroups(groupsWithAtLeast(cards, 2), 1)
	case TwoPair:
		return flattenGroups(groupsWithAtLeast(cards, 2), 2)
	case ThreeOfAKind:
		return flattenGroups(groupsWithAtLeast(cards, 3), 1)
	case FourOfAKind:
		return flattenGroups(groupsWithAtLeast(cards, 4), 1)
	case Straight, Flush, FullHouse, StraightFlush:
		return append([]Card(nil), cards...)
	default:
		return nil
	}
}

func scoringChips(category HandCategory, cards []Card) int {
	chips := 0
	for _, c := range ScoringCards(category, cards) {
		chips += c.ChipValue()
	}
	return chips
}

type rankGroup struct {
	rank  Rank
	cards []Card
}

// groupsWithAtLeast groups cards by rank, ordered by group size then rank,
// both descending, and keeps groups of at least n cards.
func groupsWithAtLeast(cards []Card, n int) []rankGroup {
	byRank := make(map[Rank][]Card)
	for _, c := range cards {
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}

	groups := make([]rankGroup, 0, len(byRank))
	for r, cs := range byRank {
		if len(cs) >= n {
			groups = append(groups, rankGroup{rank: r, cards: cs})
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].cards) != len(groups[j].cards) {
			return len(groups[i].cards) > len(groups[j].cards)
		}
		return groups[i].rank > groups[j].rank
	})
	return groups
}

func flattenGroups(groups []rankGroup, limit int) []Card {
	var out []Card
	for i, g := range groups {
		if i == limit {
			break
		}
		out = append(out, g.cards...)
	}
	return out
}
