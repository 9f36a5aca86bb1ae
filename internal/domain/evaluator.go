package domain

import (
	"fmt"
	"sort"
)

// HandCategory classifies a selection of cards. Higher values rank higher.
type HandCategory int

const (
	HighCard HandCategory = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// Categories lists every category from lowest to highest.
var Categories = [...]HandCategory{
	HighCard, Pair, TwoPair, ThreeOfAKind, Straight, Flush, FullHouse, FourOfAKind, StraightFlush,
}

var categoryNames = map[HandCategory]string{
	HighCard:      "high_card",
	Pair:          "pair",
	TwoPair:       "two_pair",
	ThreeOfAKind:  "three_of_a_kind",
	Straight:      "straight",
	Flush:         "flush",
	FullHouse:     "full_house",
	FourOfAKind:   "four_of_a_kind",
	StraightFlush: "straight_flush",
}

func (c HandCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("HandCategory(%d)", int(c))
}

// ParseHandCategory is the inverse of HandCategory.String.
func ParseHandCategory(name string) (HandCategory, bool) {
	for c, n := range categoryNames {
		if n == name {
			return c, true
		}
	}
	return HighCard, false
}

// fiveCardHand is the only size that can form a flush or a straight.
const fiveCardHand = 5

// Evaluate returns the best category the cards form. Rank-count categories
// apply to any number of cards; Flush, Straight and StraightFlush require
// exactly five.
func Evaluate(cards []Card) HandCategory {
	if len(cards) == 0 {
		return HighCard
	}

	sorted := sortedByRank(cards)
	flush := isFlush(sorted)
	straight := isStraight(sorted)

	if straight && flush {
		return StraightFlush
	}

	counts := rankCounts(sorted)
	has := func(n int) bool {
		for _, c := range counts {
			if c == n {
				return true
			}
		}
		return false
	}

	switch {
	case has(4):
		return FourOfAKind
	case has(3) && has(2):
		return FullHouse
	case flush:
		return Flush
	case straight:
		return Straight
	case has(3):
		return ThreeOfAKind
	case countOf(counts, 2) == 2:
		return TwoPair
	case has(2):
		return Pair
	default:
		return HighCard
	}
}

func sortedByRank(cards []Card) []Card {
	sorted := append([]Card(nil), cards...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })
	return sorted
}

func rankCounts(cards []Card) map[Rank]int {
	counts := make(map[Rank]int, len(cards))
	for _, c := range cards {
		counts[c.Rank]++
	}
	return counts
}

func countOf(counts map[Rank]int, n int) int {
	total := 0
	for _, c := range counts {
		if c == n {
			total++
		}
	}
	return total
}

func isFlush(sorted []Card) bool {
	if len(sorted) != fiveCardHand {
		return false
	}
	for _, c := range sorted[1:] {
		if c.Suit != sorted[0].Suit {
			return false
		}
	}
	return true
}

// isStraight expects cards sorted ascending by rank. The wheel (2-3-4-5-A)
// counts with the ace below the two.
func isStraight(sorted []Card) bool {
	if len(sorted) != fiveCardHand {
		return false
	}
	consecutive := true
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Rank != sorted[i-1].Rank+1 {
			consecutive = false
			break
		}
	}
	if consecutive {
		return true
	}
	return sorted[0].Rank == Two &&
		sorted[1].Rank == Three &&
		sorted[2].Rank == Four &&
		sorted[3].Rank == Five &&
		sorted[4].Rank == Ace
}
