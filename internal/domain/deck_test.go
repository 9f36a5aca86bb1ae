package domain

import (
	"math/rand"
	"testing"
)

func seeded(seed int64) RandFunc {
	return func() *rand.Rand { return rand.New(rand.NewSource(seed)) }
}

func TestNewMasterSet(t *testing.T) {
	set := NewMasterSet()
	if len(set) != DeckSize {
		t.Fatalf("master set size = %d, want %d", len(set), DeckSize)
	}

	seen := make(map[Card]bool)
	for _, c := range set {
		if !c.Valid() {
			t.Fatalf("invalid card in master set: %v", c)
		}
		if seen[c] {
			t.Fatalf("duplicate card found: %v", c)
		}
		seen[c] = true
	}
}

func TestDeckResetShufflePermutation(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		deck := NewDeck(seeded(seed))
		deck.ResetAndShuffle()

		cards := deck.Cards()
		if len(cards) != DeckSize {
			t.Fatalf("seed %d: deck size = %d, want %d", seed, len(cards), DeckSize)
		}
		seen := make(map[Card]int)
		for _, c := range cards {
			seen[c]++
		}
		for _, c := range NewMasterSet() {
			if seen[c] != 1 {
				t.Fatalf("seed %d: card %v appears %d times", seed, c, seen[c])
			}
		}
	}
}

func TestDeckShuffleUsesFreshSource(t *testing.T) {
	calls := 0
	deck := NewDeck(func() *rand.Rand {
		calls++
		return rand.New(rand.NewSource(int64(calls)))
	})
	deck.ResetAndShuffle()
	deck.ResetAndShuffle()
	if calls != 2 {
		t.Fatalf("rand source requested %d times, want 2", calls)
	}
}

func TestDeckShuffleDeterministicWithSeed(t *testing.T) {
	a := NewDeck(seeded(7))
	b := NewDeck(seeded(7))
	a.ResetAndShuffle()
	b.ResetAndShuffle()

	ac, bc := a.Cards(), b.Cards()
	for i := range ac {
		if ac[i] != bc[i] {
			t.Fatalf("same seed produced different order at %d: %v vs %v", i, ac[i], bc[i])
		}
	}
}

func TestDeckShuffleMatchesRandShuffle(t *testing.T) {
	deck := NewDeck(seeded(13))
	deck.ResetAndShuffle()

	want := NewMasterSet()
	rand.New(rand.NewSource(13)).Shuffle(len(want), func(i, j int) {
		want[i], want[j] = want[j], want[i]
	})
	got := deck.Cards()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("card %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDeckDraw(t *testing.T) {
	deck := NewDeck(nil)
	if _, ok := deck.Draw(); ok {
		t.Fatalf("draw from a new deck should report empty")
	}

	deck.Reset()
	top := deck.Cards()[0]
	card, ok := deck.Draw()
	if !ok || card != top {
		t.Fatalf("Draw() = %v, %t, want %v, true", card, ok, top)
	}
	if deck.Remaining() != DeckSize-1 {
		t.Fatalf("remaining = %d, want %d", deck.Remaining(), DeckSize-1)
	}
}

func TestDeckDrawManyStopsWhenEmpty(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		draw      int
		want      int
	}{
		{name: "enough cards", remaining: 52, draw: 6, want: 6},
		{name: "short deck", remaining: 3, draw: 6, want: 3},
		{name: "empty deck", remaining: 0, draw: 6, want: 0},
		{name: "zero request", remaining: 10, draw: 0, want: 0},
		{name: "negative request", remaining: 10, draw: -2, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deck := NewDeck(nil)
			deck.Reset()
			deck.DrawMany(DeckSize - tt.remaining)

			got := deck.DrawMany(tt.draw)
			if len(got) != tt.want {
				t.Fatalf("DrawMany(%d) returned %d cards, want %d", tt.draw, len(got), tt.want)
			}
			if tt.remaining <= tt.draw && !deck.IsEmpty() {
				t.Fatalf("deck should be empty after over-drawing")
			}
		})
	}
}
