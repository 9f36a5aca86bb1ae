package domain

import (
	"math/rand"
	"time"
)

// DeckSize is the number of cards in the master set.
const DeckSize = 52

// NewMasterSet returns the fixed 52-card set in suit-major order.
func NewMasterSet() []Card {
	set := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for r := Two; r <= Ace; r++ {
			set = append(set, Card{Suit: s, Rank: r})
		}
	}
	return set
}

// RandFunc supplies the random source for a single shuffle.
type RandFunc func() *rand.Rand

// Deck is the server-owned draw pile. It is not safe for concurrent use; the
// engine that owns it serializes access.
type Deck struct {
	cards   []Card
	newRand RandFunc
}

// NewDeck returns an empty deck. newRand may be nil, in which case every
// shuffle uses a fresh time-seeded source.
func NewDeck(newRand RandFunc) *Deck {
	if newRand == nil {
		newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return &Deck{newRand: newRand}
}

// Reset refills the deck from the master set, discarding whatever was left.
func (d *Deck) Reset() {
	d.cards = NewMasterSet()
}

// Shuffle permutes the remaining cards uniformly.
func (d *Deck) Shuffle() {
	rng := d.newRand()
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// ResetAndShuffle is Reset followed by Shuffle.
func (d *Deck) ResetAndShuffle() {
	d.Reset()
	d.Shuffle()
}

// Draw pops the top card. ok is false when the deck is empty.
func (d *Deck) Draw() (card Card, ok bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card = d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DrawMany draws up to n cards, stopping early once the deck runs out.
func (d *Deck) DrawMany(n int) []Card {
	drawn := make([]Card, 0, max(n, 0))
	for i := 0; i < n; i++ {
		card, ok := d.Draw()
		if !ok {
			break
		}
		drawn = append(drawn, card)
	}
	return drawn
}

// IsEmpty reports whether no cards remain.
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Remaining returns the number of cards left to draw.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards, top first.
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

// Drain removes every remaining card. Used to force end-of-deck conditions.
func (d *Deck) Drain() {
	d.cards = d.cards[:0]
}
