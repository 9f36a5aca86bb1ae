package domain

import "fmt"

// Suit is one of the four French suits.
type Suit int32

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in deck order.
var Suits = [...]Suit{Spades, Hearts, Diamonds, Clubs}

// Rank orders cards from Two (low) to Ace (high). The numeric value of a
// number card is its face value.
type Rank int32

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Card is an immutable playing card. Two cards are equal when suit and rank match,
// so Card is usable as a map key.
type Card struct {
	Suit Suit
	Rank Rank
}

// Valid reports whether the card names one of the 52 standard cards.
func (c Card) Valid() bool {
	return c.Suit >= Spades && c.Suit <= Clubs && c.Rank >= Two && c.Rank <= Ace
}

// ChipValue is the number of chips the card contributes when it scores.
func (c Card) ChipValue() int {
	switch c.Rank {
	case Ace:
		return 11
	case King, Queen, Jack:
		return 10
	default:
		return int(c.Rank)
	}
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

func (s Suit) String() string {
	switch s {
	case Spades:
		return "S"
	case Hearts:
		return "H"
	case Diamonds:
		return "D"
	case Clubs:
		return "C"
	default:
		return fmt.Sprintf("Suit(%d)", int32(s))
	}
}

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case King:
		return "K"
	case Queen:
		return "Q"
	case Jack:
		return "J"
	case Ten:
		return "T"
	}
	if r >= Two && r <= Nine {
		return fmt.Sprintf("%d", int32(r))
	}
	return fmt.Sprintf("Rank(%d)", int32(r))
}
