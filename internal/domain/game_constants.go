package domain

const (
	// MaxPlayers is the fixed table capacity.
	MaxPlayers = 2
	// DefaultHandSize is the number of cards each player holds after a deal or replenish.
	DefaultHandSize = 6
	// DefaultTargetScore ends the game as soon as a player reaches it.
	DefaultTargetScore = 1000
	// DefaultMaxPlaySize caps a single play; flush and straight need exactly five.
	DefaultMaxPlaySize = 5
	// MaxScoreTier is the top progress bucket shown to opponents.
	MaxScoreTier = 3
)
