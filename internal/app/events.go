package app

import "pokerduel/internal/domain"

// EventKind identifies emitted engine events for transport dispatch.
type EventKind string

// Hand and score events are private to the player they describe.
const (
	EventPlayerJoined     EventKind = "player_joined"
	EventPlayerLeft       EventKind = "player_left"
	EventHandDealt        EventKind = "hand_dealt"
	EventHandDelta        EventKind = "hand_delta"
	EventScoreChanged     EventKind = "score_changed"
	EventScoreTierChanged EventKind = "score_tier_changed"
	EventTurnChanged      EventKind = "turn_changed"
	EventPhaseChanged     EventKind = "phase_changed"
	EventCardsPlayed      EventKind = "cards_played"
	EventCardsDiscarded   EventKind = "cards_discarded"
	EventGameOver         EventKind = "game_over"
)

// Event is an engine event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	UserID string
	Number int
}

type PlayerLeftPayload struct {
	UserID string
}

// HandDealtPayload is a full authoritative hand snapshot. Resync reports
// whether it repairs a client that named cards it does not hold.
type HandDealtPayload struct {
	UserID string
	Hand   []domain.Card
	Resync bool
}

type HandDeltaPayload struct {
	UserID  string
	Removed []domain.Card
	Added   []domain.Card
}

type ScoreChangedPayload struct {
	UserID string
	Score  int
}

type ScoreTierChangedPayload struct {
	UserID string
	Tier   int
}

type TurnChangedPayload struct {
	CurrentUserID string
}

type PhaseChangedPayload struct {
	Phase domain.Phase
}

type CardsPlayedPayload struct {
	UserID   string
	Cards    []domain.Card
	Category domain.HandCategory
	Points   int
}

type CardsDiscardedPayload struct {
	UserID string
	Count  int
}

// GameOverPayload names the winner; WinnerID is empty when nobody is left.
type GameOverPayload struct {
	WinnerID string
	Scores   map[string]int
}

func privateEvent(kind EventKind, userID string, payload any) Event {
	return Event{Kind: kind, Payload: payload, Recipients: []string{userID}}
}

func publicEvent(kind EventKind, payload any) Event {
	return Event{Kind: kind, Payload: payload}
}
