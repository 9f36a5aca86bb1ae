package app

import "pokerduel/internal/domain"

// PlayerSnapshot is the public projection of a player. Scores are exact
// here; transports decide who may see them.
type PlayerSnapshot struct {
	UserID    string
	Number    int
	Score     int
	ScoreTier int
	HandCount int
}

// GameSnapshot is a read-only copy of the engine state.
type GameSnapshot struct {
	Phase         domain.Phase
	Players       []PlayerSnapshot
	CurrentUserID string
	WinnerID      string
	DeckRemaining int
}

// PlayerView is what a single player is allowed to know, used by bots.
type PlayerView struct {
	UserID        string
	Hand          []domain.Card
	Score         int
	OpponentTier  int
	IsCurrent     bool
	DeckRemaining int
	Settings      Settings
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() GameSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := GameSnapshot{
		Phase:         e.game.Phase,
		Players:       make([]PlayerSnapshot, 0, len(e.game.Players)),
		CurrentUserID: e.game.CurrentUserID(),
		WinnerID:      e.game.WinnerID,
		DeckRemaining: e.game.Deck.Remaining(),
	}
	for _, p := range e.game.Players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			UserID:    p.UserID,
			Number:    p.Number,
			Score:     p.Score,
			ScoreTier: p.ScoreTier,
			HandCount: len(p.Hand),
		})
	}
	return snap
}

// Phase returns the current phase.
func (e *Engine) Phase() domain.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.game.Phase
}

// PlayerCount returns the number of registered players.
func (e *Engine) PlayerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.game.Players)
}

// HasPlayer reports whether userID is registered.
func (e *Engine) HasPlayer(userID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.game.Player(userID) != nil
}

// Hand returns a copy of a player's authoritative hand.
func (e *Engine) Hand(userID string) ([]domain.Card, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pl := e.game.Player(userID)
	if pl == nil {
		return nil, false
	}
	return append([]domain.Card(nil), pl.Hand...), true
}

// ViewFor returns the player's private view of the game.
func (e *Engine) ViewFor(userID string) (PlayerView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pl := e.game.Player(userID)
	if pl == nil {
		return PlayerView{}, false
	}
	view := PlayerView{
		UserID:        userID,
		Hand:          append([]domain.Card(nil), pl.Hand...),
		Score:         pl.Score,
		IsCurrent:     e.game.CurrentUserID() == userID,
		DeckRemaining: e.game.Deck.Remaining(),
		Settings:      e.settings,
	}
	for _, p := range e.game.Players {
		if p.UserID != userID {
			view.OpponentTier = p.ScoreTier
		}
	}
	return view, true
}
