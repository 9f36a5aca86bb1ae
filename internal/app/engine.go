package app

import (
	"errors"
	"sync"

	"pokerduel/internal/domain"
)

// Rejections. A returned error means the intent was dropped and no state
// changed; none of them is fatal to the engine.
var (
	ErrInvalidPlayerID   = errors.New("player id is empty")
	ErrAlreadyRegistered = errors.New("player already registered")
	ErrGameFull          = errors.New("game already has two players")
	ErrNotWaiting        = errors.New("game not waiting for players")
	ErrUnknownPlayer     = errors.New("player not found")
	ErrNotPlaying        = errors.New("game not in progress")
	ErrNotYourTurn       = errors.New("not the player's turn")
	ErrNoCards           = errors.New("no cards submitted")
	ErrTooManyCards      = errors.New("too many cards submitted")
	ErrCardsNotInHand    = errors.New("submitted cards not in hand")
)

// Settings are the per-game rules. Zero fields take the domain defaults.
type Settings struct {
	TargetScore int
	HandSize    int
	MaxPlaySize int
}

// DefaultSettings returns the standard rules.
func DefaultSettings() Settings {
	return Settings{
		TargetScore: domain.DefaultTargetScore,
		HandSize:    domain.DefaultHandSize,
		MaxPlaySize: domain.DefaultMaxPlaySize,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.TargetScore <= 0 {
		s.TargetScore = d.TargetScore
	}
	if s.HandSize <= 0 {
		s.HandSize = d.HandSize
	}
	if s.MaxPlaySize <= 0 {
		s.MaxPlaySize = d.MaxPlaySize
	}
	return s
}

// Engine is the authoritative state machine for a single game. All methods
// are safe for concurrent use; transitions are applied one at a time.
type Engine struct {
	mu         sync.Mutex
	settings   Settings
	game       *domain.Game
	nextNumber int
}

// NewEngine constructs an engine waiting for players. newRand may be nil to
// shuffle from a fresh time-seeded source each game.
func NewEngine(settings Settings, newRand domain.RandFunc) *Engine {
	return &Engine{
		settings: settings.withDefaults(),
		game:     domain.NewGame(domain.NewDeck(newRand)),
	}
}

// Settings returns the rules the engine was built with.
func (e *Engine) Settings() Settings {
	return e.settings
}

// RegisterPlayer seats a player. Registering the second player deals the game.
func (e *Engine) RegisterPlayer(userID string) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if userID == "" {
		return nil, ErrInvalidPlayerID
	}
	if e.game.Player(userID) != nil {
		return nil, ErrAlreadyRegistered
	}
	if len(e.game.Players) >= PlayersToStartGame {
		return nil, ErrGameFull
	}
	if e.game.Phase != domain.PhaseWaiting {
		return nil, ErrNotWaiting
	}

	e.nextNumber++
	pl := &domain.Player{UserID: userID, Number: e.nextNumber}
	e.game.Players = append(e.game.Players, pl)

	events := []Event{publicEvent(EventPlayerJoined, PlayerJoinedPayload{UserID: userID, Number: pl.Number})}
	if len(e.game.Players) == PlayersToStartGame {
		events = append(events, e.startGame()...)
	}
	return events, nil
}

// UnregisterPlayer removes a player in any phase. Leaving a game in progress
// forfeits it to the remaining player.
func (e *Engine) UnregisterPlayer(userID string) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := -1
	for i, p := range e.game.Players {
		if p.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrUnknownPlayer
	}

	e.game.Players = append(e.game.Players[:idx:idx], e.game.Players[idx+1:]...)
	events := []Event{publicEvent(EventPlayerLeft, PlayerLeftPayload{UserID: userID})}

	if e.game.Phase == domain.PhaseInProgress {
		winnerID := ""
		if len(e.game.Players) > 0 {
			winnerID = e.game.Players[0].UserID
		}
		events = append(events, e.endGame(winnerID)...)
	}
	return events, nil
}

// ProcessPlay scores a selection from the current player's hand, replenishes
// the hand and either ends the game or passes the turn. Naming a card the
// player does not hold returns a resync of their hand with ErrCardsNotInHand.
func (e *Engine) ProcessPlay(userID string, cards []domain.Card) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pl, err := e.actingPlayer(userID)
	if err != nil {
		return nil, err
	}
	if resync, err := e.validateSelection(pl, cards, e.settings.MaxPlaySize); err != nil {
		return resync, err
	}

	played := append([]domain.Card(nil), cards...)
	category := domain.Evaluate(played)
	points := domain.Score(category, played)

	events := []Event{publicEvent(EventCardsPlayed, CardsPlayedPayload{
		UserID:   userID,
		Cards:    played,
		Category: category,
		Points:   points,
	})}

	pl.Score += points
	events = append(events, privateEvent(EventScoreChanged, userID, ScoreChangedPayload{UserID: userID, Score: pl.Score}))
	events = append(events, e.updateScoreTier(pl)...)
	events = append(events, e.replaceCards(pl, played))

	if ended := e.checkForWinner(); len(ended) > 0 {
		return append(events, ended...), nil
	}
	return append(events, e.endTurn()...), nil
}

// ProcessDiscard swaps cards from the current player's hand for new draws
// and ends the turn without scoring. Discarding a whole hand once the deck
// is empty ends the game on the highest score.
func (e *Engine) ProcessDiscard(userID string, cards []domain.Card) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pl, err := e.actingPlayer(userID)
	if err != nil {
		return nil, err
	}
	if resync, err := e.validateSelection(pl, cards, e.settings.HandSize); err != nil {
		return resync, err
	}

	discarded := append([]domain.Card(nil), cards...)
	events := []Event{
		publicEvent(EventCardsDiscarded, CardsDiscardedPayload{UserID: userID, Count: len(discarded)}),
		e.replaceCards(pl, discarded),
	}
	// An empty hand on an empty deck can never act again.
	if len(pl.Hand) == 0 {
		return append(events, e.endGame(e.highestScorerID())...), nil
	}
	return append(events, e.endTurn()...), nil
}

// RequestResync re-sends a player's authoritative hand.
func (e *Engine) RequestResync(userID string) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pl := e.game.Player(userID)
	if pl == nil {
		return nil, ErrUnknownPlayer
	}
	if e.game.Phase != domain.PhaseInProgress {
		return nil, ErrNotPlaying
	}
	return []Event{e.handDealt(pl, true)}, nil
}

// Reset returns the game to waiting for players. A full table is dealt a
// fresh game straight away.
func (e *Engine) Reset() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var events []Event
	if e.game.Phase != domain.PhaseWaiting {
		e.game.Phase = domain.PhaseWaiting
		events = append(events, publicEvent(EventPhaseChanged, PhaseChangedPayload{Phase: domain.PhaseWaiting}))
	}
	e.game.CurrentIndex = -1
	e.game.WinnerID = ""
	for _, p := range e.game.Players {
		p.Hand = nil
	}

	if len(e.game.Players) == PlayersToStartGame {
		events = append(events, e.startGame()...)
	}
	return events
}

func (e *Engine) startGame() []Event {
	var events []Event
	for _, p := range e.game.Players {
		if p.Score != 0 {
			p.Score = 0
			events = append(events, privateEvent(EventScoreChanged, p.UserID, ScoreChangedPayload{UserID: p.UserID}))
		}
		if p.ScoreTier != 0 {
			p.ScoreTier = 0
			events = append(events, publicEvent(EventScoreTierChanged, ScoreTierChangedPayload{UserID: p.UserID}))
		}
	}

	e.game.Deck.ResetAndShuffle()
	for _, p := range e.game.Players {
		p.Hand = e.game.Deck.DrawMany(e.settings.HandSize)
	}

	e.game.CurrentIndex = 0
	e.game.WinnerID = ""
	e.game.Phase = domain.PhaseInProgress

	events = append(events, publicEvent(EventPhaseChanged, PhaseChangedPayload{Phase: domain.PhaseInProgress}))
	for _, p := range e.game.Players {
		events = append(events, e.handDealt(p, false))
	}
	return append(events, publicEvent(EventTurnChanged, TurnChangedPayload{CurrentUserID: e.game.CurrentUserID()}))
}

// actingPlayer enforces phase, registration and turn order.
func (e *Engine) actingPlayer(userID string) (*domain.Player, error) {
	if e.game.Phase != domain.PhaseInProgress {
		return nil, ErrNotPlaying
	}
	pl := e.game.Player(userID)
	if pl == nil {
		return nil, ErrUnknownPlayer
	}
	if e.game.CurrentUserID() != userID {
		return nil, ErrNotYourTurn
	}
	return pl, nil
}

func (e *Engine) validateSelection(pl *domain.Player, cards []domain.Card, limit int) ([]Event, error) {
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	if len(cards) > limit {
		return nil, ErrTooManyCards
	}
	if !domain.HasCards(pl.Hand, cards) {
		return []Event{e.handDealt(pl, true)}, ErrCardsNotInHand
	}
	return nil, nil
}

// replaceCards removes cards from the hand and draws back up to the hand
// size. The draw may come up short when the deck runs low.
func (e *Engine) replaceCards(pl *domain.Player, removed []domain.Card) Event {
	pl.Hand = domain.RemoveCards(pl.Hand, removed)
	added := e.game.Deck.DrawMany(e.settings.HandSize - len(pl.Hand))
	pl.Hand = append(pl.Hand, added...)

	return privateEvent(EventHandDelta, pl.UserID, HandDeltaPayload{
		UserID:  pl.UserID,
		Removed: removed,
		Added:   added,
	})
}

func (e *Engine) updateScoreTier(pl *domain.Player) []Event {
	tier := domain.ScoreTier(pl.Score, e.settings.TargetScore)
	if tier == pl.ScoreTier {
		return nil
	}
	pl.ScoreTier = tier
	return []Event{publicEvent(EventScoreTierChanged, ScoreTierChangedPayload{UserID: pl.UserID, Tier: tier})}
}

// checkForWinner ends the game when someone reached the target, or when the
// deck is exhausted, in which case the highest score wins.
func (e *Engine) checkForWinner() []Event {
	for _, p := range e.game.Players {
		if p.Score >= e.settings.TargetScore {
			return e.endGame(p.UserID)
		}
	}
	if e.game.Deck.IsEmpty() {
		return e.endGame(e.highestScorerID())
	}
	return nil
}

func (e *Engine) highestScorerID() string {
	if best := domain.HighestScorer(e.game.Players); best != nil {
		return best.UserID
	}
	return ""
}

func (e *Engine) endGame(winnerID string) []Event {
	if e.game.Phase == domain.PhaseGameOver {
		return nil
	}
	e.game.Phase = domain.PhaseGameOver
	e.game.CurrentIndex = -1
	e.game.WinnerID = winnerID

	scores := make(map[string]int, len(e.game.Players))
	for _, p := range e.game.Players {
		scores[p.UserID] = p.Score
	}
	return []Event{
		publicEvent(EventPhaseChanged, PhaseChangedPayload{Phase: domain.PhaseGameOver}),
		publicEvent(EventGameOver, GameOverPayload{WinnerID: winnerID, Scores: scores}),
	}
}

func (e *Engine) endTurn() []Event {
	if e.game.Phase != domain.PhaseInProgress || len(e.game.Players) < 2 {
		return nil
	}
	e.game.CurrentIndex = (e.game.CurrentIndex + 1) % len(e.game.Players)
	return []Event{publicEvent(EventTurnChanged, TurnChangedPayload{CurrentUserID: e.game.CurrentUserID()})}
}

func (e *Engine) handDealt(pl *domain.Player, resync bool) Event {
	return privateEvent(EventHandDealt, pl.UserID, HandDealtPayload{
		UserID: pl.UserID,
		Hand:   append([]domain.Card(nil), pl.Hand...),
		Resync: resync,
	})
}
