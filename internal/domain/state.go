package domain

// Phase represents the lifecycle stage of a game.
type Phase string

const (
	// PhaseWaiting is the initial and reset state; players register here.
	PhaseWaiting Phase = "waiting_for_players"
	// PhaseInProgress is the active state where plays and discards are accepted.
	PhaseInProgress Phase = "in_progress"
	// PhaseGameOver is terminal until an explicit reset.
	PhaseGameOver Phase = "game_over"
)

// Player holds the authoritative per-player state. Hand is server-only.
type Player struct {
	UserID    string
	Number    int // 1-based assignment order
	Hand      []Card
	Score     int
	ScoreTier int
}

// Game captures the authoritative state of one game instance. WinnerID is
// empty unless Phase is PhaseGameOver, and may stay empty there when nobody
// is left to win.
type Game struct {
	Phase        Phase
	Players      []*Player // registration order; dealing and turns follow it
	CurrentIndex int       // -1 when no player is current
	WinnerID     string
	Deck         *Deck
}

// NewGame returns a game waiting for players.
func NewGame(deck *Deck) *Game {
	return &Game{
		Phase:        PhaseWaiting,
		CurrentIndex: -1,
		Deck:         deck,
	}
}

// Player returns the registered player with the given ID, or nil.
func (g *Game) Player(userID string) *Player {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is, or nil outside a game.
func (g *Game) CurrentPlayer() *Player {
	if g.Phase != PhaseInProgress || g.CurrentIndex < 0 || g.CurrentIndex >= len(g.Players) {
		return nil
	}
	return g.Players[g.CurrentIndex]
}

// CurrentUserID returns the current player's ID or "".
func (g *Game) CurrentUserID() string {
	if p := g.CurrentPlayer(); p != nil {
		return p.UserID
	}
	return ""
}
