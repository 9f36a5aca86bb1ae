package bot

import (
	"fmt"

	"pokerduel/internal/app"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// NewAgent builds an agent with a fresh identity for the given level.
func NewAgent(level BotLevel) (*Agent, error) {
	brain, err := NewBrain(level)
	if err != nil {
		return nil, err
	}
	id := NewBotIdentity(level)
	return &Agent{ID: id.UserID, Name: id.DisplayName, Strategy: brain}, nil
}

// NextIntent asks the agent for its move. ok is false when it is not the
// agent's turn or the agent is not seated.
func (a *Agent) NextIntent(engine *app.Engine) (intent app.Intent, ok bool, err error) {
	view, seated := engine.ViewFor(a.ID)
	if !seated || !view.IsCurrent {
		return app.Intent{}, false, nil
	}

	move, err := a.Strategy.CalculateMove(view)
	if err != nil {
		return app.Intent{}, false, fmt.Errorf("bot %s: %w", a.ID, err)
	}
	kind := app.IntentPlay
	if move.Discard {
		kind = app.IntentDiscard
	}
	return app.Intent{Kind: kind, UserID: a.ID, Cards: move.Cards}, true, nil
}
