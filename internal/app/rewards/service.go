package rewards

import (
	"context"
	"fmt"

	"pokerduel/internal/app"
	"pokerduel/internal/ports"
)

// Result reports what a settlement did.
type Result struct {
	WinnerID string
	Amount   int64
	// Granted is false when nothing was paid, either because the game had no
	// eligible winner or because the reward was already granted.
	Granted bool
}

// Service pays the winner of a finished game.
type Service struct {
	rewards  ports.RewardPort
	amount   int64
	eligible func(userID string) bool
}

// NewService constructs a reward service. eligible filters winners who may be
// paid, such as excluding bots; nil accepts everyone.
func NewService(rewards ports.RewardPort, amount int64, eligible func(userID string) bool) *Service {
	if eligible == nil {
		eligible = func(string) bool { return true }
	}
	return &Service{rewards: rewards, amount: amount, eligible: eligible}
}

// RewardKey identifies one game of one match.
func RewardKey(matchID string, gameNumber int) string {
	return fmt.Sprintf("%s:%d", matchID, gameNumber)
}

// SettleGame credits the winner of the game identified by matchID and
// gameNumber. Settling the same game twice pays once.
func (s *Service) SettleGame(ctx context.Context, matchID string, gameNumber int, over app.GameOverPayload) (Result, error) {
	result := Result{WinnerID: over.WinnerID}
	if s == nil || s.rewards == nil || s.amount <= 0 {
		return result, nil
	}
	if over.WinnerID == "" || !s.eligible(over.WinnerID) {
		return result, nil
	}

	metadata := map[string]interface{}{
		"reason":      "game_win",
		"match_id":    matchID,
		"game_number": gameNumber,
		"score":       over.Scores[over.WinnerID],
	}
	granted, err := s.rewards.GrantRewardOnce(ctx, over.WinnerID, RewardKey(matchID, gameNumber), s.amount, metadata)
	if err != nil {
		return result, fmt.Errorf("failed to settle game %d of match %s: %w", gameNumber, matchID, err)
	}
	result.Granted = granted
	if granted {
		result.Amount = s.amount
	}
	return result, nil
}
