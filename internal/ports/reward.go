package ports

import "context"

// RewardPort credits match rewards at most once per reward key.
type RewardPort interface {
	// GrantRewardOnce credits amount to userID unless rewardKey was already
	// granted to that user. Returns granted=false for a repeat.
	GrantRewardOnce(ctx context.Context, userID, rewardKey string, amount int64, metadata map[string]interface{}) (bool, error)
}
