package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pokerduel/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const rewardCollection = "pokerduel_rewards"

// markerFields are copied from the grant metadata into the storage marker so
// a grant can be traced back to its game.
var markerFields = []string{"match_id", "game_number", "reason"}

// multiUpdater is the slice of runtime.NakamaModule the adapter needs.
type multiUpdater interface {
	MultiUpdate(ctx context.Context, accountUpdates []*runtime.AccountUpdate, storageWrites []*runtime.StorageWrite, storageDeletes []*runtime.StorageDelete, walletUpdates []*runtime.WalletUpdate, updateLedger bool) ([]*api.StorageObjectAck, []*runtime.WalletUpdateResult, error)
}

// NakamaRewardAdapter grants rewards using a create-only storage marker and a
// wallet update applied in one MultiUpdate.
type NakamaRewardAdapter struct {
	nk multiUpdater
}

// NewNakamaRewardAdapter creates a new reward adapter.
func NewNakamaRewardAdapter(nk multiUpdater) *NakamaRewardAdapter {
	return &NakamaRewardAdapter{nk: nk}
}

// GrantRewardOnce credits the reward and records a marker atomically.
func (a *NakamaRewardAdapter) GrantRewardOnce(ctx context.Context, userID, rewardKey string, amount int64, metadata map[string]interface{}) (bool, error) {
	if userID == "" || rewardKey == "" {
		return false, fmt.Errorf("userID and rewardKey are required")
	}
	if amount <= 0 {
		return false, fmt.Errorf("amount must be positive")
	}

	marker := map[string]interface{}{
		"amount":     amount,
		"granted_at": time.Now().UTC().Format(time.RFC3339),
	}
	for _, field := range markerFields {
		if v, ok := metadata[field]; ok {
			marker[field] = v
		}
	}
	value, err := json.Marshal(marker)
	if err != nil {
		return false, fmt.Errorf("failed to marshal reward marker: %w", err)
	}

	storageWrites := []*runtime.StorageWrite{
		{
			Collection:      rewardCollection,
			Key:             rewardKey,
			UserID:          userID,
			Value:           string(value),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}

	walletUpdates := []*runtime.WalletUpdate{
		{
			UserID:    userID,
			Changeset: map[string]int64{"gold": amount},
			Metadata:  metadata,
		},
	}

	_, _, err = a.nk.MultiUpdate(ctx, nil, storageWrites, nil, walletUpdates, true)
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to grant reward %s: %w", rewardKey, err)
	}

	return true, nil
}

var _ ports.RewardPort = (*NakamaRewardAdapter)(nil)
