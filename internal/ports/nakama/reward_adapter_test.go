package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMultiUpdater struct {
	writes  []*runtime.StorageWrite
	wallets []*runtime.WalletUpdate
	ledger  bool
	err     error
}

func (f *fakeMultiUpdater) MultiUpdate(ctx context.Context, accountUpdates []*runtime.AccountUpdate, storageWrites []*runtime.StorageWrite, storageDeletes []*runtime.StorageDelete, walletUpdates []*runtime.WalletUpdate, updateLedger bool) ([]*api.StorageObjectAck, []*runtime.WalletUpdateResult, error) {
	f.writes = storageWrites
	f.wallets = walletUpdates
	f.ledger = updateLedger
	return nil, nil, f.err
}

func TestGrantRewardOnceWritesTraceableMarker(t *testing.T) {
	nk := &fakeMultiUpdater{}
	adapter := NewNakamaRewardAdapter(nk)
	metadata := map[string]interface{}{
		"reason":      "game_win",
		"match_id":    "match-1",
		"game_number": 3,
		"score":       1040,
	}

	granted, err := adapter.GrantRewardOnce(context.Background(), "u1", "win:match-1:3", 50, metadata)
	require.NoError(t, err)
	assert.True(t, granted)

	require.Len(t, nk.writes, 1)
	write := nk.writes[0]
	assert.Equal(t, rewardCollection, write.Collection)
	assert.Equal(t, "win:match-1:3", write.Key)
	assert.Equal(t, "u1", write.UserID)
	assert.Equal(t, "*", write.Version)
	assert.Equal(t, runtime.STORAGE_PERMISSION_OWNER_READ, write.PermissionRead)
	assert.Equal(t, runtime.STORAGE_PERMISSION_NO_WRITE, write.PermissionWrite)

	var marker map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(write.Value), &marker))
	assert.Equal(t, float64(50), marker["amount"])
	assert.Equal(t, "match-1", marker["match_id"])
	assert.Equal(t, float64(3), marker["game_number"])
	assert.Equal(t, "game_win", marker["reason"])
	assert.NotEmpty(t, marker["granted_at"])
	assert.NotContains(t, marker, "score")

	require.Len(t, nk.wallets, 1)
	assert.Equal(t, map[string]int64{"gold": 50}, nk.wallets[0].Changeset)
	assert.Equal(t, metadata, nk.wallets[0].Metadata)
	assert.True(t, nk.ledger)
}

func TestGrantRewardOnceRejectedVersionIsNotGranted(t *testing.T) {
	nk := &fakeMultiUpdater{err: runtime.ErrStorageRejectedVersion}
	granted, err := NewNakamaRewardAdapter(nk).GrantRewardOnce(context.Background(), "u1", "win:m:1", 50, nil)
	require.NoError(t, err)
	assert.False(t, granted)

	nk.err = errors.New("db down")
	_, err = NewNakamaRewardAdapter(nk).GrantRewardOnce(context.Background(), "u1", "win:m:1", 50, nil)
	assert.ErrorIs(t, err, nk.err)
}

func TestGrantRewardOnceValidatesArguments(t *testing.T) {
	adapter := NewNakamaRewardAdapter(&fakeMultiUpdater{})
	_, err := adapter.GrantRewardOnce(context.Background(), "", "k", 50, nil)
	assert.Error(t, err)
	_, err = adapter.GrantRewardOnce(context.Background(), "u1", "k", 0, nil)
	assert.Error(t, err)
}
