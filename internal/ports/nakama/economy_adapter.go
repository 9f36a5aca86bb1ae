package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"pokerduel/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
)

// accountReader is the slice of runtime.NakamaModule the economy adapter needs.
type accountReader interface {
	AccountGetId(ctx context.Context, userID string) (*api.Account, error)
}

// NakamaEconomyAdapter implements ports.EconomyPort using Nakama's wallet system.
type NakamaEconomyAdapter struct {
	nk accountReader
}

// NewNakamaEconomyAdapter creates a new economy adapter.
func NewNakamaEconomyAdapter(nk accountReader) *NakamaEconomyAdapter {
	return &NakamaEconomyAdapter{
		nk: nk,
	}
}

// GetBalance retrieves the current gold balance for a user.
func (a *NakamaEconomyAdapter) GetBalance(ctx context.Context, userID string) (int64, error) {
	account, err := a.nk.AccountGetId(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	if account.GetWallet() == "" {
		return 0, nil
	}

	var wallet map[string]int64
	if err := json.Unmarshal([]byte(account.GetWallet()), &wallet); err != nil {
		return 0, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	return wallet["gold"], nil
}

var _ ports.EconomyPort = (*NakamaEconomyAdapter)(nil)
