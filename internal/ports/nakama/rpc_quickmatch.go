package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"pokerduel/internal/app"
	"pokerduel/internal/config"
	"pokerduel/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a match with an open seat.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
	Ticket  string `json:"ticket,omitempty"`
}

// HandScoreEntry is one row of the scoring table RPC.
type HandScoreEntry struct {
	Category   string `json:"category"`
	BaseChips  int    `json:"base_chips"`
	Multiplier int    `json:"multiplier"`
}

// PreviewScoreResponse is what a tentative selection would score.
type PreviewScoreResponse struct {
	Category   string `json:"category"`
	BaseChips  int    `json:"base_chips"`
	Multiplier int    `json:"multiplier"`
	Score      int    `json:"score"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcHandScoreTable, rpcHandScoreTable); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcPreviewScore, rpcPreviewScore)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("user session required", 16)
	}

	// Find any match of our game with a seat and no game being played.
	query := "+label.open:>=1 +label.game:" + MatchLabelGame + " -label.phase:" + labelPhasePlaying

	limit := 10
	authoritative := true

	minSize := 0
	maxSize := matchCapacity - 1

	resp := QuickMatchResponse{}
	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", runtime.NewError("failed to list matches", 13)
	}

	if len(matches) > 0 {
		resp.MatchID = matches[0].MatchId
	} else {
		// Seats are assigned in MatchJoin, not here.
		matchID, err := nk.MatchCreate(ctx, MatchNamePokerDuel, map[string]interface{}{})
		if err != nil {
			logger.Error("MatchCreate error: %v", err)
			return "", runtime.NewError("failed to create match", 13)
		}
		resp.MatchID = matchID
		resp.IsNew = true
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if secret := env[envTicketSecret]; secret != "" {
		ttl := time.Duration(config.GetGameConfig().TicketTTLSeconds) * time.Second
		ticket, err := issueTicket(secret, userID, resp.MatchID, ttl, time.Now())
		if err != nil {
			logger.Error("Ticket error: %v", err)
			return "", runtime.NewError("failed to issue ticket", 13)
		}
		resp.Ticket = ticket
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(b), nil
}

func rpcHandScoreTable(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	table := app.HandScoreTable()
	entries := make([]HandScoreEntry, 0, len(table))
	for _, category := range domain.Categories {
		score := table[category]
		entries = append(entries, HandScoreEntry{
			Category:   category.String(),
			BaseChips:  score.BaseChips,
			Multiplier: score.Multiplier,
		})
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(b), nil
}

// rpcPreviewScore scores {"cards": [...]} as evaluated, or as an explicit
// "category" when one is given.
func rpcPreviewScore(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	s, err := unmarshalStruct([]byte(payload))
	if err != nil {
		return "", runtime.NewError("invalid payload", 3)
	}
	cards, err := cardsField(s)
	if err != nil {
		return "", runtime.NewError(err.Error(), 3)
	}

	category := domain.Evaluate(cards)
	if name := s.GetFields()["category"].GetStringValue(); name != "" {
		parsed, ok := domain.ParseHandCategory(name)
		if !ok {
			return "", runtime.NewError("unknown category "+name, 3)
		}
		category = parsed
	}

	base := domain.HandScoreFor(category)
	resp := PreviewScoreResponse{
		Category:   category.String(),
		BaseChips:  base.BaseChips,
		Multiplier: base.Multiplier,
		Score:      app.PreviewScore(category, cards),
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(b), nil
}
