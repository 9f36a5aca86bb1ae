package nakama

import (
	"errors"
	"fmt"
	"math"

	"pokerduel/internal/app"
	"pokerduel/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// errBadPayload marks client data that could not be decoded.
var errBadPayload = errors.New("malformed payload")

// Cards travel as {"suit": 0-3, "rank": 2-14, "code": "AS"}; code is
// informational and ignored on input.
func cardValue(c domain.Card) map[string]interface{} {
	return map[string]interface{}{
		"suit": int(c.Suit),
		"rank": int(c.Rank),
		"code": c.String(),
	}
}

func cardList(cards []domain.Card) []interface{} {
	out := make([]interface{}, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardValue(c))
	}
	return out
}

func marshalStruct(fields map[string]interface{}) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

func unmarshalStruct(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return s, nil
}

// decodeCards reads a {"cards": [...]} message.
func decodeCards(data []byte) ([]domain.Card, error) {
	s, err := unmarshalStruct(data)
	if err != nil {
		return nil, err
	}
	return cardsField(s)
}

func cardsField(s *structpb.Struct) ([]domain.Card, error) {
	list := s.GetFields()["cards"].GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: cards missing", errBadPayload)
	}
	cards := make([]domain.Card, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		obj := v.GetStructValue()
		if obj == nil {
			return nil, fmt.Errorf("%w: card %d is not an object", errBadPayload, i)
		}
		suit, okSuit := intField(obj, "suit")
		rank, okRank := intField(obj, "rank")
		c := domain.Card{Suit: domain.Suit(suit), Rank: domain.Rank(rank)}
		if !okSuit || !okRank || !c.Valid() {
			return nil, fmt.Errorf("%w: card %d is invalid", errBadPayload, i)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func intField(s *structpb.Struct, key string) (int32, bool) {
	nv, ok := s.GetFields()[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	f := nv.NumberValue
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int32(f), true
}

// encodeEvent maps an engine event to its op code and wire payload.
func encodeEvent(ev app.Event) (int64, []byte, error) {
	var (
		opCode int64
		fields map[string]interface{}
	)

	switch p := ev.Payload.(type) {
	case app.PlayerJoinedPayload:
		opCode = OpPlayerJoined
		fields = map[string]interface{}{"user_id": p.UserID, "number": p.Number}
	case app.PlayerLeftPayload:
		opCode = OpPlayerLeft
		fields = map[string]interface{}{"user_id": p.UserID}
	case app.HandDealtPayload:
		opCode = OpHandDealt
		fields = map[string]interface{}{"user_id": p.UserID, "hand": cardList(p.Hand), "resync": p.Resync}
	case app.HandDeltaPayload:
		opCode = OpHandDelta
		fields = map[string]interface{}{"user_id": p.UserID, "removed": cardList(p.Removed), "added": cardList(p.Added)}
	case app.ScoreChangedPayload:
		opCode = OpScoreChanged
		fields = map[string]interface{}{"user_id": p.UserID, "score": p.Score}
	case app.ScoreTierChangedPayload:
		opCode = OpScoreTierChanged
		fields = map[string]interface{}{"user_id": p.UserID, "tier": p.Tier}
	case app.TurnChangedPayload:
		opCode = OpTurnChanged
		fields = map[string]interface{}{"current_user_id": p.CurrentUserID}
	case app.PhaseChangedPayload:
		opCode = OpPhaseChanged
		fields = map[string]interface{}{"phase": string(p.Phase)}
	case app.CardsPlayedPayload:
		// Points stay off the public frame; the player learns them from ScoreChanged.
		opCode = OpCardsPlayed
		fields = map[string]interface{}{"user_id": p.UserID, "cards": cardList(p.Cards), "category": p.Category.String()}
	case app.CardsDiscardedPayload:
		opCode = OpCardsDiscarded
		fields = map[string]interface{}{"user_id": p.UserID, "count": p.Count}
	case app.GameOverPayload:
		opCode = OpGameOver
		scores := make(map[string]interface{}, len(p.Scores))
		for uid, score := range p.Scores {
			scores[uid] = score
		}
		fields = map[string]interface{}{"winner_id": p.WinnerID, "scores": scores}
	default:
		return 0, nil, fmt.Errorf("unknown event %s with payload %T", ev.Kind, ev.Payload)
	}

	data, err := marshalStruct(fields)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode event %s: %w", ev.Kind, err)
	}
	return opCode, data, nil
}

// playerInfo is the presentation data the match adds to a snapshot.
type playerInfo struct {
	DisplayName string
	IsBot       bool
	Balance     *int64
}

// encodeSnapshot renders the public match state. Exact scores are only
// included once the game is over.
func encodeSnapshot(snap app.GameSnapshot, info map[string]playerInfo) ([]byte, error) {
	players := make([]interface{}, 0, len(snap.Players))
	for _, p := range snap.Players {
		entry := map[string]interface{}{
			"user_id":      p.UserID,
			"number":       p.Number,
			"display_name": info[p.UserID].DisplayName,
			"is_bot":       info[p.UserID].IsBot,
			"score_tier":   p.ScoreTier,
			"hand_count":   p.HandCount,
		}
		if snap.Phase == domain.PhaseGameOver {
			entry["score"] = p.Score
		}
		if b := info[p.UserID].Balance; b != nil {
			entry["balance"] = *b
		}
		players = append(players, entry)
	}
	return marshalStruct(map[string]interface{}{
		"phase":           string(snap.Phase),
		"current_user_id": snap.CurrentUserID,
		"winner_id":       snap.WinnerID,
		"deck_remaining":  snap.DeckRemaining,
		"players":         players,
	})
}

// rejectionCode names an engine rejection for clients.
func rejectionCode(err error) string {
	switch {
	case errors.Is(err, errBadPayload):
		return "bad_payload"
	case errors.Is(err, errGameNotOver):
		return "game_not_over"
	case errors.Is(err, app.ErrNotPlaying):
		return "not_playing"
	case errors.Is(err, app.ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, app.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, app.ErrNoCards):
		return "no_cards"
	case errors.Is(err, app.ErrTooManyCards):
		return "too_many_cards"
	case errors.Is(err, app.ErrCardsNotInHand):
		return "cards_not_in_hand"
	default:
		return "rejected"
	}
}

func encodeRejection(opCode int64, err error) ([]byte, error) {
	return marshalStruct(map[string]interface{}{
		"op_code": opCode,
		"code":    rejectionCode(err),
		"message": err.Error(),
	})
}

func encodeLabel(open int, phase string) (string, error) {
	data, err := marshalStruct(map[string]interface{}{
		"open":  open,
		"game":  MatchLabelGame,
		"phase": phase,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
