package nakama

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pokerduel/internal/app/rewards"
	"pokerduel/internal/bot"
	"pokerduel/internal/config"
	"pokerduel/internal/domain"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode     int64
	data       map[string]interface{}
	recipients []string // nil for broadcast
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages []sentMessage
	labels   []string
	kicked   []string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	msg := sentMessage{opCode: opCode}
	if err := json.Unmarshal(data, &msg.data); err != nil {
		return err
	}
	for _, p := range presences {
		msg.recipients = append(msg.recipients, p.GetUserId())
	}
	md.messages = append(md.messages, msg)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return md.BroadcastMessage(opCode, data, presences, sender, reliable)
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	for _, p := range presences {
		md.kicked = append(md.kicked, p.GetUserId())
	}
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labels = append(md.labels, label)
	return nil
}

func (md *mockDispatcher) reset() {
	md.messages = nil
	md.labels = nil
}

func (md *mockDispatcher) byOp(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.messages {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

func (md *mockDispatcher) lastLabel(t *testing.T) map[string]interface{} {
	t.Helper()
	require.NotEmpty(t, md.labels, "no label update")
	var label map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(md.labels[len(md.labels)-1]), &label))
	return label
}

type mockPresence struct {
	userID string
}

func (p mockPresence) GetHidden() bool                   { return false }
func (p mockPresence) GetPersistence() bool              { return false }
func (p mockPresence) GetUsername() string               { return "name-" + p.userID }
func (p mockPresence) GetStatus() string                 { return "" }
func (p mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p mockPresence) GetUserId() string                 { return p.userID }
func (p mockPresence) GetSessionId() string              { return "session-" + p.userID }
func (p mockPresence) GetNodeId() string                 { return "node" }

type mockMatchData struct {
	mockPresence
	opCode int64
	data   []byte
}

func (m mockMatchData) GetOpCode() int64      { return m.opCode }
func (m mockMatchData) GetData() []byte       { return m.data }
func (m mockMatchData) GetReliable() bool     { return true }
func (m mockMatchData) GetReceiveTime() int64 { return 0 }

// mockAccounts serves wallets to the economy adapter.
type mockAccounts struct {
	wallets map[string]string
}

func (m *mockAccounts) AccountGetId(ctx context.Context, userID string) (*api.Account, error) {
	return &api.Account{Wallet: m.wallets[userID]}, nil
}

type fakeRewardPort struct {
	grants map[string]int64
}

func (f *fakeRewardPort) GrantRewardOnce(ctx context.Context, userID, rewardKey string, amount int64, metadata map[string]interface{}) (bool, error) {
	if f.grants == nil {
		f.grants = make(map[string]int64)
	}
	key := userID + "/" + rewardKey
	if _, ok := f.grants[key]; ok {
		return false, nil
	}
	f.grants[key] = amount
	return true, nil
}

type testMatch struct {
	handler    *matchHandler
	state      *MatchState
	dispatcher *mockDispatcher
	tick       int64
}

func newTestMatch(t *testing.T, env map[string]string) *testMatch {
	t.Helper()
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, env)
	ctx = context.WithValue(ctx, runtime.RUNTIME_CTX_MATCH_ID, "match-1")

	handler := &matchHandler{}
	raw, rate, label := handler.MatchInit(ctx, noopLogger{}, nil, nil, nil)
	require.NotNil(t, raw)
	assert.Equal(t, tickRate, rate)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(label), &parsed))
	assert.Equal(t, map[string]interface{}{"open": float64(2), "game": MatchLabelGame, "phase": labelPhaseWaiting}, parsed)

	return &testMatch{handler: handler, state: raw.(*MatchState), dispatcher: &mockDispatcher{}}
}

func (tm *testMatch) join(t *testing.T, userIDs ...string) {
	t.Helper()
	presences := make([]runtime.Presence, 0, len(userIDs))
	for _, id := range userIDs {
		presences = append(presences, mockPresence{userID: id})
	}
	out := tm.handler.MatchJoin(context.Background(), noopLogger{}, nil, nil, tm.dispatcher, tm.tick, tm.state, presences)
	require.NotNil(t, out)
}

func (tm *testMatch) leave(userID string) interface{} {
	return tm.handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, tm.dispatcher, tm.tick, tm.state, []runtime.Presence{mockPresence{userID: userID}})
}

func (tm *testMatch) loop(messages ...runtime.MatchData) {
	tm.tick++
	tm.handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, tm.dispatcher, tm.tick, tm.state, messages)
}

func (tm *testMatch) send(userID string, opCode int64, data []byte) {
	tm.loop(mockMatchData{mockPresence: mockPresence{userID: userID}, opCode: opCode, data: data})
}

func (tm *testMatch) sendCards(t *testing.T, userID string, opCode int64, cards []domain.Card) {
	t.Helper()
	data, err := marshalStruct(map[string]interface{}{"cards": cardList(cards)})
	require.NoError(t, err)
	tm.send(userID, opCode, data)
}

func humanEnv() map[string]string {
	return map[string]string{envBotsEnabled: "false"}
}

func TestMatchJoinDealsAndRoutesPrivately(t *testing.T) {
	tm := newTestMatch(t, humanEnv())

	tm.join(t, "user-1")
	assert.Equal(t, domain.PhaseWaiting, tm.state.Engine.Phase())
	assert.Empty(t, tm.dispatcher.byOp(OpHandDealt))

	tm.join(t, "user-2")
	assert.Equal(t, domain.PhaseInProgress, tm.state.Engine.Phase())

	dealt := tm.dispatcher.byOp(OpHandDealt)
	require.Len(t, dealt, 2)
	for _, m := range dealt {
		require.Len(t, m.recipients, 1, "hands are private")
		assert.Equal(t, m.recipients[0], m.data["user_id"])
		assert.Len(t, m.data["hand"], domain.DefaultHandSize)
	}

	turns := tm.dispatcher.byOp(OpTurnChanged)
	require.NotEmpty(t, turns)
	assert.Nil(t, turns[len(turns)-1].recipients)
	assert.Equal(t, "user-1", turns[len(turns)-1].data["current_user_id"])

	snapshots := tm.dispatcher.byOp(OpMatchSnapshot)
	require.NotEmpty(t, snapshots)
	last := snapshots[len(snapshots)-1]
	assert.Nil(t, last.recipients)
	assert.Equal(t, string(domain.PhaseInProgress), last.data["phase"])
	players := last.data["players"].([]interface{})
	require.Len(t, players, 2)
	first := players[0].(map[string]interface{})
	assert.Equal(t, "name-user-1", first["display_name"])
	assert.NotContains(t, first, "score", "scores stay hidden while playing")

	label := tm.dispatcher.lastLabel(t)
	assert.Equal(t, float64(0), label["open"])
	assert.Equal(t, labelPhasePlaying, label["phase"])
}

func TestMatchJoinAttempt(t *testing.T) {
	tm := newTestMatch(t, humanEnv())
	attempt := func(userID string, metadata map[string]string) (bool, string) {
		_, ok, reason := tm.handler.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, tm.dispatcher, 0, tm.state, mockPresence{userID: userID}, metadata)
		return ok, reason
	}

	ok, _ := attempt("user-1", nil)
	assert.True(t, ok)

	tm.join(t, "user-1", "user-2")

	ok, reason := attempt("user-3", nil)
	assert.False(t, ok)
	assert.Equal(t, "Match full", reason)

	ok, _ = attempt("user-2", nil)
	assert.True(t, ok, "seated players may reconnect")
}

func TestMatchJoinAttemptRequiresTicket(t *testing.T) {
	tm := newTestMatch(t, map[string]string{envTicketSecret: "secret"})
	attempt := func(metadata map[string]string) bool {
		_, ok, _ := tm.handler.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, tm.dispatcher, 0, tm.state, mockPresence{userID: "user-1"}, metadata)
		return ok
	}

	assert.False(t, attempt(nil))

	other, err := issueTicket("secret", "user-1", "match-2", time.Minute, time.Now())
	require.NoError(t, err)
	assert.False(t, attempt(map[string]string{metadataTicket: other}))

	ticket, err := issueTicket("secret", "user-1", "match-1", time.Minute, time.Now())
	require.NoError(t, err)
	assert.True(t, attempt(map[string]string{metadataTicket: ticket}))
}

func TestMatchRejoinResendsPrivateState(t *testing.T) {
	tm := newTestMatch(t, humanEnv())
	tm.join(t, "user-1", "user-2")
	tm.dispatcher.reset()

	tm.join(t, "user-2")

	dealt := tm.dispatcher.byOp(OpHandDealt)
	require.Len(t, dealt, 1)
	assert.Equal(t, []string{"user-2"}, dealt[0].recipients)

	scores := tm.dispatcher.byOp(OpScoreChanged)
	require.Len(t, scores, 1)
	assert.Equal(t, []string{"user-2"}, scores[0].recipients)
	assert.Equal(t, 2, tm.state.Engine.PlayerCount())
}

func TestMatchLoopPlayScoresPrivately(t *testing.T) {
	tm := newTestMatch(t, humanEnv())
	tm.join(t, "user-1", "user-2")
	tm.dispatcher.reset()

	hand, _ := tm.state.Engine.Hand("user-1")
	tm.sendCards(t, "user-1", OpPlayCards, hand[:1])

	played := tm.dispatcher.byOp(OpCardsPlayed)
	require.Len(t, played, 1)
	assert.Nil(t, played[0].recipients)
	assert.NotContains(t, played[0].data, "points")
	assert.Equal(t, domain.HighCard.String(), played[0].data["category"])

	scores := tm.dispatcher.byOp(OpScoreChanged)
	require.Len(t, scores, 1)
	assert.Equal(t, []string{"user-1"}, scores[0].recipients)

	delta := tm.dispatcher.byOp(OpHandDelta)
	require.Len(t, delta, 1)
	assert.Equal(t, []string{"user-1"}, delta[0].recipients)

	assert.Equal(t, "user-2", tm.state.Engine.Snapshot().CurrentUserID)
}

func TestMatchLoopRejections(t *testing.T) {
	tm := newTestMatch(t, humanEnv())
	tm.join(t, "user-1", "user-2")

	tests := []struct {
		name   string
		send   func()
		code   string
		resync bool
	}{
		{
			name: "OutOfTurn",
			send: func() {
				hand, _ := tm.state.Engine.Hand("user-2")
				tm.sendCards(t, "user-2", OpPlayCards, hand[:1])
			},
			code: "not_your_turn",
		},
		{
			name: "Garbage",
			send: func() { tm.send("user-2", OpDiscardCards, []byte("not json")) },
			code: "bad_payload",
		},
		{
			name: "InvalidCard",
			send: func() { tm.send("user-1", OpPlayCards, []byte(`{"cards":[{"suit":9,"rank":20}]}`)) },
			code: "bad_payload",
		},
		{
			name: "NewGameMidGame",
			send: func() { tm.send("user-1", OpRequestNewGame, []byte("{}")) },
			code: "game_not_over",
		},
		{
			name: "CardNotHeld",
			send: func() {
				hand, _ := tm.state.Engine.Hand("user-2")
				tm.sendCards(t, "user-1", OpPlayCards, hand[:1])
			},
			code:   "cards_not_in_hand",
			resync: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tm.dispatcher.reset()
			test.send()

			rejected := tm.dispatcher.byOp(OpRejected)
			require.Len(t, rejected, 1)
			assert.Len(t, rejected[0].recipients, 1)
			assert.Equal(t, test.code, rejected[0].data["code"])

			dealt := tm.dispatcher.byOp(OpHandDealt)
			if test.resync {
				require.Len(t, dealt, 1)
				assert.Equal(t, true, dealt[0].data["resync"])
			} else {
				assert.Empty(t, dealt)
			}
			assert.Empty(t, tm.dispatcher.byOp(OpTurnChanged), "rejections never advance the turn")
		})
	}
}

func TestMatchGameOverSettlesAndRematches(t *testing.T) {
	tm := newTestMatch(t, map[string]string{envTargetScore: "1"})
	port := &fakeRewardPort{}
	tm.state.Rewards = rewards.NewService(port, 100, isHuman)
	tm.join(t, "user-1", "user-2")

	hand, _ := tm.state.Engine.Hand("user-1")
	tm.sendCards(t, "user-1", OpPlayCards, hand[:1])

	require.Equal(t, domain.PhaseGameOver, tm.state.Engine.Phase())
	over := tm.dispatcher.byOp(OpGameOver)
	require.Len(t, over, 1)
	assert.Equal(t, "user-1", over[0].data["winner_id"])
	assert.Equal(t, 1, tm.state.GamesPlayed)
	assert.Equal(t, map[string]int64{"user-1/" + rewards.RewardKey("match-1", 1): 100}, port.grants)
	assert.Equal(t, labelPhaseOver, tm.dispatcher.lastLabel(t)["phase"])

	tm.dispatcher.reset()
	tm.send("user-2", OpRequestNewGame, []byte("{}"))

	assert.Equal(t, domain.PhaseInProgress, tm.state.Engine.Phase())
	assert.Len(t, tm.dispatcher.byOp(OpHandDealt), 2)
	assert.NotEmpty(t, tm.dispatcher.byOp(OpMatchSnapshot))
}

func TestMatchLeaveForfeitsThenTerminates(t *testing.T) {
	tm := newTestMatch(t, humanEnv())
	tm.join(t, "user-1", "user-2")
	tm.dispatcher.reset()

	out := tm.leave("user-2")
	require.NotNil(t, out)

	over := tm.dispatcher.byOp(OpGameOver)
	require.Len(t, over, 1)
	assert.Equal(t, "user-1", over[0].data["winner_id"])
	assert.Equal(t, domain.PhaseWaiting, tm.state.Engine.Phase(), "a forfeited table waits for a new opponent")

	label := tm.dispatcher.lastLabel(t)
	assert.Equal(t, float64(1), label["open"])
	assert.Equal(t, labelPhaseWaiting, label["phase"])

	assert.Nil(t, tm.leave("user-1"))
}

func TestMatchJoinAfterFullKicks(t *testing.T) {
	tm := newTestMatch(t, humanEnv())
	tm.join(t, "user-1", "user-2")

	tm.join(t, "user-3")

	assert.Equal(t, []string{"user-3"}, tm.dispatcher.kicked)
	assert.NotContains(t, tm.state.Presences, "user-3")
	assert.False(t, tm.state.Engine.HasPlayer("user-3"))
}

func botEnv() map[string]string {
	return map[string]string{
		envBotsEnabled:      "true",
		envBotLevel:         "easy",
		envBotMinDelay:      "1",
		envBotMaxDelay:      "1",
		envBotAutoFillDelay: "2",
	}
}

func TestProcessBotsAutoFillsAndPlays(t *testing.T) {
	tm := newTestMatch(t, botEnv())
	tm.join(t, "user-1")
	require.Equal(t, 1, tm.state.HumanCount())

	tm.loop()
	tm.loop()
	assert.Empty(t, tm.state.Bots, "bot waits for the auto-fill delay")

	tm.loop()
	require.Len(t, tm.state.Bots, 1)
	assert.Equal(t, domain.PhaseInProgress, tm.state.Engine.Phase())
	assert.Equal(t, 0, tm.state.OpenSeats())

	var botID string
	for id := range tm.state.Bots {
		botID = id
	}
	assert.True(t, bot.IsBot(botID))
	for _, m := range tm.dispatcher.byOp(OpHandDealt) {
		assert.NotEqual(t, []string{botID}, m.recipients, "bots have no presence")
	}

	snapshots := tm.dispatcher.byOp(OpMatchSnapshot)
	require.NotEmpty(t, snapshots)
	players := snapshots[len(snapshots)-1].data["players"].([]interface{})
	require.Len(t, players, 2)
	assert.Equal(t, true, players[1].(map[string]interface{})["is_bot"])

	// The human opens; the bot answers after its delay.
	hand, _ := tm.state.Engine.Hand("user-1")
	tm.sendCards(t, "user-1", OpPlayCards, hand[:1])
	require.Equal(t, botID, tm.state.Engine.Snapshot().CurrentUserID)

	tm.dispatcher.reset()
	tm.loop()
	tm.loop()
	if tm.state.Engine.Phase() == domain.PhaseInProgress {
		assert.Equal(t, "user-1", tm.state.Engine.Snapshot().CurrentUserID)
	}
	assert.NotEmpty(t, append(tm.dispatcher.byOp(OpCardsPlayed), tm.dispatcher.byOp(OpCardsDiscarded)...))
}

func TestHumanReplacesBotAfterGameOver(t *testing.T) {
	env := botEnv()
	env[envTargetScore] = "1"
	tm := newTestMatch(t, env)
	tm.join(t, "user-1")
	for i := 0; i < 3; i++ {
		tm.loop()
	}
	require.Len(t, tm.state.Bots, 1)

	hand, _ := tm.state.Engine.Hand("user-1")
	tm.sendCards(t, "user-1", OpPlayCards, hand[:1])
	require.Equal(t, domain.PhaseGameOver, tm.state.Engine.Phase())
	assert.Equal(t, 1, tm.state.OpenSeats(), "a finished bot seat is open to humans")

	tm.join(t, "user-2")

	assert.Empty(t, tm.state.Bots)
	assert.Equal(t, 2, tm.state.HumanCount())
	assert.Equal(t, domain.PhaseInProgress, tm.state.Engine.Phase())
	assert.Empty(t, tm.dispatcher.kicked)
}

func TestMatchTerminatesWhenOnlyBotsRemain(t *testing.T) {
	tm := newTestMatch(t, botEnv())
	tm.join(t, "user-1")
	for i := 0; i < 3; i++ {
		tm.loop()
	}
	require.Len(t, tm.state.Bots, 1)

	assert.Nil(t, tm.leave("user-1"))
	assert.Empty(t, tm.state.Bots)
}

func TestSnapshotIncludesHumanBalances(t *testing.T) {
	tm := newTestMatch(t, humanEnv())
	tm.state.Economy = NewNakamaEconomyAdapter(&mockAccounts{wallets: map[string]string{"user-1": `{"gold":1200}`}})

	tm.join(t, "user-1")

	snapshots := tm.dispatcher.byOp(OpMatchSnapshot)
	require.Len(t, snapshots, 1)
	players := snapshots[0].data["players"].([]interface{})
	require.Len(t, players, 1)
	assert.Equal(t, float64(1200), players[0].(map[string]interface{})["balance"])
}

func TestEconomyAdapterGetBalance(t *testing.T) {
	adapter := NewNakamaEconomyAdapter(&mockAccounts{wallets: map[string]string{
		"rich":  `{"gold":500,"gems":3}`,
		"empty": "",
		"bad":   "{",
	}})

	balance, err := adapter.GetBalance(context.Background(), "rich")
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	balance, err = adapter.GetBalance(context.Background(), "empty")
	require.NoError(t, err)
	assert.Zero(t, balance)

	_, err = adapter.GetBalance(context.Background(), "bad")
	assert.Error(t, err)
}

func TestNewMatchStateEnvOverrides(t *testing.T) {
	state := newMatchState("m", config.Default(), map[string]string{
		envTargetScore: "250",
		envBotMinDelay: "4",
		envBotMaxDelay: "2",
		envBotLevel:    "nonsense",
	})
	assert.Equal(t, 250, state.Engine.Settings().TargetScore)
	assert.Equal(t, 4, state.BotMinDelay)
	assert.Equal(t, 4, state.BotMaxDelay, "max delay never drops below min")
	assert.Equal(t, bot.BotLevelPatient, state.BotLevel)
	assert.False(t, state.BotsEnabled)
	assert.Equal(t, 4, state.botDelay())
}
