package nakama

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"pokerduel/internal/app"
	"pokerduel/internal/app/rewards"
	"pokerduel/internal/bot"
	"pokerduel/internal/config"
	"pokerduel/internal/domain"
	"pokerduel/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

var errGameNotOver = errors.New("game is not over")

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	MatchID              string
	Tick                 int64
	Presences            map[string]runtime.Presence // UserId -> Presence for targeted messaging
	Engine               *app.Engine
	Bots                 map[string]*bot.Agent
	BotsEnabled          bool
	BotLevel             bot.BotLevel
	BotMinDelay          int   // seconds
	BotMaxDelay          int   // seconds
	BotAutoFillDelay     int   // seconds a lone human waits before a bot joins
	BotWaitUntil         int64 // tick when the current bot acts
	LastSinglePlayerTick int64 // tick when a single human started waiting
	TicketSecret         string
	GamesPlayed          int
	Rewards              *rewards.Service
	Economy              ports.EconomyPort
	rng                  *rand.Rand
}

// HumanCount returns the number of seated human players.
func (ms *MatchState) HumanCount() int {
	count := 0
	for _, p := range ms.Engine.Snapshot().Players {
		if !bot.IsBot(p.UserID) {
			count++
		}
	}
	return count
}

// OpenSeats counts empty seats plus bot seats a human could take over.
func (ms *MatchState) OpenSeats() int {
	snap := ms.Engine.Snapshot()
	open := matchCapacity - len(snap.Players)
	if snap.Phase != domain.PhaseInProgress {
		for _, p := range snap.Players {
			if bot.IsBot(p.UserID) {
				open++
			}
		}
	}
	return open
}

func (ms *MatchState) labelPhase() string {
	switch ms.Engine.Phase() {
	case domain.PhaseInProgress:
		return labelPhasePlaying
	case domain.PhaseGameOver:
		return labelPhaseOver
	default:
		return labelPhaseWaiting
	}
}

func (ms *MatchState) botDelay() int {
	spread := ms.BotMaxDelay - ms.BotMinDelay
	if spread <= 0 {
		return ms.BotMinDelay
	}
	return ms.BotMinDelay + ms.rng.Intn(spread+1)
}

// newMatchState builds match state from the node config, letting runtime
// env values override it.
func newMatchState(matchID string, cfg *config.GameConfig, env map[string]string) *MatchState {
	settings := app.Settings{
		TargetScore: envInt(env, envTargetScore, cfg.TargetScore),
		HandSize:    cfg.HandSize,
		MaxPlaySize: cfg.MaxPlaySize,
	}

	level, err := bot.ParseBotLevel(env[envBotLevel])
	if err != nil {
		level = bot.BotLevelPatient
	}

	state := &MatchState{
		MatchID:          matchID,
		Presences:        make(map[string]runtime.Presence),
		Engine:           app.NewEngine(settings, nil),
		Bots:             make(map[string]*bot.Agent),
		BotsEnabled:      env[envBotsEnabled] == "true",
		BotLevel:         level,
		BotMinDelay:      envInt(env, envBotMinDelay, cfg.BotMinDelaySeconds),
		BotMaxDelay:      envInt(env, envBotMaxDelay, cfg.BotMaxDelaySeconds),
		BotAutoFillDelay: envInt(env, envBotAutoFillDelay, cfg.BotAutoFillDelaySeconds),
		TicketSecret:     env[envTicketSecret],
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay
	}
	return state
}

func envInt(env map[string]string, key string, fallback int) int {
	if val, ok := env[key]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func isHuman(userID string) bool {
	return !bot.IsBot(userID)
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load game config, using defaults: %v", err)
	}
	if err := bot.LoadProfiles(botProfilesPath); err != nil {
		logger.Warn("MatchInit: Could not load bot profiles: %v", err)
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	cfg := config.GetGameConfig()

	state := newMatchState(matchID, cfg, env)
	if nk != nil {
		state.Economy = NewNakamaEconomyAdapter(nk)
		state.Rewards = rewards.NewService(NewNakamaRewardAdapter(nk), cfg.WinReward, isHuman)
	}

	label, err := encodeLabel(state.OpenSeats(), state.labelPhase())
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	logger.Info("MatchInit: match %s target=%d bots=%t", matchID, state.Engine.Settings().TargetScore, state.BotsEnabled)
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	userID := presence.GetUserId()

	if matchState.TicketSecret != "" {
		if err := verifyTicket(matchState.TicketSecret, metadata[metadataTicket], userID, matchState.MatchID); err != nil {
			logger.Warn("MatchJoinAttempt: Rejecting %s: %v", userID, err)
			return state, false, "invalid ticket"
		}
	}

	if matchState.Engine.HasPlayer(userID) {
		return state, true, ""
	}
	if matchState.OpenSeats() <= 0 {
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if matchState.Engine.HasPlayer(userID) {
			logger.Info("MatchJoin: User %s rejoined.", userID)
			mh.sendPrivateState(matchState, dispatcher, logger, userID)
			continue
		}

		events, err := mh.seatHuman(matchState, logger, userID)
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
		if err != nil {
			logger.Warn("MatchJoin: User %s joined but could not be seated: %v", userID, err)
			delete(matchState.Presences, userID)
			if kickErr := dispatcher.MatchKick([]runtime.Presence{p}); kickErr != nil {
				logger.Error("MatchJoin: Failed to kick %s: %v", userID, kickErr)
			}
			continue
		}
		logger.Info("MatchJoin: Seated %s.", userID)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshot(ctx, matchState, dispatcher, logger)

	return matchState
}

// seatHuman registers a human, first evicting a bot and clearing a finished
// game when that is what frees the seat.
func (mh *matchHandler) seatHuman(state *MatchState, logger runtime.Logger, userID string) ([]app.Event, error) {
	var events []app.Event

	if state.Engine.Phase() != domain.PhaseInProgress {
		if state.Engine.PlayerCount() >= matchCapacity {
			for _, p := range state.Engine.Snapshot().Players {
				if !bot.IsBot(p.UserID) {
					continue
				}
				left, err := state.Engine.UnregisterPlayer(p.UserID)
				if err != nil {
					return events, err
				}
				logger.Info("MatchJoin: Replacing bot %s with human %s", p.UserID, userID)
				mh.removeBot(state, p.UserID)
				events = append(events, left...)
				break
			}
		}
		if state.Engine.Phase() == domain.PhaseGameOver {
			events = append(events, state.Engine.Reset()...)
		}
	}

	joined, err := state.Engine.RegisterPlayer(userID)
	return append(events, joined...), err
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		events, err := matchState.Engine.UnregisterPlayer(userID)
		if err != nil {
			logger.Debug("MatchLeave: User %s was not seated: %v", userID, err)
			continue
		}
		logger.Debug("MatchLeave: User %s left.", userID)
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
	}

	if matchState.HumanCount() == 0 {
		for id := range matchState.Bots {
			mh.removeBot(matchState, id)
		}
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	// A forfeited game goes straight back to waiting for an opponent.
	if matchState.Engine.Phase() == domain.PhaseGameOver && matchState.Engine.PlayerCount() < matchCapacity {
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, matchState.Engine.Reset())
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshot(ctx, matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(ctx, matchState, dispatcher, logger, msg)
	}

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) handleMessage(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	userID := msg.GetUserId()
	opCode := msg.GetOpCode()

	switch opCode {
	case OpPlayCards, OpDiscardCards:
		cards, err := decodeCards(msg.GetData())
		if err != nil {
			logger.Warn("handleMessage: User %s sent bad cards for op %d: %v", userID, opCode, err)
			mh.sendRejection(state, dispatcher, logger, userID, opCode, err)
			return
		}
		kind := app.IntentPlay
		if opCode == OpDiscardCards {
			kind = app.IntentDiscard
		}
		mh.applyIntent(ctx, state, dispatcher, logger, app.Intent{Kind: kind, UserID: userID, Cards: cards}, opCode)
	case OpRequestResync:
		mh.applyIntent(ctx, state, dispatcher, logger, app.Intent{Kind: app.IntentResync, UserID: userID}, opCode)
	case OpRequestNewGame:
		if !state.Engine.HasPlayer(userID) || state.Engine.Phase() != domain.PhaseGameOver {
			logger.Warn("handleMessage: User %s requested a new game in phase %s", userID, state.Engine.Phase())
			mh.sendRejection(state, dispatcher, logger, userID, opCode, errGameNotOver)
			return
		}
		mh.applyIntent(ctx, state, dispatcher, logger, app.Intent{Kind: app.IntentReset, UserID: userID}, opCode)
		mh.broadcastSnapshot(ctx, state, dispatcher, logger)
	default:
		logger.Warn("MatchLoop: Unknown opcode received: %d", opCode)
	}
}

// applyIntent runs an intent and fans out its events. Rejected intents
// still deliver any resync they produced.
func (mh *matchHandler) applyIntent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, intent app.Intent, opCode int64) {
	events, err := state.Engine.Apply(intent)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"user_id": intent.UserID,
			"intent":  string(intent.Kind),
		}).Warn("Intent rejected: %v", err)
		mh.sendRejection(state, dispatcher, logger, intent.UserID, opCode, err)
	}
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill a lone human's table with a bot after a delay.
	if state.Engine.Phase() != domain.PhaseInProgress && state.Engine.PlayerCount() == 1 && state.HumanCount() == 1 {
		if state.LastSinglePlayerTick == 0 {
			state.LastSinglePlayerTick = state.Tick
			logger.Debug("processBots: Single player detected, starting auto-fill timer.")
		}
		if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
			state.LastSinglePlayerTick = 0
			mh.addBot(ctx, state, dispatcher, logger)
		}
	} else {
		state.LastSinglePlayerTick = 0
	}

	// 2. Take the bot's turn once its delay has elapsed.
	snap := state.Engine.Snapshot()
	agent, isBotTurn := state.Bots[snap.CurrentUserID]
	if snap.Phase != domain.PhaseInProgress || !isBotTurn {
		state.BotWaitUntil = 0
		return
	}
	if state.BotWaitUntil == 0 {
		state.BotWaitUntil = state.Tick + int64(state.botDelay())
		logger.Debug("processBots: Bot %s will act at tick %d (current %d)", agent.ID, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	intent, ok, err := agent.NextIntent(state.Engine)
	if err != nil {
		logger.Error("processBots: Bot %s failed to calculate move: %v", agent.ID, err)
		return
	}
	if !ok {
		return
	}
	opCode := OpPlayCards
	if intent.Kind == app.IntentDiscard {
		opCode = OpDiscardCards
	}
	mh.applyIntent(ctx, state, dispatcher, logger, intent, opCode)
}

func (mh *matchHandler) addBot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	agent, err := bot.NewAgent(state.BotLevel)
	if err != nil {
		logger.Error("addBot: Failed to create bot agent: %v", err)
		return
	}

	var events []app.Event
	if state.Engine.Phase() == domain.PhaseGameOver {
		events = append(events, state.Engine.Reset()...)
	}
	joined, err := state.Engine.RegisterPlayer(agent.ID)
	events = append(events, joined...)
	if err != nil {
		logger.Error("addBot: Failed to seat bot %s: %v", agent.ID, err)
		bot.ReleaseBot(agent.ID)
		mh.dispatchEvents(ctx, state, dispatcher, logger, events)
		return
	}

	state.Bots[agent.ID] = agent
	logger.Info("addBot: Added bot %s (%s, %s)", agent.Name, agent.ID, state.BotLevel)

	// The bot may have dealt the game, so its agent must exist before fan-out.
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastSnapshot(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) removeBot(state *MatchState, userID string) {
	delete(state.Bots, userID)
	bot.ReleaseBot(userID)
}

// dispatchEvents encodes engine events and sends them. Events with
// recipients only reach those presences and are dropped when none is
// connected, so private data never falls back to a broadcast.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	phaseChanged := false
	for _, ev := range events {
		switch p := ev.Payload.(type) {
		case app.PhaseChangedPayload:
			phaseChanged = true
		case app.GameOverPayload:
			mh.onGameOver(ctx, state, logger, p)
		}

		opCode, data, err := encodeEvent(ev)
		if err != nil {
			logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
			continue
		}

		var recipients []runtime.Presence
		if len(ev.Recipients) > 0 {
			for _, uid := range ev.Recipients {
				if p, ok := state.Presences[uid]; ok {
					recipients = append(recipients, p)
				}
			}
			if len(recipients) == 0 {
				continue
			}
		}

		if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
			logger.Error("Failed to send event %v: %v", ev.Kind, err)
		}
	}
	if phaseChanged {
		mh.updateLabel(state, dispatcher, logger)
	}
}

func (mh *matchHandler) onGameOver(ctx context.Context, state *MatchState, logger runtime.Logger, over app.GameOverPayload) {
	state.GamesPlayed++
	state.BotWaitUntil = 0
	logger.WithFields(map[string]interface{}{
		"match_id":    state.MatchID,
		"game_number": state.GamesPlayed,
		"winner_id":   over.WinnerID,
	}).Info("Game over.")

	result, err := state.Rewards.SettleGame(ctx, state.MatchID, state.GamesPlayed, over)
	if err != nil {
		logger.Error("Failed to settle game: %v", err)
		return
	}
	if result.Granted {
		logger.Info("Credited %d gold to winner %s", result.Amount, result.WinnerID)
	}
}

// sendPrivateState brings a reconnecting player back up to date.
func (mh *matchHandler) sendPrivateState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	view, ok := state.Engine.ViewFor(userID)
	if !ok {
		return
	}
	events := []app.Event{{
		Kind:       app.EventScoreChanged,
		Payload:    app.ScoreChangedPayload{UserID: userID, Score: view.Score},
		Recipients: []string{userID},
	}}
	if resync, err := state.Engine.RequestResync(userID); err == nil {
		events = append(events, resync...)
	}
	mh.dispatchEvents(context.Background(), state, dispatcher, logger, events)
}

func (mh *matchHandler) broadcastSnapshot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	snap := state.Engine.Snapshot()
	info := make(map[string]playerInfo, len(snap.Players))
	for _, p := range snap.Players {
		entry := playerInfo{DisplayName: p.UserID, IsBot: bot.IsBot(p.UserID)}
		if presence, ok := state.Presences[p.UserID]; ok {
			entry.DisplayName = presence.GetUsername()
		} else if name := bot.GetBotDisplayName(p.UserID); name != "" {
			entry.DisplayName = name
		}
		if state.Economy != nil && !entry.IsBot {
			if balance, err := state.Economy.GetBalance(ctx, p.UserID); err == nil {
				entry.Balance = &balance
			} else {
				logger.Warn("broadcastSnapshot: No balance for %s: %v", p.UserID, err)
			}
		}
		info[p.UserID] = entry
	}

	data, err := encodeSnapshot(snap, info)
	if err != nil {
		logger.Error("Failed to marshal snapshot: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpMatchSnapshot, data, nil, nil, true); err != nil {
		logger.Error("Failed to broadcast snapshot: %v", err)
	}
}

// sendRejection tells a single player why their message was dropped.
func (mh *matchHandler) sendRejection(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64, cause error) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	data, err := encodeRejection(opCode, cause)
	if err != nil {
		logger.Error("Failed to marshal rejection: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpRejected, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send rejection to %s: %v", userID, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := encodeLabel(state.OpenSeats(), state.labelPhase())
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	if matchState, ok := state.(*MatchState); ok {
		for id := range matchState.Bots {
			mh.removeBot(matchState, id)
		}
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
