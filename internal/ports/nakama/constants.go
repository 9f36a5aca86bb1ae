package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a match with an open seat.
	RpcQuickMatch = "quick_match"
	// RpcHandScoreTable returns the category scoring table.
	RpcHandScoreTable = "hand_score_table"
	// RpcPreviewScore scores a tentative selection without touching any match.
	RpcPreviewScore = "preview_score"

	// MatchNamePokerDuel is the authoritative match handler name registered with Nakama.
	MatchNamePokerDuel = "pokerduel_match"

	// MatchLabelGame identifies our matches in label queries.
	MatchLabelGame = "pokerduel"

	// matchCapacity is the number of seats in a match.
	matchCapacity = 2

	// tickRate is in ticks per second; bot delays are counted in ticks.
	tickRate = 1

	gameConfigPath  = "data/game_config.json"
	botProfilesPath = "data/bot_profiles.json"
)

// Label phases. Quick match only joins matches that are not playing.
const (
	labelPhaseWaiting = "waiting"
	labelPhasePlaying = "playing"
	labelPhaseOver    = "game_over"
)

// Environment keys read from the Nakama runtime env.
const (
	envBotsEnabled      = "pokerduel_bots_enabled"
	envBotLevel         = "pokerduel_bot_level"
	envBotMinDelay      = "pokerduel_bot_min_delay_sec"
	envBotMaxDelay      = "pokerduel_bot_max_delay_sec"
	envBotAutoFillDelay = "pokerduel_bot_auto_fill_delay_sec"
	envTicketSecret     = "pokerduel_ticket_secret"
	envTargetScore      = "pokerduel_target_score"
)

// Join metadata key carrying the ticket from quick_match.
const metadataTicket = "ticket"

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpPlayCards      int64 = 1
	OpDiscardCards   int64 = 2
	OpRequestResync  int64 = 3
	OpRequestNewGame int64 = 4

	// Server -> Client events
	OpHandDealt        int64 = 101 // private
	OpHandDelta        int64 = 102 // private
	OpScoreChanged     int64 = 103 // private
	OpScoreTierChanged int64 = 104
	OpTurnChanged      int64 = 105
	OpPhaseChanged     int64 = 106
	OpGameOver         int64 = 107
	OpCardsPlayed      int64 = 108
	OpCardsDiscarded   int64 = 109
	OpPlayerJoined     int64 = 110
	OpPlayerLeft       int64 = 111
	OpMatchSnapshot    int64 = 112
	OpRejected         int64 = 113 // private
)
