package app

import "pokerduel/internal/domain"

// PlayersToStartGame is the number of registered players that triggers a deal.
// The table never seats more.
const PlayersToStartGame = domain.MaxPlayers
