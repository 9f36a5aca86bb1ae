package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// GameConfig holds the tunables shared by every match on the node.
type GameConfig struct {
	TargetScore int `json:"target_score"`
	HandSize    int `json:"hand_size"`
	MaxPlaySize int `json:"max_play_size"`
	MaxPlayers  int `json:"max_players"`
	// WinReward is the gold credited to a human winner. Zero disables payouts.
	WinReward int64 `json:"win_reward"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding a bot to a solo human lobby.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
	BotMinDelaySeconds      int `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds      int `json:"bot_max_delay_seconds"`
	TicketTTLSeconds        int `json:"ticket_ttl_seconds"`
}

const (
	defaultTargetScore      = 1000
	defaultHandSize         = 6
	defaultMaxPlaySize      = 5
	defaultMaxPlayers       = 2
	defaultWinReward        = 100
	defaultBotAutoFillDelay = 10
	defaultBotMinDelay      = 1
	defaultBotMaxDelay      = 3
	defaultTicketTTL        = 60
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid game config")

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// Default returns the built-in configuration.
func Default() *GameConfig {
	return (&GameConfig{}).WithDefaults()
}

// WithDefaults returns a copy with unset fields filled in.
func (c *GameConfig) WithDefaults() *GameConfig {
	out := *c
	if out.TargetScore <= 0 {
		out.TargetScore = defaultTargetScore
	}
	if out.HandSize <= 0 {
		out.HandSize = defaultHandSize
	}
	if out.MaxPlaySize <= 0 {
		out.MaxPlaySize = defaultMaxPlaySize
	}
	if out.MaxPlayers <= 0 {
		out.MaxPlayers = defaultMaxPlayers
	}
	if out.WinReward < 0 {
		out.WinReward = defaultWinReward
	}
	if out.BotAutoFillDelaySeconds <= 0 {
		out.BotAutoFillDelaySeconds = defaultBotAutoFillDelay
	}
	if out.BotMinDelaySeconds <= 0 {
		out.BotMinDelaySeconds = defaultBotMinDelay
	}
	if out.BotMaxDelaySeconds <= 0 {
		out.BotMaxDelaySeconds = defaultBotMaxDelay
	}
	if out.TicketTTLSeconds <= 0 {
		out.TicketTTLSeconds = defaultTicketTTL
	}
	return &out
}

// Validate checks relationships between fields.
func (c *GameConfig) Validate() error {
	if c.MaxPlayers != defaultMaxPlayers {
		return fmt.Errorf("%w: max_players must be %d, got %d", ErrInvalidConfig, defaultMaxPlayers, c.MaxPlayers)
	}
	if c.MaxPlaySize > c.HandSize {
		return fmt.Errorf("%w: max_play_size %d exceeds hand_size %d", ErrInvalidConfig, c.MaxPlaySize, c.HandSize)
	}
	if c.HandSize*c.MaxPlayers > 52 {
		return fmt.Errorf("%w: hand_size %d cannot be dealt to %d players", ErrInvalidConfig, c.HandSize, c.MaxPlayers)
	}
	if c.BotMinDelaySeconds > c.BotMaxDelaySeconds {
		return fmt.Errorf("%w: bot_min_delay_seconds %d exceeds bot_max_delay_seconds %d",
			ErrInvalidConfig, c.BotMinDelaySeconds, c.BotMaxDelaySeconds)
	}
	return nil
}

// Parse decodes a JSON document, applies defaults and validates the result.
func Parse(data []byte) (*GameConfig, error) {
	var c GameConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	out := c.WithDefaults()
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadGameConfig loads the game configuration from the given path. Only the
// first call reads the file.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}
		cfg, loadErr = Parse(data)
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration, or the defaults when
// nothing has been loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		return Default()
	}
	return cfg
}
