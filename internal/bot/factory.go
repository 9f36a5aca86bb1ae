package bot

import (
	"fmt"
)

// BotLevel selects a strategy.
type BotLevel int

const (
	BotLevelGreedy BotLevel = iota + 1
	BotLevelPatient
)

func (l BotLevel) String() string {
	switch l {
	case BotLevelGreedy:
		return "easy"
	case BotLevelPatient:
		return "medium"
	default:
		return fmt.Sprintf("BotLevel(%d)", int(l))
	}
}

// ParseBotLevel maps a difficulty name to a level.
func ParseBotLevel(name string) (BotLevel, error) {
	switch name {
	case "easy", "greedy":
		return BotLevelGreedy, nil
	case "medium", "patient", "":
		return BotLevelPatient, nil
	default:
		return 0, fmt.Errorf("unknown bot difficulty: %q", name)
	}
}

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel) (Brain, error) {
	switch level {
	case BotLevelGreedy:
		return &GreedyBot{}, nil
	case BotLevelPatient:
		return &PatientBot{Tuning: DefaultTuning}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
