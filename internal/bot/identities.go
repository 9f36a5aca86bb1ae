package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// BotIDPrefix marks user IDs that belong to server-side bots. Bots are not
// Nakama accounts.
const BotIDPrefix = "bot-"

// BotProfile is the presentation of a bot, loaded from the profile file.
type BotProfile struct {
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "easy", "medium"
	AvatarIndex int    `json:"avatar_index"`
}

// BotIdentity is a profile bound to a generated user ID.
type BotIdentity struct {
	UserID string
	BotProfile
}

var defaultProfiles = []BotProfile{
	{DisplayName: "Dealer Dan", Difficulty: "easy", AvatarIndex: 1},
	{DisplayName: "Flush Fiona", Difficulty: "medium", AvatarIndex: 2},
	{DisplayName: "Kicker Kai", Difficulty: "easy", AvatarIndex: 3},
	{DisplayName: "River Rosa", Difficulty: "medium", AvatarIndex: 4},
}

var (
	mu       sync.Mutex
	profiles = defaultProfiles
	nextPick int
	active   = map[string]BotIdentity{}
	loadOnce sync.Once
	loadErr  error
)

// LoadProfiles replaces the built-in profiles with the ones at path.
func LoadProfiles(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot profiles: %w", err)
			return
		}

		var loaded []BotProfile
		if err := json.Unmarshal(data, &loaded); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot profiles: %w", err)
			return
		}
		if len(loaded) == 0 {
			loadErr = fmt.Errorf("bot profiles file %s is empty", path)
			return
		}

		mu.Lock()
		profiles = loaded
		mu.Unlock()
	})
	return loadErr
}

// NewBotIdentity mints a bot with a unique ID, preferring profiles whose
// difficulty matches level.
func NewBotIdentity(level BotLevel) BotIdentity {
	mu.Lock()
	defer mu.Unlock()

	profile := profiles[nextPick%len(profiles)]
	for i := 0; i < len(profiles); i++ {
		candidate := profiles[(nextPick+i)%len(profiles)]
		if candidate.Difficulty == level.String() {
			profile = candidate
			break
		}
	}
	nextPick++

	identity := BotIdentity{UserID: BotIDPrefix + uuid.NewString(), BotProfile: profile}
	active[identity.UserID] = identity
	return identity
}

// ReleaseBot forgets a bot once it has left its match.
func ReleaseBot(userID string) {
	mu.Lock()
	defer mu.Unlock()
	delete(active, userID)
}

// IsBot reports whether the given user ID belongs to a bot.
func IsBot(userID string) bool {
	return strings.HasPrefix(userID, BotIDPrefix)
}

// GetBotDisplayName returns the display name for a bot ID, or an empty string if not a bot.
func GetBotDisplayName(userID string) string {
	mu.Lock()
	defer mu.Unlock()
	return active[userID].DisplayName
}
