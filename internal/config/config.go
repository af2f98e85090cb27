// Package config loads the bot's process-wide settings once at startup.
package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/iw4x/iw4x-discord-bot/internal/masterapi"
	"github.com/iw4x/iw4x-discord-bot/internal/ratelimit"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config mirrors config.json. Durations are given in milliseconds. Protocol
// is a pointer so that a missing key fails validation while 0 stays valid.
type Config struct {
	Token            string              `json:"token" validate:"required"`
	LogChannelID     discord.ChannelID   `json:"logChannelId" validate:"required"`
	AllowedGuildID   discord.GuildID     `json:"allowedGuildId" validate:"required"`
	Protocol         *int                `json:"protocol" validate:"required,gte=0"`
	ExcludedChannels []discord.ChannelID `json:"excludedChannels" validate:"dive,required"`
	StaffRoleID      discord.RoleID      `json:"staffRoleId" validate:"required"`
	RateLimit        int                 `json:"rateLimit" validate:"gt=0"`
	RateLimitWindow  int64               `json:"rateLimitWindow" validate:"gt=0"`

	APIHost           string `json:"apiHost" validate:"required,hostname_port|hostname"`
	Game              string `json:"game" validate:"required"`
	GameName          string `json:"gameName" validate:"required"`
	FallbackActivity  string `json:"fallbackActivity" validate:"required"`
	PresenceInterval  int64  `json:"presenceInterval" validate:"gt=0"`
	EvictAfterWindows int    `json:"evictAfterWindows" validate:"gte=0"`
}

// Default returns the values used for keys missing from config.json.
func Default() Config {
	return Config{
		APIHost:          "iw4x.dev",
		Game:             "iw4x",
		GameName:         "IW4x",
		FallbackActivity: "IW4x Server",
		PresenceInterval: 60000,
	}
}

// Load reads envPath (optional, may be empty or missing) and then the JSON
// file at path. BOT_TOKEN from the environment overrides the file's token.
func Load(path, envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(errors.Cause(err)) {
			return Config{}, errors.Wrap(err, "load env")
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	cfg, err := Parse(b)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes data over Default, applies the environment overlay and
// validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode")
	}
	if tok := strings.TrimSpace(os.Getenv("BOT_TOKEN")); tok != "" {
		cfg.Token = tok
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid")
	}
	return cfg, nil
}

// BotToken returns the token in the form the gateway expects.
func (c Config) BotToken() string {
	if strings.HasPrefix(c.Token, "Bot ") {
		return c.Token
	}
	return "Bot " + c.Token
}

func (c Config) Window() time.Duration {
	return time.Duration(c.RateLimitWindow) * time.Millisecond
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.PresenceInterval) * time.Millisecond
}

func (c Config) RateLimiter() ratelimit.Config {
	return ratelimit.Config{
		Limit:      c.RateLimit,
		Window:     c.Window(),
		EvictAfter: c.EvictAfterWindows,
	}
}

func (c Config) MasterAPI() masterapi.Config {
	return masterapi.Config{
		Host:     c.APIHost,
		Game:     c.Game,
		Protocol: *c.Protocol,
	}
}
