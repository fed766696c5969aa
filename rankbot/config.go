package rankbot

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/tabishshah139/rankbot/rankbot/announcer"
	"github.com/tabishshah139/rankbot/rankbot/database"
	"github.com/tabishshah139/rankbot/rankbot/leveling"
	"github.com/tabishshah139/rankbot/rankbot/moderation"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}

	// token from .env/environment wins over the toml value
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}

	if err := cfg.Leveling.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type Config struct {
	Log        LogConfig                `toml:"log"`
	Bot        BotConfig                `toml:"bot"`
	DB         database.DBConfig        `toml:"db"`
	Leveling   LevelingConfig           `toml:"leveling"`
	Moderation moderation.Config        `toml:"moderation"`
	Announcer  []announcer.Announcement `toml:"announcements"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
}

type LevelingConfig struct {
	XP             leveling.XPConfig `toml:"xp"`
	Tiers          []leveling.Tier   `toml:"tiers"`
	ResetTime      string            `toml:"reset_time"`
	Timezone       string            `toml:"timezone"`
	AwardChannels  []snowflake.ID    `toml:"award_channels"`
	LeaderboardTTL string            `toml:"leaderboard_ttl"`
}

// Validate fails loudly on configuration that would break a core invariant:
// a malformed tier table or XP curve must never reach the classifier.
func (c *LevelingConfig) Validate() error {
	if c.XP == (leveling.XPConfig{}) {
		c.XP = leveling.DefaultXPConfig()
	}
	if err := c.XP.Validate(); err != nil {
		return err
	}
	if len(c.Tiers) == 0 {
		c.Tiers = leveling.DefaultTiers()
	}
	if _, err := leveling.NewTierTable(c.Tiers); err != nil {
		return err
	}
	if _, _, err := c.ResetClock(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.LeaderboardTTL != "" {
		if _, err := time.ParseDuration(c.LeaderboardTTL); err != nil {
			return fmt.Errorf("leveling: bad leaderboard_ttl %q: %w", c.LeaderboardTTL, err)
		}
	}
	return nil
}

// ResetClock parses reset_time ("HH:MM", default midnight).
func (c *LevelingConfig) ResetClock() (hour, minute int, err error) {
	if c.ResetTime == "" {
		return 0, 0, nil
	}
	t, err := time.Parse("15:04", c.ResetTime)
	if err != nil {
		return 0, 0, fmt.Errorf("leveling: bad reset_time %q: %w", c.ResetTime, err)
	}
	return t.Hour(), t.Minute(), nil
}

// Location resolves the reset timezone (default UTC); the boundary is always
// computed in this zone regardless of the host clock.
func (c *LevelingConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("leveling: bad timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// TierTable builds the validated table; call after Validate.
func (c *LevelingConfig) TierTable() (*leveling.TierTable, error) {
	return leveling.NewTierTable(c.Tiers)
}

// CacheTTL returns the configured leaderboard snapshot validity window.
func (c *LevelingConfig) CacheTTL() time.Duration {
	if c.LeaderboardTTL == "" {
		return 0
	}
	ttl, _ := time.ParseDuration(c.LeaderboardTTL)
	return ttl
}
