package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RankOverride pins a user's tier regardless of daily XP. At most one per
// (guild, user); lives independently of UserProgress.
type RankOverride struct {
	bun.BaseModel `bun:"table:rank_overrides,alias:ro"`

	GuildID    string    `bun:"guild_id,pk"`
	UserID     string    `bun:"user_id,pk"`
	ForcedRank string    `bun:"forced_rank,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}
