package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserProgress is one row per (guild, user). TotalXP only ever grows; DailyXP
// and DailyMessageCount are zeroed by the daily reset.
type UserProgress struct {
	bun.BaseModel `bun:"table:user_progress,alias:up"`

	ID                int64     `bun:"id,autoincrement,notnull"`
	GuildID           string    `bun:"guild_id,pk"`
	UserID            string    `bun:"user_id,pk"`
	TotalXP           int64     `bun:"total_xp,notnull,default:0"`
	DailyXP           int64     `bun:"daily_xp,notnull,default:0"`
	DailyMessageCount int64     `bun:"daily_message_count,notnull,default:0"`
	LastMessageAt     time.Time `bun:"last_message_at,nullzero"`
}
