package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tabishshah139/rankbot/rankbot/database/models"
	"github.com/uptrace/bun"
)

type ProgressRepository interface {
	// UpsertAward records one message award in a single round trip: the row is
	// created with the delta as its initial value, or the counters are
	// incremented in-database. Safe under concurrent calls for the same key.
	UpsertAward(ctx context.Context, guildID, userID string, xpDelta int64, now time.Time) error
	// GetProgress returns a zero-valued row when the user has none; callers
	// never see "not found" as an error.
	GetProgress(ctx context.Context, guildID, userID string) (*models.UserProgress, error)
	// ResetDailyCounters zeroes daily_xp and daily_message_count for every row
	// of the guild in one statement.
	ResetDailyCounters(ctx context.Context, guildID string) error
	DeleteUser(ctx context.Context, guildID, userID string) error
	DeleteGuild(ctx context.Context, guildID string) error
	// TopByDailyXP returns up to limit rows ordered by daily_xp descending,
	// ties broken by row id ascending (insertion order, stable).
	TopByDailyXP(ctx context.Context, guildID string, limit int) ([]*models.UserProgress, error)
	ListByGuild(ctx context.Context, guildID string) ([]*models.UserProgress, error)
	ListGuilds(ctx context.Context) ([]string, error)
}

type progressRepository struct {
	db *bun.DB
}

func NewProgressRepository(db *bun.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) UpsertAward(ctx context.Context, guildID, userID string, xpDelta int64, now time.Time) error {
	if xpDelta < 0 {
		return fmt.Errorf("progress: negative xp delta %d for %s/%s", xpDelta, guildID, userID)
	}

	row := &models.UserProgress{
		GuildID:           guildID,
		UserID:            userID,
		TotalXP:           xpDelta,
		DailyXP:           xpDelta,
		DailyMessageCount: 1,
		LastMessageAt:     now,
	}

	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (guild_id, user_id) DO UPDATE").
		Set("total_xp = up.total_xp + EXCLUDED.total_xp").
		Set("daily_xp = up.daily_xp + EXCLUDED.daily_xp").
		Set("daily_message_count = up.daily_message_count + 1").
		Set("last_message_at = EXCLUDED.last_message_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert award: %w", err)
	}
	return nil
}

func (r *progressRepository) GetProgress(ctx context.Context, guildID, userID string) (*models.UserProgress, error) {
	progress := new(models.UserProgress)
	err := r.db.NewSelect().
		Model(progress).
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.UserProgress{GuildID: guildID, UserID: userID}, nil
		}
		slog.Error("Database error when getting progress",
			slog.String("type", "db"),
			slog.String("operation", "GetProgress"),
			slog.String("guild_id", guildID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil, err
	}

	return progress, nil
}

func (r *progressRepository) ResetDailyCounters(ctx context.Context, guildID string) error {
	_, err := r.db.NewUpdate().
		Model((*models.UserProgress)(nil)).
		Set("daily_xp = 0").
		Set("daily_message_count = 0").
		Where("guild_id = ?", guildID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset daily counters for guild %s: %w", guildID, err)
	}
	return nil
}

func (r *progressRepository) DeleteUser(ctx context.Context, guildID, userID string) error {
	_, err := r.db.NewDelete().
		Model((*models.UserProgress)(nil)).
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete progress for %s/%s: %w", guildID, userID, err)
	}

	_, err = r.db.NewDelete().
		Model((*models.RankOverride)(nil)).
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete override for %s/%s: %w", guildID, userID, err)
	}
	return nil
}

func (r *progressRepository) DeleteGuild(ctx context.Context, guildID string) error {
	_, err := r.db.NewDelete().
		Model((*models.UserProgress)(nil)).
		Where("guild_id = ?", guildID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete guild progress %s: %w", guildID, err)
	}

	_, err = r.db.NewDelete().
		Model((*models.RankOverride)(nil)).
		Where("guild_id = ?", guildID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete guild overrides %s: %w", guildID, err)
	}
	return nil
}

func (r *progressRepository) TopByDailyXP(ctx context.Context, guildID string, limit int) ([]*models.UserProgress, error) {
	var rows []*models.UserProgress
	err := r.db.NewSelect().
		Model(&rows).
		Where("guild_id = ?", guildID).
		OrderExpr("daily_xp DESC, id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard for guild %s: %w", guildID, err)
	}
	return rows, nil
}

func (r *progressRepository) ListByGuild(ctx context.Context, guildID string) ([]*models.UserProgress, error) {
	var rows []*models.UserProgress
	err := r.db.NewSelect().
		Model(&rows).
		Where("guild_id = ?", guildID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress for guild %s: %w", guildID, err)
	}
	return rows, nil
}

func (r *progressRepository) ListGuilds(ctx context.Context) ([]string, error) {
	var guildIDs []string
	err := r.db.NewSelect().
		Model((*models.UserProgress)(nil)).
		ColumnExpr("DISTINCT guild_id").
		Scan(ctx, &guildIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	return guildIDs, nil
}
