package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tabishshah139/rankbot/rankbot/database/models"
	"github.com/uptrace/bun"
)

type OverrideRepository interface {
	// Set creates or replaces the forced rank for a user.
	Set(ctx context.Context, guildID, userID, forcedRank string) error
	// Get returns the forced rank, or "" when the user has no override.
	Get(ctx context.Context, guildID, userID string) (string, error)
	Clear(ctx context.Context, guildID, userID string) error
	// ListByGuild maps user ID to forced rank for every override in the guild.
	ListByGuild(ctx context.Context, guildID string) (map[string]string, error)
}

type overrideRepository struct {
	db *bun.DB
}

func NewOverrideRepository(db *bun.DB) OverrideRepository {
	return &overrideRepository{db: db}
}

func (r *overrideRepository) Set(ctx context.Context, guildID, userID, forcedRank string) error {
	if forcedRank == "" {
		return fmt.Errorf("override: forced rank must not be empty for %s/%s", guildID, userID)
	}

	row := &models.RankOverride{
		GuildID:    guildID,
		UserID:     userID,
		ForcedRank: forcedRank,
		UpdatedAt:  time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (guild_id, user_id) DO UPDATE").
		Set("forced_rank = EXCLUDED.forced_rank").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set override for %s/%s: %w", guildID, userID, err)
	}
	return nil
}

func (r *overrideRepository) Get(ctx context.Context, guildID, userID string) (string, error) {
	override := new(models.RankOverride)
	err := r.db.NewSelect().
		Model(override).
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get override for %s/%s: %w", guildID, userID, err)
	}
	return override.ForcedRank, nil
}

func (r *overrideRepository) Clear(ctx context.Context, guildID, userID string) error {
	_, err := r.db.NewDelete().
		Model((*models.RankOverride)(nil)).
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear override for %s/%s: %w", guildID, userID, err)
	}
	return nil
}

func (r *overrideRepository) ListByGuild(ctx context.Context, guildID string) (map[string]string, error) {
	var rows []*models.RankOverride
	err := r.db.NewSelect().
		Model(&rows).
		Where("guild_id = ?", guildID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides for guild %s: %w", guildID, err)
	}

	overrides := make(map[string]string, len(rows))
	for _, row := range rows {
		overrides[row.UserID] = row.ForcedRank
	}
	return overrides, nil
}
