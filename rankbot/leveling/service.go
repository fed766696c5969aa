package leveling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/tabishshah139/rankbot/rankbot/database/models"
	"github.com/tabishshah139/rankbot/rankbot/database/repositories"
)

// RoleSyncer is the slice of the rank synchronizer the pipeline needs.
type RoleSyncer interface {
	Reconcile(ctx context.Context, guildID, userID snowflake.ID, memberBadges []snowflake.ID, tier string) error
}

// Notifier delivers level-up and rank-up announcements. Both are best-effort;
// implementations log their own failures.
type Notifier interface {
	NotifyLevelUp(guildID, channelID, userID snowflake.ID, newLevel int)
	NotifyRankUp(guildID, channelID, userID snowflake.ID, newTier string)
}

// Message is one inbound guild message as seen by the pipeline.
type Message struct {
	GuildID      snowflake.ID
	ChannelID    snowflake.ID
	UserID       snowflake.ID
	MemberBadges []snowflake.ID
	Content      string
	IsBot        bool
}

// Service runs the per-message award pipeline: filter, award, reclassify,
// synchronize badges and notify.
type Service struct {
	xp            XPConfig
	table         *TierTable
	progress      repositories.ProgressRepository
	overrides     repositories.OverrideRepository
	sync          RoleSyncer
	notify        Notifier
	awardChannels map[snowflake.ID]struct{}
}

func NewService(
	xp XPConfig,
	table *TierTable,
	progress repositories.ProgressRepository,
	overrides repositories.OverrideRepository,
	sync RoleSyncer,
	notify Notifier,
	awardChannels []snowflake.ID,
) *Service {
	var channels map[snowflake.ID]struct{}
	if len(awardChannels) > 0 {
		channels = make(map[snowflake.ID]struct{}, len(awardChannels))
		for _, id := range awardChannels {
			channels[id] = struct{}{}
		}
	}
	return &Service{
		xp:            xp,
		table:         table,
		progress:      progress,
		overrides:     overrides,
		sync:          sync,
		notify:        notify,
		awardChannels: channels,
	}
}

// Table exposes the tier table for the command layer.
func (s *Service) Table() *TierTable {
	return s.table
}

// XP exposes the curve config for the command layer.
func (s *Service) XP() XPConfig {
	return s.xp
}

// HandleMessage processes one inbound message. An error is only returned when
// the award itself could not be recorded; everything after the award is
// best-effort and logged.
func (s *Service) HandleMessage(ctx context.Context, msg Message) error {
	if msg.IsBot || msg.GuildID == 0 {
		return nil
	}
	if s.awardChannels != nil {
		if _, ok := s.awardChannels[msg.ChannelID]; !ok {
			return nil
		}
	}

	guildID := msg.GuildID.String()
	userID := msg.UserID.String()

	before, err := s.progress.GetProgress(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("award aborted for %s/%s: %w", guildID, userID, err)
	}

	delta := s.xp.AwardFor(msg.Content)
	if err := s.progress.UpsertAward(ctx, guildID, userID, delta, time.Now()); err != nil {
		return fmt.Errorf("award aborted for %s/%s: %w", guildID, userID, err)
	}

	after, err := s.progress.GetProgress(ctx, guildID, userID)
	if err != nil {
		// The award is durable; reconstruct the post-award view locally so the
		// remaining steps still run.
		slog.Warn("Post-award snapshot failed, using local view",
			slog.String("type", "db"),
			slog.String("guild_id", guildID),
			slog.String("user_id", userID),
			slog.Any("error", err))
		after = &models.UserProgress{
			GuildID: guildID,
			UserID:  userID,
			TotalXP: before.TotalXP + delta,
			DailyXP: before.DailyXP + delta,
		}
	}

	forced, err := s.overrides.Get(ctx, guildID, userID)
	if err != nil {
		slog.Warn("Override lookup failed, classifying without it",
			slog.String("type", "db"),
			slog.String("guild_id", guildID),
			slog.String("user_id", userID),
			slog.Any("error", err))
		forced = ""
	}

	oldLevel := s.xp.LevelFor(before.TotalXP)
	newLevel := s.xp.LevelFor(after.TotalXP)

	// A pinned tier resolves identically before and after, so a rank-up can
	// never fire while an override exists. Level-ups still can.
	oldComputed, _ := s.table.Classify(before.DailyXP)
	newComputed, _ := s.table.Classify(after.DailyXP)
	oldTier := Resolve(oldComputed, forced)
	newTier := Resolve(newComputed, forced)

	if err := s.sync.Reconcile(ctx, msg.GuildID, msg.UserID, msg.MemberBadges, newTier); err != nil {
		slog.Warn("Badge sync failed after award",
			slog.String("guild_id", guildID),
			slog.String("user_id", userID),
			slog.String("tier", newTier),
			slog.Any("error", err))
	}

	if s.notify != nil {
		if newLevel > oldLevel {
			go s.notify.NotifyLevelUp(msg.GuildID, msg.ChannelID, msg.UserID, newLevel)
		}
		if newTier != oldTier && newTier != "" {
			go s.notify.NotifyRankUp(msg.GuildID, msg.ChannelID, msg.UserID, newTier)
		}
	}

	return nil
}

// Profile is the resolved progress view backing the /rank command.
type Profile struct {
	Progress    *models.UserProgress
	Level       int
	NextLevelAt int64
	Tier        string
	Overridden  bool
}

// GetProfile resolves a user's current level and tier, override included.
func (s *Service) GetProfile(ctx context.Context, guildID, userID snowflake.ID) (*Profile, error) {
	progress, err := s.progress.GetProgress(ctx, guildID.String(), userID.String())
	if err != nil {
		return nil, err
	}

	forced, err := s.overrides.Get(ctx, guildID.String(), userID.String())
	if err != nil {
		return nil, err
	}

	computed, _ := s.table.Classify(progress.DailyXP)
	level := s.xp.LevelFor(progress.TotalXP)

	return &Profile{
		Progress:    progress,
		Level:       level,
		NextLevelAt: s.xp.LevelThreshold(level + 1),
		Tier:        Resolve(computed, forced),
		Overridden:  forced != "",
	}, nil
}
