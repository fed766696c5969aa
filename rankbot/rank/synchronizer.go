package rank

import (
	"context"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/tabishshah139/rankbot/rankbot/leveling"
)

// Badge is the external platform's role primitive, reduced to what the
// synchronizer needs.
type Badge struct {
	ID   snowflake.ID
	Name string
}

// BadgeProvider is the narrow surface the synchronizer depends on. The real
// implementation talks to the Discord REST API; tests use a fake.
type BadgeProvider interface {
	ListBadges(ctx context.Context, guildID snowflake.ID) ([]Badge, error)
	CreateBadge(ctx context.Context, guildID snowflake.ID, name string, color int) (Badge, error)
	AddBadge(ctx context.Context, guildID, userID, badgeID snowflake.ID) error
	RemoveBadge(ctx context.Context, guildID, userID, badgeID snowflake.ID) error
	// Member returns the user's current badge IDs; found=false means the user
	// has left the guild, which callers treat as a graceful skip.
	Member(ctx context.Context, guildID, userID snowflake.ID) (badgeIDs []snowflake.ID, found bool, err error)
}

// tier badge colors, highest tier first, cycled when the table is longer
var tierColors = []int{0xFFD700, 0xE91E63, 0x9B59B6, 0x3498DB, 0x2ECC71, 0x95A5A6}

// Synchronizer reconciles a member's visible tier badge with the classifier's
// output. All mutations are idempotent: a second call with the same inputs
// performs no add/remove operations.
type Synchronizer struct {
	provider BadgeProvider
	tiers    []string
	colors   map[string]int
}

func NewSynchronizer(provider BadgeProvider, table *leveling.TierTable) *Synchronizer {
	names := table.Names()
	colors := make(map[string]int, len(names))
	for i, name := range names {
		colors[name] = tierColors[i%len(tierColors)]
	}
	return &Synchronizer{
		provider: provider,
		tiers:    names,
		colors:   colors,
	}
}

// Reconcile makes the member hold exactly the badge for tier (or none when
// tier is empty), given the member's current badge IDs. Individual add/remove
// failures are logged and skipped; only failures that prevent the target badge
// from being known at all are returned.
func (s *Synchronizer) Reconcile(ctx context.Context, guildID, userID snowflake.ID, memberBadges []snowflake.ID, tier string) error {
	badges, err := s.provider.ListBadges(ctx, guildID)
	if err != nil {
		return err
	}

	byName := make(map[string]Badge, len(badges))
	for _, b := range badges {
		byName[b.Name] = b
	}

	var target Badge
	haveTarget := false
	if tier != "" {
		target, haveTarget = byName[tier]
		if !haveTarget {
			target, err = s.provider.CreateBadge(ctx, guildID, tier, s.colors[tier])
			if err != nil {
				return err
			}
			haveTarget = true
		}
	}

	held := make(map[snowflake.ID]bool, len(memberBadges))
	for _, id := range memberBadges {
		held[id] = true
	}

	for _, name := range s.tiers {
		badge, exists := byName[name]
		if !exists || !held[badge.ID] {
			continue
		}
		if haveTarget && badge.ID == target.ID {
			continue
		}
		if err := s.provider.RemoveBadge(ctx, guildID, userID, badge.ID); err != nil {
			slog.Warn("Failed to remove tier badge",
				slog.String("guild_id", guildID.String()),
				slog.String("user_id", userID.String()),
				slog.String("badge", name),
				slog.Any("error", err))
		}
	}

	if haveTarget && !held[target.ID] {
		if err := s.provider.AddBadge(ctx, guildID, userID, target.ID); err != nil {
			slog.Warn("Failed to add tier badge",
				slog.String("guild_id", guildID.String()),
				slog.String("user_id", userID.String()),
				slog.String("badge", tier),
				slog.Any("error", err))
		}
	}

	return nil
}

// ReconcileUser resolves the member through the provider first; a departed
// member is a no-op, not an error.
func (s *Synchronizer) ReconcileUser(ctx context.Context, guildID, userID snowflake.ID, tier string) error {
	memberBadges, found, err := s.provider.Member(ctx, guildID, userID)
	if err != nil {
		return err
	}
	if !found {
		slog.Debug("Skipping badge sync for departed member",
			slog.String("guild_id", guildID.String()),
			slog.String("user_id", userID.String()))
		return nil
	}
	return s.Reconcile(ctx, guildID, userID, memberBadges, tier)
}

// RemoveAll strips every tier badge from the member; used by admin wipe.
func (s *Synchronizer) RemoveAll(ctx context.Context, guildID, userID snowflake.ID) error {
	return s.ReconcileUser(ctx, guildID, userID, "")
}
