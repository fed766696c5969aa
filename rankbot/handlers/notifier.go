package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	"github.com/tabishshah139/rankbot/rankbot/config"
)

// DiscordNotifier posts level-up and rank-up announcements to the channel the
// triggering message came from. Sends are best-effort.
type DiscordNotifier struct {
	rest rest.Rest
}

func NewDiscordNotifier(r rest.Rest) *DiscordNotifier {
	return &DiscordNotifier{rest: r}
}

func (n *DiscordNotifier) NotifyLevelUp(guildID, channelID, userID snowflake.ID, newLevel int) {
	ctx, cancel := context.WithTimeout(context.Background(), config.NotificationTimeout)
	defer cancel()

	if _, err := n.rest.CreateMessage(channelID, discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: fmt.Sprintf("🎉 <@%s> reached level **%d**!", userID, newLevel),
			Color:       config.LevelUpColor,
		}},
	}, rest.WithCtx(ctx)); err != nil {
		slog.Warn("Level-up notification failed",
			slog.String("guild_id", guildID.String()),
			slog.String("channel_id", channelID.String()),
			slog.Any("error", err))
	}
}

func (n *DiscordNotifier) NotifyRankUp(guildID, channelID, userID snowflake.ID, newTier string) {
	ctx, cancel := context.WithTimeout(context.Background(), config.NotificationTimeout)
	defer cancel()

	if _, err := n.rest.CreateMessage(channelID, discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: fmt.Sprintf("🏅 <@%s> is now rank **%s**!", userID, newTier),
			Color:       config.RankUpColor,
		}},
	}, rest.WithCtx(ctx)); err != nil {
		slog.Warn("Rank-up notification failed",
			slog.String("guild_id", guildID.String()),
			slog.String("channel_id", channelID.String()),
			slog.Any("error", err))
	}
}
