package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"

	"github.com/tabishshah139/rankbot/rankbot"
	"github.com/tabishshah139/rankbot/rankbot/config"
	"github.com/tabishshah139/rankbot/rankbot/utils"
)

var ResetGuild = discord.SlashCommandCreate{
	Name:        "reset-guild",
	Description: "💣 Erase all XP, ranks and overrides for this server",
}

func ResetGuildHandler(b *rankbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !canManage(e) {
			return utils.EH.CreatePermissionError(e, "reset server data")
		}

		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateErrorEmbed(e, "This command only works inside a server.")
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		rows, err := b.ProgressRepository.ListByGuild(ctx, guildID.String())
		if err != nil {
			return followupError(e, "Failed to list member data.")
		}

		// strip tier roles before the rows disappear
		stripped := 0
		for _, row := range rows {
			userID, err := snowflake.Parse(row.UserID)
			if err != nil {
				continue
			}
			if err := b.Synchronizer.RemoveAll(ctx, *guildID, userID); err != nil {
				slog.Warn("Failed to strip tier roles during guild reset",
					slog.String("guild_id", guildID.String()),
					slog.String("user_id", row.UserID),
					slog.Any("error", err))
				continue
			}
			stripped++
		}

		if err := b.ProgressRepository.DeleteGuild(ctx, guildID.String()); err != nil {
			return followupError(e, "Stripped roles, but deleting stored data failed.")
		}
		b.Leaderboard.Invalidate(guildID.String())

		_, err = e.CreateFollowupMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title: "✅ Server Reset",
				Description: fmt.Sprintf(
					"Erased data for %d members and stripped tier roles from %d of them.",
					len(rows), stripped),
				Color: config.SuccessColor,
			}},
		})
		return err
	}
}

func followupError(e *handler.CommandEvent, message string) error {
	_, err := e.CreateFollowupMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "❌ Error",
			Description: message,
			Color:       config.ErrorColor,
		}},
	})
	return err
}
