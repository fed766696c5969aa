package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/tabishshah139/rankbot/rankbot"
	"github.com/tabishshah139/rankbot/rankbot/utils"
)

var WipeUser = discord.SlashCommandCreate{
	Name:        "wipe-user",
	Description: "🗑️ Erase a member's XP, rank and tier roles in this server",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Member to wipe",
			Required:    true,
		},
	},
}

func WipeUserHandler(b *rankbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !canManage(e) {
			return utils.EH.CreatePermissionError(e, "wipe member data")
		}

		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateErrorEmbed(e, "This command only works inside a server.")
		}

		target := e.SlashCommandInteractionData().User("user")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := b.ProgressRepository.DeleteUser(ctx, guildID.String(), target.ID.String()); err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to delete the member's data.")
		}
		b.Leaderboard.Invalidate(guildID.String())

		if err := b.Synchronizer.RemoveAll(ctx, *guildID, target.ID); err != nil {
			return utils.EH.CreateErrorEmbed(e, fmt.Sprintf(
				"Data deleted, but removing tier roles failed: %s", err))
		}

		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf(
			"All stored data for %s has been erased.", target.Mention()))
	}
}
