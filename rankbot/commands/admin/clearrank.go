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

var ClearRank = discord.SlashCommandCreate{
	Name:        "clear-rank",
	Description: "🔓 Remove a member's pinned rank and recompute it from XP",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Member whose override to clear",
			Required:    true,
		},
	},
}

func ClearRankHandler(b *rankbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !canManage(e) {
			return utils.EH.CreatePermissionError(e, "manage ranks")
		}

		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateErrorEmbed(e, "This command only works inside a server.")
		}

		target := e.SlashCommandInteractionData().User("user")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := b.OverrideRepository.Clear(ctx, guildID.String(), target.ID.String()); err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to clear the rank override.")
		}

		progress, err := b.ProgressRepository.GetProgress(ctx, guildID.String(), target.ID.String())
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, "Override cleared, but fetching XP failed.")
		}

		tier, _ := b.Leveling.Table().Classify(progress.DailyXP)
		if err := b.Synchronizer.ReconcileUser(ctx, *guildID, target.ID, tier); err != nil {
			return utils.EH.CreateErrorEmbed(e, fmt.Sprintf(
				"Override cleared, but updating roles failed: %s", err))
		}

		if tier == "" {
			return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf(
				"%s is no longer pinned and currently holds no rank.", target.Mention()))
		}
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf(
			"%s is no longer pinned and is now rank **%s**.", target.Mention(), tier))
	}
}
