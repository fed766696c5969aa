package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/tabishshah139/rankbot/rankbot"
	"github.com/tabishshah139/rankbot/rankbot/config"
	"github.com/tabishshah139/rankbot/rankbot/leveling"
	"github.com/tabishshah139/rankbot/rankbot/utils"
)

var Leaderboard = discord.SlashCommandCreate{
	Name:        "leaderboard",
	Description: "🏆 Today's most active members",
}

func LeaderboardHandler(b *rankbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateErrorEmbed(e, "This command only works inside a server.")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		snapshot, err := b.Leaderboard.Top(ctx, *guildID)
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to fetch the leaderboard. Please try again later.")
		}
		if len(snapshot.Entries) == 0 {
			return utils.EH.CreateInfoEmbed(e, "Nobody has earned XP today yet. Say something!")
		}

		overrides, err := b.OverrideRepository.ListByGuild(ctx, guildID.String())
		if err != nil {
			// standings still render, just without forced ranks
			overrides = map[string]string{}
		}

		entries := snapshot.Entries
		totalPages := int(math.Ceil(float64(len(entries)) / float64(config.LeaderboardPageSize)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * config.LeaderboardPageSize
				endIdx := min(startIdx+config.LeaderboardPageSize, len(entries))

				var description strings.Builder
				for i, entry := range entries[startIdx:endIdx] {
					computed, _ := b.Leveling.Table().Classify(entry.DailyXP)
					tier := leveling.Resolve(computed, overrides[entry.UserID])
					label := ""
					if tier != "" {
						label = fmt.Sprintf(" · %s", tier)
					}

					description.WriteString(fmt.Sprintf("**%d.** <@%s> — %d XP%s\n",
						startIdx+i+1, entry.UserID, entry.DailyXP, label))
				}

				embed.
					SetTitle("🏆 Daily Leaderboard").
					SetDescription(description.String()).
					SetColor(config.InfoColor).
					SetFooter(fmt.Sprintf("Page %d/%d • As of %s", page+1, totalPages,
						snapshot.BuiltAt.Format("15:04:05 MST")), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}
