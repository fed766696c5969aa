package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/tabishshah139/rankbot/rankbot"
	"github.com/tabishshah139/rankbot/rankbot/config"
	"github.com/tabishshah139/rankbot/rankbot/utils"
)

var Rank = discord.SlashCommandCreate{
	Name:        "rank",
	Description: "📊 View your level, XP and current daily rank",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Member to look up (defaults to you)",
			Required:    false,
		},
	},
}

func RankHandler(b *rankbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateErrorEmbed(e, "This command only works inside a server.")
		}

		target := e.User()
		if user, ok := e.SlashCommandInteractionData().OptUser("user"); ok {
			target = user
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		profile, err := b.Leveling.GetProfile(ctx, *guildID, target.ID)
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to fetch rank data. Please try again later.")
		}

		tier := profile.Tier
		if tier == "" {
			tier = "Unranked"
		}
		if profile.Overridden {
			tier += " (set by staff)"
		}

		levelStart := b.Leveling.XP().LevelThreshold(profile.Level)
		description := fmt.Sprintf("```ansi\n"+
			"\x1b[1;36mLevel:\x1b[0m %d\n"+
			"\x1b[0;37m%s\x1b[0m %d / %d XP\n"+
			"\n"+
			"\x1b[1;35mDaily Rank:\x1b[0m %s\n"+
			"\x1b[1;33mDaily XP:\x1b[0m %d (%d messages)\n"+
			"```",
			profile.Level,
			levelProgressBar(profile.Progress.TotalXP-levelStart, profile.NextLevelAt-levelStart),
			profile.Progress.TotalXP,
			profile.NextLevelAt,
			tier,
			profile.Progress.DailyXP,
			profile.Progress.DailyMessageCount,
		)

		now := time.Now()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       fmt.Sprintf("📊 %s", target.Username),
				Description: description,
				Color:       config.InfoColor,
				Footer: &discord.EmbedFooter{
					Text: fmt.Sprintf("Requested by %s", e.User().Username),
				},
				Timestamp: &now,
			}},
		})
	}
}

func levelProgressBar(earned, span int64) string {
	const barLength = 12

	filled := 0
	if span > 0 {
		filled = int(earned * barLength / span)
	}
	if filled < 0 {
		filled = 0
	}
	if filled > barLength {
		filled = barLength
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barLength-filled)
}
