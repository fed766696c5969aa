package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/sahilm/fuzzy"

	"github.com/tabishshah139/rankbot/rankbot"
	"github.com/tabishshah139/rankbot/rankbot/utils"
)

var ForceRank = discord.SlashCommandCreate{
	Name:        "force-rank",
	Description: "🔒 Pin a member's daily rank regardless of their XP",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Member whose rank to pin",
			Required:    true,
		},
		discord.ApplicationCommandOptionString{
			Name:         "rank",
			Description:  "Rank to pin the member to",
			Required:     true,
			Autocomplete: true,
		},
	},
}

func ForceRankHandler(b *rankbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !canManage(e) {
			return utils.EH.CreatePermissionError(e, "manage ranks")
		}

		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateErrorEmbed(e, "This command only works inside a server.")
		}

		data := e.SlashCommandInteractionData()
		target := data.User("user")
		rank := strings.TrimSpace(data.String("rank"))

		if !b.Leveling.Table().Contains(rank) {
			return utils.EH.CreateErrorEmbed(e, fmt.Sprintf(
				"Unknown rank `%s`. Valid ranks: %s",
				rank, strings.Join(b.Leveling.Table().Names(), ", ")))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := b.OverrideRepository.Set(ctx, guildID.String(), target.ID.String(), rank); err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to save the rank override.")
		}

		if err := b.Synchronizer.ReconcileUser(ctx, *guildID, target.ID, rank); err != nil {
			return utils.EH.CreateErrorEmbed(e, fmt.Sprintf(
				"Override saved, but updating roles failed: %s", err))
		}

		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf(
			"%s is now pinned to rank **%s** until the override is cleared.",
			target.Mention(), rank))
	}
}

func ForceRankAutocomplete(b *rankbot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		query := strings.TrimSpace(e.Data.String("rank"))
		names := b.Leveling.Table().Names()

		ranked := names
		if query != "" {
			matches := fuzzy.Find(query, names)
			ranked = make([]string, 0, len(matches))
			for _, m := range matches {
				ranked = append(ranked, names[m.Index])
			}
		}

		choices := make([]discord.AutocompleteChoice, 0, min(len(ranked), 25))
		for _, name := range ranked {
			if len(choices) == 25 {
				break
			}
			choices = append(choices, discord.AutocompleteChoiceString{
				Name:  name,
				Value: name,
			})
		}
		return e.AutocompleteResult(choices)
	}
}
