package commands

import (
	"fmt"
	"runtime"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/tabishshah139/rankbot/rankbot"
	"github.com/tabishshah139/rankbot/rankbot/config"
)

var Version = discord.SlashCommandCreate{
	Name:        "version",
	Description: "Show the running bot version",
}

func VersionHandler(b *rankbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title: "Version",
				Description: fmt.Sprintf("Version: %s\nCommit: %s\nDisgo: %s\nGo: %s",
					b.Version, b.Commit, disgo.Version, runtime.Version()),
				Color: config.InfoColor,
			}},
		})
	}
}
