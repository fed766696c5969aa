package commands

import (
	"github.com/disgoorg/disgo/discord"

	"github.com/tabishshah139/rankbot/rankbot/commands/admin"
)

var Commands = []discord.ApplicationCommandCreate{
	Rank,
	Leaderboard,
	Version,
}

func init() {
	Commands = append(Commands, admin.Commands...)
}
