package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"

	"github.com/tabishshah139/rankbot/rankbot"
)

// MemberLeaveHandler drops a user's progress and override when they leave the
// guild.
func MemberLeaveHandler(b *rankbot.Bot) bot.EventListener {
	return bot.NewListenerFunc(func(e *events.GuildMemberLeave) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := b.ProgressRepository.DeleteUser(ctx, e.GuildID.String(), e.User.ID.String()); err != nil {
				slog.Error("Failed to delete departed user",
					slog.String("type", "db"),
					slog.String("guild_id", e.GuildID.String()),
					slog.String("user_id", e.User.ID.String()),
					slog.Any("error", err))
				return
			}

			slog.Info("Removed progress for departed user",
				slog.String("type", "db"),
				slog.String("guild_id", e.GuildID.String()),
				slog.String("user_id", e.User.ID.String()))
		}()
	})
}
