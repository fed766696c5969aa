package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	"github.com/tabishshah139/rankbot/rankbot"
	"github.com/tabishshah139/rankbot/rankbot/config"
	"github.com/tabishshah139/rankbot/rankbot/leveling"
)

const (
	messageTimeout = 15 * time.Second

	// how long a filter notice stays in the channel before it is cleaned up
	noticeTTL = 15 * time.Second
)

// channelMessenger is the slice of rest.Rest the filter notice needs.
type channelMessenger interface {
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
	DeleteMessage(channelID snowflake.ID, messageID snowflake.ID, opts ...rest.RequestOpt) error
}

// MessageHandler wires inbound guild messages into the content filter and the
// award pipeline. Each message is handled in its own goroutine so one slow
// persistence call never blocks the gateway reader.
func MessageHandler(b *rankbot.Bot) bot.EventListener {
	return bot.NewListenerFunc(func(e *events.GuildMessageCreate) {
		go handleMessage(b, e)
	})
}

func handleMessage(b *rankbot.Bot, e *events.GuildMessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	if !e.Message.Author.Bot && b.Filter != nil {
		if verdict := b.Filter.Check(e.Message.Content); !verdict.Allowed {
			deleteAndWarn(ctx, b, e, verdict.Reason)
			return
		}
	}

	var memberBadges []snowflake.ID
	if e.Message.Member != nil {
		memberBadges = e.Message.Member.RoleIDs
	}

	msg := leveling.Message{
		GuildID:      e.GuildID,
		ChannelID:    e.ChannelID,
		UserID:       e.Message.Author.ID,
		MemberBadges: memberBadges,
		Content:      e.Message.Content,
		IsBot:        e.Message.Author.Bot,
	}

	if err := b.Leveling.HandleMessage(ctx, msg); err != nil {
		// the user just loses credit for this message; nothing to roll back
		slog.Error("Message award failed",
			slog.String("type", "error"),
			slog.String("guild_id", e.GuildID.String()),
			slog.String("user_id", e.Message.Author.ID.String()),
			slog.Any("error", err))
	}
}

func deleteAndWarn(ctx context.Context, b *rankbot.Bot, e *events.GuildMessageCreate, reason string) {
	if err := b.Client.Rest().DeleteMessage(e.ChannelID, e.MessageID, rest.WithCtx(ctx)); err != nil {
		slog.Warn("Failed to delete filtered message",
			slog.String("guild_id", e.GuildID.String()),
			slog.String("channel_id", e.ChannelID.String()),
			slog.Any("error", err))
		return
	}

	notice := discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: fmt.Sprintf("<@%s> your message was removed: %s", e.Message.Author.ID, reason),
			Color:       config.WarningColor,
		}},
	}
	if err := postTransientNotice(ctx, b.Client.Rest(), e.ChannelID, notice, noticeTTL); err != nil {
		slog.Warn("Failed to send filter notice",
			slog.String("channel_id", e.ChannelID.String()),
			slog.Any("error", err))
	}

	slog.Info("Message filtered",
		slog.String("guild_id", e.GuildID.String()),
		slog.String("user_id", e.Message.Author.ID.String()),
		slog.String("reason", reason))
}

// postTransientNotice posts the notice and removes it again after ttl so the
// channel is not littered with moderation chatter.
func postTransientNotice(ctx context.Context, messenger channelMessenger, channelID snowflake.ID, notice discord.MessageCreate, ttl time.Duration) error {
	msg, err := messenger.CreateMessage(channelID, notice, rest.WithCtx(ctx))
	if err != nil {
		return err
	}

	go func() {
		time.Sleep(ttl)
		cleanup, cancel := context.WithTimeout(context.Background(), messageTimeout)
		defer cancel()
		if err := messenger.DeleteMessage(channelID, msg.ID, rest.WithCtx(cleanup)); err != nil {
			slog.Warn("Failed to remove filter notice",
				slog.String("channel_id", channelID.String()),
				slog.Any("error", err))
		}
	}()
	return nil
}
