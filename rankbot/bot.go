package rankbot

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"

	"github.com/tabishshah139/rankbot/rankbot/announcer"
	"github.com/tabishshah139/rankbot/rankbot/database"
	"github.com/tabishshah139/rankbot/rankbot/database/repositories"
	"github.com/tabishshah139/rankbot/rankbot/leaderboard"
	"github.com/tabishshah139/rankbot/rankbot/leveling"
	"github.com/tabishshah139/rankbot/rankbot/moderation"
	"github.com/tabishshah139/rankbot/rankbot/rank"
	"github.com/tabishshah139/rankbot/rankbot/scheduler"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string

	DB                 *database.DB
	ProgressRepository repositories.ProgressRepository
	OverrideRepository repositories.OverrideRepository

	Leveling     *leveling.Service
	Synchronizer *rank.Synchronizer
	Leaderboard  *leaderboard.Service
	Filter       *moderation.Filter
	DailyReset   *scheduler.DailyReset
	Announcer    *announcer.Announcer
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(
			gateway.IntentGuilds,
			gateway.IntentGuildMembers,
			gateway.IntentGuildMessages,
			gateway.IntentMessageContent,
		)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("RankBot is now ready",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("the daily leaderboard"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
