package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/joho/godotenv"

	"github.com/tabishshah139/rankbot/rankbot"
	"github.com/tabishshah139/rankbot/rankbot/announcer"
	"github.com/tabishshah139/rankbot/rankbot/commands"
	"github.com/tabishshah139/rankbot/rankbot/commands/admin"
	"github.com/tabishshah139/rankbot/rankbot/database"
	"github.com/tabishshah139/rankbot/rankbot/database/repositories"
	"github.com/tabishshah139/rankbot/rankbot/handlers"
	"github.com/tabishshah139/rankbot/rankbot/leaderboard"
	"github.com/tabishshah139/rankbot/rankbot/leveling"
	"github.com/tabishshah139/rankbot/rankbot/logger"
	"github.com/tabishshah139/rankbot/rankbot/moderation"
	"github.com/tabishshah139/rankbot/rankbot/rank"
	"github.com/tabishshah139/rankbot/rankbot/scheduler"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := rankbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.SetDefault(slog.New(logger.NewHandler(cfg.Log.Level)))
	slog.Info("Starting RankBot",
		slog.String("version", version),
		slog.String("commit", commit))

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		logger.LogError("Database connection failed", err,
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		logger.LogError("Failed to initialize database schema", err)
		os.Exit(-1)
	}
	if err := db.Ping(ctx); err != nil {
		logger.LogError("Database health check failed", err)
		os.Exit(-1)
	}
	slog.Info("Database ready",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	b := rankbot.New(*cfg, version, commit)
	b.DB = db
	b.ProgressRepository = repositories.NewProgressRepository(db.BunDB())
	b.OverrideRepository = repositories.NewOverrideRepository(db.BunDB())
	b.Leaderboard = leaderboard.NewService(b.ProgressRepository, cfg.Leveling.CacheTTL())
	b.Filter = moderation.NewFilter(cfg.Moderation)

	tierTable, err := cfg.Leveling.TierTable()
	if err != nil {
		slog.Error("Invalid tier table", slog.Any("error", err))
		os.Exit(-1)
	}

	h := handler.New()
	h.Command("/rank", handlers.WrapWithLogging("rank", commands.RankHandler(b)))
	h.Command("/leaderboard", handlers.WrapWithLogging("leaderboard", commands.LeaderboardHandler(b)))
	h.Command("/version", handlers.WrapWithLogging("version", commands.VersionHandler(b)))
	h.Command("/force-rank", handlers.WrapWithLogging("force-rank", admin.ForceRankHandler(b)))
	h.Autocomplete("/force-rank", admin.ForceRankAutocomplete(b))
	h.Command("/clear-rank", handlers.WrapWithLogging("clear-rank", admin.ClearRankHandler(b)))
	h.Command("/wipe-user", handlers.WrapWithLogging("wipe-user", admin.WipeUserHandler(b)))
	h.Command("/reset-guild", handlers.WrapWithLogging("reset-guild", admin.ResetGuildHandler(b)))

	if err = b.SetupBot(h,
		bot.NewListenerFunc(b.OnReady),
		handlers.MessageHandler(b),
		handlers.MemberLeaveHandler(b),
	); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	// services that talk to Discord need the client's REST layer
	b.Synchronizer = rank.NewSynchronizer(rank.NewDiscordBadgeProvider(b.Client.Rest()), tierTable)
	b.Leveling = leveling.NewService(
		cfg.Leveling.XP,
		tierTable,
		b.ProgressRepository,
		b.OverrideRepository,
		b.Synchronizer,
		handlers.NewDiscordNotifier(b.Client.Rest()),
		cfg.Leveling.AwardChannels,
	)

	resetHour, resetMinute, err := cfg.Leveling.ResetClock()
	if err != nil {
		slog.Error("Invalid reset time", slog.Any("error", err))
		os.Exit(-1)
	}
	location, err := cfg.Leveling.Location()
	if err != nil {
		slog.Error("Invalid timezone", slog.Any("error", err))
		os.Exit(-1)
	}
	b.DailyReset = scheduler.NewDailyReset(
		b.ProgressRepository,
		b.OverrideRepository,
		b.Synchronizer,
		b.Leaderboard,
		db,
		tierTable,
		resetHour, resetMinute,
		location,
	)

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("error_details", fmt.Sprintf("%+v", err)),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = b.Client.OpenGateway(ctx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	if err = b.DailyReset.Start(); err != nil {
		slog.Error("Failed to start daily reset scheduler",
			slog.String("type", "sys"),
			slog.Any("error", err))
		os.Exit(-1)
	}
	defer b.DailyReset.Stop()

	b.Announcer = announcer.New(b.Client.Rest())
	if err = b.Announcer.Start(cfg.Announcer); err != nil {
		slog.Error("Failed to start announcer",
			slog.String("type", "sys"),
			slog.Any("error", err))
		os.Exit(-1)
	}
	defer b.Announcer.Stop()

	logger.LogSystem("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	logger.LogSystem("Shutting down bot...")
}
