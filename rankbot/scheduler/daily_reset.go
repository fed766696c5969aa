package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tabishshah139/rankbot/rankbot/database/repositories"
	"github.com/tabishshah139/rankbot/rankbot/leveling"
)

const (
	lastRunMetaKey   = "daily_reset_last_run"
	guildParallelism = 4
	perGuildTimeout  = 10 * time.Minute
)

// MetaStore persists the last-completed run marker across restarts.
type MetaStore interface {
	GetAppMeta(ctx context.Context, key string) (string, error)
	SetAppMeta(ctx context.Context, key, value string) error
}

// Syncer assigns the day's final badge; a departed member is a silent skip.
type Syncer interface {
	ReconcileUser(ctx context.Context, guildID, userID snowflake.ID, tier string) error
}

// Invalidator drops a guild's cached leaderboard snapshot.
type Invalidator interface {
	Invalidate(guildID string)
}

// DailyReset finalizes each day's tier assignments and zeroes the rolling
// counters, once per configured local calendar day.
type DailyReset struct {
	progress  repositories.ProgressRepository
	overrides repositories.OverrideRepository
	syncer    Syncer
	cache     Invalidator
	meta      MetaStore
	table     *leveling.TierTable

	hour     int
	minute   int
	location *time.Location
	now      func() time.Time

	// serializes the daily trigger against the startup catch-up; the marker
	// check and the run must be one critical section or both can pass it
	runMu sync.Mutex

	sched gocron.Scheduler
}

func NewDailyReset(
	progress repositories.ProgressRepository,
	overrides repositories.OverrideRepository,
	syncer Syncer,
	cache Invalidator,
	meta MetaStore,
	table *leveling.TierTable,
	hour, minute int,
	location *time.Location,
) *DailyReset {
	return &DailyReset{
		progress:  progress,
		overrides: overrides,
		syncer:    syncer,
		cache:     cache,
		meta:      meta,
		table:     table,
		hour:      hour,
		minute:    minute,
		location:  location,
		now:       time.Now,
	}
}

// Start schedules the daily job and immediately performs a catch-up check so
// a boundary missed while the process was down still runs, late but exactly
// once.
func (j *DailyReset) Start() error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(j.location))
	if err != nil {
		return fmt.Errorf("failed to create reset scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(j.hour), uint(j.minute), 0))),
		gocron.NewTask(func() {
			if err := j.RunDue(context.Background()); err != nil {
				slog.Error("Daily reset run failed",
					slog.String("type", "sys"),
					slog.Any("error", err))
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule daily reset: %w", err)
	}

	sched.Start()
	j.sched = sched

	go func() {
		if err := j.RunDue(context.Background()); err != nil {
			slog.Error("Daily reset catch-up failed",
				slog.String("type", "sys"),
				slog.Any("error", err))
		}
	}()

	return nil
}

func (j *DailyReset) Stop() {
	if j.sched != nil {
		_ = j.sched.Shutdown()
	}
}

// periodKey returns the local calendar day of the most recent reset boundary
// at or before now. Two calls within the same period yield the same key,
// which is what guards against double runs.
func periodKey(now time.Time, hour, minute int, loc *time.Location) string {
	local := now.In(loc)
	boundary := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if local.Before(boundary) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return boundary.Format("2006-01-02")
}

// RunDue runs the reset iff the current period has not been completed yet.
// The marker is only advanced after a fully successful run, so a failed run
// is retried at the next trigger rather than lost. Only one caller is ever
// inside at a time; a trigger arriving mid-run waits and then sees the
// advanced marker.
func (j *DailyReset) RunDue(ctx context.Context) error {
	j.runMu.Lock()
	defer j.runMu.Unlock()

	key := periodKey(j.now(), j.hour, j.minute, j.location)

	last, err := j.meta.GetAppMeta(ctx, lastRunMetaKey)
	if err != nil {
		return fmt.Errorf("failed to read reset marker: %w", err)
	}
	if last == key {
		return nil
	}

	slog.Info("Starting daily reset run",
		slog.String("type", "sys"),
		slog.String("period", key))

	if err := j.runOnce(ctx); err != nil {
		return err
	}

	if err := j.meta.SetAppMeta(ctx, lastRunMetaKey, key); err != nil {
		return fmt.Errorf("failed to persist reset marker: %w", err)
	}

	slog.Info("Daily reset run completed",
		slog.String("type", "sys"),
		slog.String("period", key))
	return nil
}

func (j *DailyReset) runOnce(ctx context.Context) error {
	guildIDs, err := j.progress.ListGuilds(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate guilds: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(guildParallelism)

	for _, guildID := range guildIDs {
		guildID := guildID
		g.Go(func() error {
			guildCtx, cancel := context.WithTimeout(ctx, perGuildTimeout)
			defer cancel()

			if err := j.resetGuild(guildCtx, guildID); err != nil {
				// Guilds are independent; log and keep going.
				slog.Error("Guild reset failed",
					slog.String("type", "sys"),
					slog.String("guild_id", guildID),
					slog.Any("error", err))
			}
			return nil
		})
	}

	return g.Wait()
}

// resetGuild assigns every tracked user's final badge for the outgoing day and
// only then zeroes the counters, so the last classification always sees the
// pre-reset daily XP.
func (j *DailyReset) resetGuild(ctx context.Context, guildID string) error {
	rows, err := j.progress.ListByGuild(ctx, guildID)
	if err != nil {
		return err
	}

	forced, err := j.overrides.ListByGuild(ctx, guildID)
	if err != nil {
		return err
	}

	gid, err := snowflake.Parse(guildID)
	if err != nil {
		return fmt.Errorf("bad guild id %q: %w", guildID, err)
	}

	var syncFailures int
	for _, row := range rows {
		uid, err := snowflake.Parse(row.UserID)
		if err != nil {
			syncFailures++
			continue
		}

		computed, _ := j.table.Classify(row.DailyXP)
		tier := leveling.Resolve(computed, forced[row.UserID])

		if err := j.syncer.ReconcileUser(ctx, gid, uid, tier); err != nil {
			syncFailures++
			slog.Warn("Final badge sync failed during reset",
				slog.String("guild_id", guildID),
				slog.String("user_id", row.UserID),
				slog.String("tier", tier),
				slog.Any("error", err))
		}
	}

	if err := j.progress.ResetDailyCounters(ctx, guildID); err != nil {
		return err
	}

	j.cache.Invalidate(guildID)

	slog.Info("Guild counters reset",
		slog.String("type", "sys"),
		slog.String("guild_id", guildID),
		slog.Int("users", len(rows)),
		slog.Int("sync_failures", syncFailures))
	return nil
}
