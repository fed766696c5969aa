package announcer

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/go-co-op/gocron/v2"
)

// Announcement is one recurring broadcast: a channel, an interval and a list
// of messages cycled in order.
type Announcement struct {
	ChannelID snowflake.ID `toml:"channel_id"`
	Every     string       `toml:"every"`
	Messages  []string     `toml:"messages"`
}

// Announcer posts configured announcements on their intervals. Sends are
// best-effort; a failed send is logged and the rotation continues.
type Announcer struct {
	rest  rest.Rest
	sched gocron.Scheduler
}

func New(r rest.Rest) *Announcer {
	return &Announcer{rest: r}
}

func (a *Announcer) Start(announcements []Announcement) error {
	if len(announcements) == 0 {
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create announcer scheduler: %w", err)
	}

	for _, ann := range announcements {
		every, err := time.ParseDuration(ann.Every)
		if err != nil || every <= 0 {
			return fmt.Errorf("announcer: bad interval %q for channel %s", ann.Every, ann.ChannelID)
		}
		if len(ann.Messages) == 0 {
			return fmt.Errorf("announcer: no messages for channel %s", ann.ChannelID)
		}

		var next atomic.Int64
		channelID := ann.ChannelID
		messages := ann.Messages

		_, err = sched.NewJob(
			gocron.DurationJob(every),
			gocron.NewTask(func() {
				i := int(next.Add(1)-1) % len(messages)
				if _, err := a.rest.CreateMessage(channelID, discord.MessageCreate{
					Content: messages[i],
				}); err != nil {
					slog.Warn("Announcement send failed",
						slog.String("channel_id", channelID.String()),
						slog.Any("error", err))
				}
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule announcement for channel %s: %w", channelID, err)
		}
	}

	sched.Start()
	a.sched = sched

	slog.Info("Announcer started",
		slog.String("type", "sys"),
		slog.Int("announcements", len(announcements)))
	return nil
}

func (a *Announcer) Stop() {
	if a.sched != nil {
		_ = a.sched.Shutdown()
	}
}
