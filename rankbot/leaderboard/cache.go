package leaderboard

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"

	"github.com/tabishshah139/rankbot/rankbot/database/repositories"
)

const (
	cacheSize  = 1024 // one entry per guild, bounded
	DefaultTTL = 2 * time.Minute
	TopLimit   = 50
)

// Entry is one leaderboard row.
type Entry struct {
	UserID  string
	DailyXP int64
	TotalXP int64
}

// Snapshot is a read-only projection of a guild's top rows. It is replaced
// wholesale on rebuild, never mutated, so concurrent readers always see a
// complete view.
type Snapshot struct {
	GuildID string
	Entries []Entry
	BuiltAt time.Time
}

// Service serves leaderboard snapshots from a per-guild TTL cache backed by
// the progress store.
type Service struct {
	progress repositories.ProgressRepository
	cache    *lru.Cache
	ttl      time.Duration
}

func NewService(progress repositories.ProgressRepository, ttl time.Duration) *Service {
	cache, _ := lru.New(cacheSize)
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		progress: progress,
		cache:    cache,
		ttl:      ttl,
	}
}

// Top returns the guild's snapshot, rebuilding it when missing or stale.
func (s *Service) Top(ctx context.Context, guildID snowflake.ID) (*Snapshot, error) {
	key := guildID.String()
	if cached, ok := s.cache.Get(key); ok {
		snapshot := cached.(*Snapshot)
		if time.Since(snapshot.BuiltAt) < s.ttl {
			return snapshot, nil
		}
	}
	return s.rebuild(ctx, key)
}

func (s *Service) rebuild(ctx context.Context, guildID string) (*Snapshot, error) {
	rows, err := s.progress.TopByDailyXP(ctx, guildID, TopLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{
			UserID:  row.UserID,
			DailyXP: row.DailyXP,
			TotalXP: row.TotalXP,
		}
	}

	snapshot := &Snapshot{
		GuildID: guildID,
		Entries: entries,
		BuiltAt: time.Now(),
	}
	s.cache.Add(guildID, snapshot)
	return snapshot, nil
}

// Invalidate drops a guild's snapshot; the daily reset calls this after
// zeroing counters.
func (s *Service) Invalidate(guildID string) {
	s.cache.Remove(guildID)
}
