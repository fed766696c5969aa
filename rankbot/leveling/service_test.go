package leveling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/tabishshah139/rankbot/rankbot/database/models"
)

type memProgress struct {
	rows      map[string]*models.UserProgress
	upserts   int
	failGet   bool
	failAward bool
}

func newMemProgress() *memProgress {
	return &memProgress{rows: map[string]*models.UserProgress{}}
}

func (m *memProgress) key(guildID, userID string) string { return guildID + "/" + userID }

func (m *memProgress) seed(guildID, userID string, totalXP, dailyXP int64) {
	m.rows[m.key(guildID, userID)] = &models.UserProgress{
		GuildID: guildID,
		UserID:  userID,
		TotalXP: totalXP,
		DailyXP: dailyXP,
	}
}

func (m *memProgress) UpsertAward(_ context.Context, guildID, userID string, xpDelta int64, now time.Time) error {
	if m.failAward {
		return errors.New("db down")
	}
	m.upserts++
	row, ok := m.rows[m.key(guildID, userID)]
	if !ok {
		row = &models.UserProgress{GuildID: guildID, UserID: userID}
		m.rows[m.key(guildID, userID)] = row
	}
	row.TotalXP += xpDelta
	row.DailyXP += xpDelta
	row.DailyMessageCount++
	row.LastMessageAt = now
	return nil
}

func (m *memProgress) GetProgress(_ context.Context, guildID, userID string) (*models.UserProgress, error) {
	if m.failGet {
		return nil, errors.New("db down")
	}
	if row, ok := m.rows[m.key(guildID, userID)]; ok {
		copied := *row
		return &copied, nil
	}
	return &models.UserProgress{GuildID: guildID, UserID: userID}, nil
}

func (m *memProgress) ResetDailyCounters(context.Context, string) error { return nil }
func (m *memProgress) DeleteUser(context.Context, string, string) error { return nil }
func (m *memProgress) DeleteGuild(context.Context, string) error        { return nil }
func (m *memProgress) TopByDailyXP(context.Context, string, int) ([]*models.UserProgress, error) {
	return nil, nil
}
func (m *memProgress) ListByGuild(context.Context, string) ([]*models.UserProgress, error) {
	return nil, nil
}
func (m *memProgress) ListGuilds(context.Context) ([]string, error) { return nil, nil }

type memOverrides struct {
	forced map[string]string
}

func (m *memOverrides) Set(_ context.Context, guildID, userID, forcedRank string) error {
	m.forced[guildID+"/"+userID] = forcedRank
	return nil
}

func (m *memOverrides) Get(_ context.Context, guildID, userID string) (string, error) {
	return m.forced[guildID+"/"+userID], nil
}

func (m *memOverrides) Clear(_ context.Context, guildID, userID string) error {
	delete(m.forced, guildID+"/"+userID)
	return nil
}

func (m *memOverrides) ListByGuild(context.Context, string) (map[string]string, error) {
	return m.forced, nil
}

type recordingSyncer struct {
	calls []string
}

func (r *recordingSyncer) Reconcile(_ context.Context, _, _ snowflake.ID, _ []snowflake.ID, tier string) error {
	r.calls = append(r.calls, tier)
	return nil
}

type chanNotifier struct {
	levelUps chan int
	rankUps  chan string
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{
		levelUps: make(chan int, 8),
		rankUps:  make(chan string, 8),
	}
}

func (n *chanNotifier) NotifyLevelUp(_, _, _ snowflake.ID, newLevel int) {
	n.levelUps <- newLevel
}

func (n *chanNotifier) NotifyRankUp(_, _, _ snowflake.ID, newTier string) {
	n.rankUps <- newTier
}

func awaitInt(t *testing.T, ch chan int, what string) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return 0
	}
}

func awaitString(t *testing.T, ch chan string, what string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return ""
	}
}

func assertSilent[T any](t *testing.T, ch chan T, what string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected %s: %v", what, v)
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestService(t *testing.T, progress *memProgress, overrides *memOverrides, sync *recordingSyncer, notify *chanNotifier, channels []snowflake.ID) *Service {
	t.Helper()
	table := mustTable(t, DefaultTiers())
	return NewService(DefaultXPConfig(), table, progress, overrides, sync, notify, channels)
}

func guildMessage(content string) Message {
	return Message{
		GuildID:   snowflake.ID(100),
		ChannelID: snowflake.ID(200),
		UserID:    snowflake.ID(300),
		Content:   content,
	}
}

func TestHandleMessageAwards(t *testing.T) {
	progress := newMemProgress()
	overrides := &memOverrides{forced: map[string]string{}}
	syncer := &recordingSyncer{}
	notify := newChanNotifier()
	s := newTestService(t, progress, overrides, syncer, notify, nil)

	if err := s.HandleMessage(context.Background(), guildMessage("hello world")); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	row, _ := progress.GetProgress(context.Background(), "100", "300")
	if row.TotalXP != 10 || row.DailyXP != 10 || row.DailyMessageCount != 1 {
		t.Errorf("progress after award = total %d daily %d msgs %d, want 10/10/1",
			row.TotalXP, row.DailyXP, row.DailyMessageCount)
	}
	if len(syncer.calls) != 1 || syncer.calls[0] != "" {
		t.Errorf("syncer calls = %v, want one call with no tier", syncer.calls)
	}
	assertSilent(t, notify.levelUps, "level-up")
	assertSilent(t, notify.rankUps, "rank-up")
}

func TestHandleMessageSkips(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		channels []snowflake.ID
	}{
		{
			name: "bot author",
			msg: Message{
				GuildID:   snowflake.ID(100),
				ChannelID: snowflake.ID(200),
				UserID:    snowflake.ID(300),
				Content:   "beep",
				IsBot:     true,
			},
		},
		{
			name: "direct message",
			msg: Message{
				ChannelID: snowflake.ID(200),
				UserID:    snowflake.ID(300),
				Content:   "hi",
			},
		},
		{
			name:     "channel outside award list",
			msg:      guildMessage("hi"),
			channels: []snowflake.ID{999},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := newMemProgress()
			overrides := &memOverrides{forced: map[string]string{}}
			syncer := &recordingSyncer{}
			s := newTestService(t, progress, overrides, syncer, newChanNotifier(), tt.channels)

			if err := s.HandleMessage(context.Background(), tt.msg); err != nil {
				t.Fatalf("HandleMessage() error = %v", err)
			}
			if progress.upserts != 0 {
				t.Errorf("upserts = %d, want 0", progress.upserts)
			}
			if len(syncer.calls) != 0 {
				t.Errorf("syncer calls = %v, want none", syncer.calls)
			}
		})
	}
}

func TestHandleMessageAwardChannelAllowed(t *testing.T) {
	progress := newMemProgress()
	overrides := &memOverrides{forced: map[string]string{}}
	s := newTestService(t, progress, overrides, &recordingSyncer{}, newChanNotifier(), []snowflake.ID{200})

	if err := s.HandleMessage(context.Background(), guildMessage("hi")); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if progress.upserts != 1 {
		t.Errorf("upserts = %d, want 1", progress.upserts)
	}
}

func TestHandleMessageLevelUp(t *testing.T) {
	progress := newMemProgress()
	progress.seed("100", "300", 145, 0)
	overrides := &memOverrides{forced: map[string]string{}}
	notify := newChanNotifier()
	s := newTestService(t, progress, overrides, &recordingSyncer{}, notify, nil)

	if err := s.HandleMessage(context.Background(), guildMessage("gm")); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if got := awaitInt(t, notify.levelUps, "level-up"); got != 1 {
		t.Errorf("level-up level = %d, want 1", got)
	}
	assertSilent(t, notify.rankUps, "rank-up")
}

func TestHandleMessageRankUp(t *testing.T) {
	progress := newMemProgress()
	progress.seed("100", "300", 45, 45)
	overrides := &memOverrides{forced: map[string]string{}}
	syncer := &recordingSyncer{}
	notify := newChanNotifier()
	s := newTestService(t, progress, overrides, syncer, notify, nil)

	if err := s.HandleMessage(context.Background(), guildMessage("gm")); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if got := awaitString(t, notify.rankUps, "rank-up"); got != "E" {
		t.Errorf("rank-up tier = %q, want E", got)
	}
	if len(syncer.calls) != 1 || syncer.calls[0] != "E" {
		t.Errorf("syncer calls = %v, want [E]", syncer.calls)
	}
}

// A pinned rank must never produce a rank-up notification, but level-ups keep
// working: the override only freezes the tier, not the XP curve.
func TestHandleMessageOverridePinsRank(t *testing.T) {
	progress := newMemProgress()
	progress.seed("100", "300", 145, 45)
	overrides := &memOverrides{forced: map[string]string{"100/300": "S+"}}
	syncer := &recordingSyncer{}
	notify := newChanNotifier()
	s := newTestService(t, progress, overrides, syncer, notify, nil)

	if err := s.HandleMessage(context.Background(), guildMessage("gm")); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if got := awaitInt(t, notify.levelUps, "level-up"); got != 1 {
		t.Errorf("level-up level = %d, want 1", got)
	}
	assertSilent(t, notify.rankUps, "rank-up")
	if len(syncer.calls) != 1 || syncer.calls[0] != "S+" {
		t.Errorf("syncer calls = %v, want [S+]", syncer.calls)
	}
}

func TestHandleMessageAwardFailureAborts(t *testing.T) {
	progress := newMemProgress()
	progress.failAward = true
	overrides := &memOverrides{forced: map[string]string{}}
	syncer := &recordingSyncer{}
	s := newTestService(t, progress, overrides, syncer, newChanNotifier(), nil)

	if err := s.HandleMessage(context.Background(), guildMessage("hi")); err == nil {
		t.Fatal("HandleMessage() error = nil, want award failure")
	}
	if len(syncer.calls) != 0 {
		t.Errorf("syncer calls = %v, want none after failed award", syncer.calls)
	}
}

func TestGetProfile(t *testing.T) {
	progress := newMemProgress()
	progress.seed("100", "300", 600, 130)
	overrides := &memOverrides{forced: map[string]string{}}
	s := newTestService(t, progress, overrides, &recordingSyncer{}, newChanNotifier(), nil)

	profile, err := s.GetProfile(context.Background(), snowflake.ID(100), snowflake.ID(300))
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if profile.Level != 2 {
		t.Errorf("Level = %d, want 2", profile.Level)
	}
	if profile.NextLevelAt != 1050 {
		t.Errorf("NextLevelAt = %d, want 1050", profile.NextLevelAt)
	}
	if profile.Tier != "D" || profile.Overridden {
		t.Errorf("Tier = %q (overridden %v), want D without override", profile.Tier, profile.Overridden)
	}
}

func TestGetProfileUnknownUserIsZeroValued(t *testing.T) {
	progress := newMemProgress()
	overrides := &memOverrides{forced: map[string]string{}}
	s := newTestService(t, progress, overrides, &recordingSyncer{}, newChanNotifier(), nil)

	profile, err := s.GetProfile(context.Background(), snowflake.ID(100), snowflake.ID(999))
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if profile.Progress.TotalXP != 0 || profile.Level != 0 || profile.Tier != "" {
		t.Errorf("profile = level %d tier %q total %d, want all zero",
			profile.Level, profile.Tier, profile.Progress.TotalXP)
	}
}
