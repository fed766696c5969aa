package rank

import (
	"context"
	"testing"

	"github.com/disgoorg/snowflake/v2"

	"github.com/tabishshah139/rankbot/rankbot/leveling"
)

type fakeProvider struct {
	badges  []Badge
	members map[snowflake.ID][]snowflake.ID
	nextID  snowflake.ID

	creates int
	adds    int
	removes int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		members: map[snowflake.ID][]snowflake.ID{},
		nextID:  snowflake.ID(1),
	}
}

func (f *fakeProvider) addBadgeDef(name string) Badge {
	badge := Badge{ID: f.nextID, Name: name}
	f.nextID++
	f.badges = append(f.badges, badge)
	return badge
}

func (f *fakeProvider) ListBadges(context.Context, snowflake.ID) ([]Badge, error) {
	return append([]Badge(nil), f.badges...), nil
}

func (f *fakeProvider) CreateBadge(_ context.Context, _ snowflake.ID, name string, _ int) (Badge, error) {
	f.creates++
	return f.addBadgeDef(name), nil
}

func (f *fakeProvider) AddBadge(_ context.Context, _, userID, badgeID snowflake.ID) error {
	f.adds++
	f.members[userID] = append(f.members[userID], badgeID)
	return nil
}

func (f *fakeProvider) RemoveBadge(_ context.Context, _, userID, badgeID snowflake.ID) error {
	f.removes++
	held := f.members[userID]
	for i, id := range held {
		if id == badgeID {
			f.members[userID] = append(held[:i], held[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeProvider) Member(_ context.Context, _, userID snowflake.ID) ([]snowflake.ID, bool, error) {
	held, ok := f.members[userID]
	if !ok {
		return nil, false, nil
	}
	return append([]snowflake.ID(nil), held...), true, nil
}

func (f *fakeProvider) opCount() int { return f.creates + f.adds + f.removes }

func testSynchronizer(t *testing.T, provider *fakeProvider) *Synchronizer {
	t.Helper()
	table, err := leveling.NewTierTable(leveling.DefaultTiers())
	if err != nil {
		t.Fatalf("NewTierTable() error = %v", err)
	}
	return NewSynchronizer(provider, table)
}

const (
	testGuild = snowflake.ID(10)
	testUser  = snowflake.ID(20)
)

func TestReconcileCreatesMissingBadge(t *testing.T) {
	provider := newFakeProvider()
	provider.members[testUser] = nil
	s := testSynchronizer(t, provider)

	if err := s.Reconcile(context.Background(), testGuild, testUser, nil, "C"); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if provider.creates != 1 {
		t.Errorf("creates = %d, want 1", provider.creates)
	}
	held := provider.members[testUser]
	if len(held) != 1 {
		t.Fatalf("member holds %d badges, want 1", len(held))
	}
	if provider.badges[0].Name != "C" || held[0] != provider.badges[0].ID {
		t.Errorf("member holds %v, want the created C badge", held)
	}
}

// A second reconcile with the resulting state must be a pure no-op.
func TestReconcileIdempotent(t *testing.T) {
	provider := newFakeProvider()
	provider.members[testUser] = nil
	s := testSynchronizer(t, provider)

	if err := s.ReconcileUser(context.Background(), testGuild, testUser, "B"); err != nil {
		t.Fatalf("first ReconcileUser() error = %v", err)
	}

	before := provider.opCount()
	if err := s.ReconcileUser(context.Background(), testGuild, testUser, "B"); err != nil {
		t.Fatalf("second ReconcileUser() error = %v", err)
	}
	if got := provider.opCount() - before; got != 0 {
		t.Errorf("second reconcile performed %d operations, want 0", got)
	}
}

func TestReconcileSwitchesTier(t *testing.T) {
	provider := newFakeProvider()
	oldBadge := provider.addBadgeDef("E")
	provider.members[testUser] = []snowflake.ID{oldBadge.ID}
	s := testSynchronizer(t, provider)

	if err := s.ReconcileUser(context.Background(), testGuild, testUser, "D"); err != nil {
		t.Fatalf("ReconcileUser() error = %v", err)
	}

	held := provider.members[testUser]
	if len(held) != 1 {
		t.Fatalf("member holds %d badges, want exactly the new tier", len(held))
	}
	if held[0] == oldBadge.ID {
		t.Error("member still holds the old tier badge")
	}
	if provider.removes != 1 {
		t.Errorf("removes = %d, want 1", provider.removes)
	}
}

func TestReconcileEmptyTierStripsAll(t *testing.T) {
	provider := newFakeProvider()
	e := provider.addBadgeDef("E")
	d := provider.addBadgeDef("D")
	keep := provider.addBadgeDef("Moderator")
	provider.members[testUser] = []snowflake.ID{e.ID, d.ID, keep.ID}
	s := testSynchronizer(t, provider)

	if err := s.RemoveAll(context.Background(), testGuild, testUser); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}

	held := provider.members[testUser]
	if len(held) != 1 || held[0] != keep.ID {
		t.Errorf("member holds %v, want only the non-tier badge %d", held, keep.ID)
	}
	if provider.creates != 0 {
		t.Errorf("creates = %d, want 0 when stripping", provider.creates)
	}
}

func TestReconcileUserDepartedMember(t *testing.T) {
	provider := newFakeProvider()
	s := testSynchronizer(t, provider)

	if err := s.ReconcileUser(context.Background(), testGuild, snowflake.ID(404), "C"); err != nil {
		t.Fatalf("ReconcileUser() error = %v, want silent skip", err)
	}
	if provider.opCount() != 0 {
		t.Errorf("operations = %d, want 0 for a departed member", provider.opCount())
	}
}
