package leveling

import (
	"fmt"
	"sort"
)

// Tier is one row of the rank table: a badge name and the daily XP needed to
// hold it.
type Tier struct {
	Name      string `toml:"name"`
	Threshold int64  `toml:"threshold"`
}

// TierTable is an ordered set of tiers, highest threshold first. Construction
// rejects tables that are not strictly descending, so classification never has
// to tie-break.
type TierTable struct {
	tiers []Tier
}

func NewTierTable(tiers []Tier) (*TierTable, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("leveling: tier table is empty")
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold > sorted[j].Threshold
	})

	for i, t := range sorted {
		if t.Name == "" {
			return nil, fmt.Errorf("leveling: tier %d has an empty name", i)
		}
		if t.Threshold < 0 {
			return nil, fmt.Errorf("leveling: tier %q has a negative threshold %d", t.Name, t.Threshold)
		}
		if i > 0 && t.Threshold == sorted[i-1].Threshold {
			return nil, fmt.Errorf("leveling: tiers %q and %q share threshold %d", sorted[i-1].Name, t.Name, t.Threshold)
		}
	}

	return &TierTable{tiers: sorted}, nil
}

// DefaultTiers is the rank ladder the bot has shipped with.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "S+", Threshold: 500},
		{Name: "A", Threshold: 400},
		{Name: "B", Threshold: 300},
		{Name: "C", Threshold: 200},
		{Name: "D", Threshold: 125},
		{Name: "E", Threshold: 50},
	}
}

// Classify returns the highest tier whose threshold is covered by dailyXP,
// or ok=false when dailyXP is below the floor tier.
func (t *TierTable) Classify(dailyXP int64) (string, bool) {
	for _, tier := range t.tiers {
		if dailyXP >= tier.Threshold {
			return tier.Name, true
		}
	}
	return "", false
}

// Threshold reports the daily XP requirement of a named tier.
func (t *TierTable) Threshold(name string) (int64, bool) {
	for _, tier := range t.tiers {
		if tier.Name == name {
			return tier.Threshold, true
		}
	}
	return 0, false
}

// Contains reports whether name is a known tier.
func (t *TierTable) Contains(name string) bool {
	_, ok := t.Threshold(name)
	return ok
}

// Names returns the tier names, highest first.
func (t *TierTable) Names() []string {
	names := make([]string, len(t.tiers))
	for i, tier := range t.tiers {
		names[i] = tier.Name
	}
	return names
}

// Resolve applies admin override precedence: a non-empty forced tier always
// wins over the computed one.
func Resolve(computed string, forced string) string {
	if forced != "" {
		return forced
	}
	return computed
}
