package leveling

import (
	"strings"
	"testing"
)

func TestAwardFor(t *testing.T) {
	cfg := DefaultXPConfig()

	tests := []struct {
		name    string
		content string
		want    int64
	}{
		{name: "empty message", content: "", want: 10},
		{name: "short message", content: "hello", want: 10},
		{name: "just below bonus step", content: strings.Repeat("a", 14), want: 10},
		{name: "first bonus step", content: strings.Repeat("a", 15), want: 11},
		{name: "mid-length message", content: strings.Repeat("a", 90), want: 16},
		{name: "bonus capped", content: strings.Repeat("a", 300), want: 30},
		{name: "way past the cap", content: strings.Repeat("a", 5000), want: 30},
		{name: "multibyte runes counted once", content: strings.Repeat("é", 30), want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.AwardFor(tt.content); got != tt.want {
				t.Errorf("AwardFor(%d runes) = %d, want %d", len([]rune(tt.content)), got, tt.want)
			}
		})
	}
}

func TestLevelThreshold(t *testing.T) {
	cfg := DefaultXPConfig()

	tests := []struct {
		level int
		want  int64
	}{
		{level: -1, want: 0},
		{level: 0, want: 0},
		{level: 1, want: 150},
		{level: 2, want: 500},
		{level: 5, want: 2750},
		{level: 10, want: 10500},
	}

	for _, tt := range tests {
		if got := cfg.LevelThreshold(tt.level); got != tt.want {
			t.Errorf("LevelThreshold(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestLevelFor(t *testing.T) {
	cfg := DefaultXPConfig()

	tests := []struct {
		totalXP int64
		want    int
	}{
		{totalXP: -5, want: 0},
		{totalXP: 0, want: 0},
		{totalXP: 149, want: 0},
		{totalXP: 150, want: 1},
		{totalXP: 499, want: 1},
		{totalXP: 500, want: 2},
		{totalXP: 10499, want: 9},
		{totalXP: 10500, want: 10},
	}

	for _, tt := range tests {
		if got := cfg.LevelFor(tt.totalXP); got != tt.want {
			t.Errorf("LevelFor(%d) = %d, want %d", tt.totalXP, got, tt.want)
		}
	}
}

// LevelFor must be the exact inverse of LevelThreshold at every boundary, not
// just near zero where float error is small.
func TestLevelCurveRoundTrip(t *testing.T) {
	cfg := DefaultXPConfig()

	for level := 1; level <= 2000; level++ {
		at := cfg.LevelThreshold(level)
		if got := cfg.LevelFor(at); got != level {
			t.Fatalf("LevelFor(threshold(%d)=%d) = %d", level, at, got)
		}
		if got := cfg.LevelFor(at - 1); got != level-1 {
			t.Fatalf("LevelFor(threshold(%d)-1) = %d, want %d", level, got, level-1)
		}
	}
}

func TestXPConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*XPConfig)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *XPConfig) {}},
		{name: "negative base award", mutate: func(c *XPConfig) { c.BaseAward = -1 }, wantErr: true},
		{name: "zero length divisor", mutate: func(c *XPConfig) { c.LengthDivisor = 0 }, wantErr: true},
		{name: "negative bonus cap", mutate: func(c *XPConfig) { c.BonusCap = -1 }, wantErr: true},
		{name: "flat curve", mutate: func(c *XPConfig) { c.CurveQuad = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultXPConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
