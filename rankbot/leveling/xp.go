package leveling

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// XPConfig holds the tunable constants of the XP and level curves.
type XPConfig struct {
	BaseAward     int64 `toml:"base_award"`
	LengthDivisor int64 `toml:"length_divisor"`
	BonusCap      int64 `toml:"bonus_cap"`
	CurveQuad     int64 `toml:"curve_quad"`
	CurveLinear   int64 `toml:"curve_linear"`
}

// DefaultXPConfig matches the values the bot has always shipped with.
func DefaultXPConfig() XPConfig {
	return XPConfig{
		BaseAward:     10,
		LengthDivisor: 15,
		BonusCap:      20,
		CurveQuad:     100,
		CurveLinear:   50,
	}
}

func (c XPConfig) Validate() error {
	if c.BaseAward < 0 {
		return fmt.Errorf("leveling: base_award must be non-negative, got %d", c.BaseAward)
	}
	if c.LengthDivisor <= 0 {
		return fmt.Errorf("leveling: length_divisor must be positive, got %d", c.LengthDivisor)
	}
	if c.BonusCap < 0 {
		return fmt.Errorf("leveling: bonus_cap must be non-negative, got %d", c.BonusCap)
	}
	if c.CurveQuad <= 0 || c.CurveLinear < 0 {
		return fmt.Errorf("leveling: level curve must be strictly increasing (quad=%d, linear=%d)", c.CurveQuad, c.CurveLinear)
	}
	return nil
}

// AwardFor computes the XP granted for a single message: a flat base plus a
// length bonus capped at BonusCap. Total over any input, including empty text.
func (c XPConfig) AwardFor(text string) int64 {
	bonus := int64(utf8.RuneCountInString(text)) / c.LengthDivisor
	if bonus > c.BonusCap {
		bonus = c.BonusCap
	}
	return c.BaseAward + bonus
}

// LevelThreshold returns the cumulative XP required to hold the given level.
// The curve is CurveQuad*level^2 + CurveLinear*level, so threshold(0) == 0 and
// thresholds grow strictly.
func (c XPConfig) LevelThreshold(level int) int64 {
	if level <= 0 {
		return 0
	}
	l := int64(level)
	return c.CurveQuad*l*l + c.CurveLinear*l
}

// LevelFor returns the largest level whose threshold does not exceed totalXP.
// The quadratic is inverted in closed form; the follow-up loop only corrects
// float rounding and runs a bounded number of steps.
func (c XPConfig) LevelFor(totalXP int64) int {
	if totalXP <= 0 {
		return 0
	}

	a := float64(c.CurveQuad)
	b := float64(c.CurveLinear)
	x := float64(totalXP)
	level := int((-b + math.Sqrt(b*b+4*a*x)) / (2 * a))

	for level > 0 && c.LevelThreshold(level) > totalXP {
		level--
	}
	for c.LevelThreshold(level+1) <= totalXP {
		level++
	}
	return level
}
