package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/elliotttmiller/NSSPORTS-sub002/models"
)

// Teaser is one teaser tier: fixed payout odds for a fully-winning teaser of
// this size, the line adjustment it buys, and how pushes resolve.
type Teaser struct {
	MinLegs            int             `yaml:"min_legs"`
	MaxLegs            int             `yaml:"max_legs"`
	Odds               int             `yaml:"odds"`
	PointAdjustment    float64         `yaml:"point_adjustment"`
	NBAPointAdjustment *float64        `yaml:"nba_point_adjustment"`
	PushRule           models.PushRule `yaml:"push_rule"`
}

// Engine is the immutable configuration the wager engine runs against. It is
// passed into placement and settlement explicitly; nothing reads it from
// package state.
type Engine struct {
	MinStake float64           `yaml:"min_stake"`
	MaxStake float64           `yaml:"max_stake"`
	Teasers  map[string]Teaser `yaml:"teasers"`
}

func floatPtr(f float64) *float64 { return &f }

// Default returns the built-in stake limits and teaser tiers. Football tiers
// tease 6 points, basketball 4.
func Default() *Engine {
	return &Engine{
		MinStake: 1,
		MaxStake: 10000,
		Teasers: map[string]Teaser{
			"2-team": {
				MinLegs:            2,
				MaxLegs:            2,
				Odds:               -110,
				PointAdjustment:    6,
				NBAPointAdjustment: floatPtr(4),
				PushRule:           models.PushRulePush,
			},
			"3-team": {
				MinLegs:            3,
				MaxLegs:            3,
				Odds:               160,
				PointAdjustment:    6,
				NBAPointAdjustment: floatPtr(4),
				PushRule:           models.PushRuleRevert,
			},
			"4-team": {
				MinLegs:            4,
				MaxLegs:            4,
				Odds:               260,
				PointAdjustment:    6,
				NBAPointAdjustment: floatPtr(4),
				PushRule:           models.PushRuleRevert,
			},
			"6-team-super": {
				MinLegs:            6,
				MaxLegs:            6,
				Odds:               600,
				PointAdjustment:    10,
				NBAPointAdjustment: floatPtr(7),
				PushRule:           models.PushRuleLose,
			},
		},
	}
}

// Load overlays a YAML file on top of the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (*Engine, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading engine config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing engine config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (e *Engine) Validate() error {
	if e.MinStake <= 0 || e.MaxStake < e.MinStake {
		return fmt.Errorf("invalid stake bounds [%v, %v]", e.MinStake, e.MaxStake)
	}

	for name, t := range e.Teasers {
		if t.MinLegs < 2 || t.MaxLegs < t.MinLegs {
			return fmt.Errorf("teaser %q: invalid leg range [%d, %d]", name, t.MinLegs, t.MaxLegs)
		}
		if t.Odds == 0 {
			return fmt.Errorf("teaser %q: odds cannot be 0", name)
		}
		if t.PointAdjustment <= 0 {
			return fmt.Errorf("teaser %q: point adjustment must be positive", name)
		}
		switch t.PushRule {
		case models.PushRulePush, models.PushRuleLose, models.PushRuleRevert:
		default:
			return fmt.Errorf("teaser %q: unknown push rule %q", name, t.PushRule)
		}
	}
	return nil
}

// FindTierByLegCount returns the teaser tier covering exactly n legs, used by
// revert resolution when a push drops a teaser down a size. Tier names are
// scanned in sorted order so the lookup is deterministic.
func (e *Engine) FindTierByLegCount(n int) (Teaser, string, bool) {
	names := make([]string, 0, len(e.Teasers))
	for name := range e.Teasers {
		names = append(names, name)
	}
	sort.Strings(names)

	// Prefer a tier sized for exactly n legs, then any tier whose range covers n.
	for _, name := range names {
		t := e.Teasers[name]
		if t.MinLegs == n && t.MaxLegs == n {
			return t, name, true
		}
	}
	for _, name := range names {
		t := e.Teasers[name]
		if n >= t.MinLegs && n <= t.MaxLegs {
			return t, name, true
		}
	}
	return Teaser{}, "", false
}
