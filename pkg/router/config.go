// Package router implements a congestion-aware maze router over a grid of
// typed channel segments. Nets contend for shared wiring resources; overlap
// is allowed during search and penalized by cost, and an iterative rip-up and
// reroute scheme with history-based cost escalation negotiates the contention
// away (the PathFinder family of algorithms).
package router

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Cfg holds the router tuning parameters. Each router instance owns its own
// Cfg, so independent routers (tests, disjoint regions) can run with
// different tuning.
type Cfg struct {
	// Search pruning margin around an arc's bounding box.
	BBMarginX int `toml:"bb_margin_x"`
	BBMarginY int `toml:"bb_margin_y"`

	// Weight of the additive centroid-bias term.
	BiasCostFactor float32 `toml:"bias_cost_factor"`

	// Present-congestion weight for the first round; multiplied by
	// CurrCongMult after every round to force convergence.
	CurrCongWeight float64 `toml:"curr_cong_weight"`
	CurrCongMult   float64 `toml:"curr_cong_mult"`

	// Historical congestion accumulated per round on overused nodes.
	HistCongWeight float64 `toml:"hist_cong_weight"`

	// Manhattan cost-to-go heuristic tuning.
	TogoCostDx    int `toml:"togo_cost_dx"`
	TogoCostDy    int `toml:"togo_cost_dy"`
	TogoCostAdder int `toml:"togo_cost_adder"`

	// Scale applied to the heuristic estimate in the frontier ordering.
	EstimateWeight float64 `toml:"estimate_weight"`

	// Round budget before persistent congestion is reported as failure.
	MaxIters int `toml:"max_iters"`

	// Route nets with disjoint expanded bounding boxes concurrently.
	Parallel bool `toml:"parallel"`

	// Seed for the frontier tie-break tags; runs are reproducible per seed.
	Seed int64 `toml:"seed"`
}

// DefaultCfg returns the standard tuning.
func DefaultCfg() Cfg {
	return Cfg{
		BBMarginX:      3,
		BBMarginY:      3,
		BiasCostFactor: 0.25,
		CurrCongWeight: 0.5,
		CurrCongMult:   2.0,
		HistCongWeight: 1.0,
		TogoCostDx:     2,
		TogoCostDy:     2,
		TogoCostAdder:  0,
		EstimateWeight: 1.75,
		MaxIters:       500,
	}
}

// LoadCfg reads tuning overrides from a TOML file on top of the defaults.
func LoadCfg(path string) (Cfg, error) {
	cfg := DefaultCfg()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Cfg{}, fmt.Errorf("load router config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Cfg{}, err
	}
	return cfg, nil
}

func (c Cfg) validate() error {
	if c.MaxIters < 1 {
		return fmt.Errorf("router config: max_iters must be >= 1, got %d", c.MaxIters)
	}
	if c.CurrCongMult < 1 {
		return fmt.Errorf("router config: curr_cong_mult must be >= 1, got %g", c.CurrCongMult)
	}
	if c.BBMarginX < 0 || c.BBMarginY < 0 {
		return fmt.Errorf("router config: bounding box margins must be non-negative")
	}
	return nil
}
