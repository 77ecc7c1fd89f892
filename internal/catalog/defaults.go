package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults carries the tunable domain numbers: expected lifespans per
// category (km) and service intervals per canonical category (days).
// Lookup is two-tier: a YAML file seeded at deploy time overrides the
// compiled-in table, which always answers.
type Defaults struct {
	LifespansKm      map[Category]float64 `yaml:"lifespans_km"`
	IntervalDays     map[Category]int     `yaml:"interval_days"`
	NearLimitPercent int                  `yaml:"near_limit_percent"`
}

var builtinDefaults = Defaults{
	LifespansKm: map[Category]float64{
		CategoryChain:         3000,
		CategoryCassette:      9000,
		CategoryChainring:     15000,
		CategoryTireFront:     6000,
		CategoryTireRear:      4000,
		CategoryBrakePadFront: 2500,
		CategoryBrakePadRear:  2500,
		CategoryBottomBracket: 10000,
		CategoryShiftCableSet: 5000,
		CategoryBrakeRotorFr:  12000,
		CategoryBrakeRotorRr:  12000,
	},
	IntervalDays: map[Category]int{
		CategoryChainLube:  30,
		CategorySealant:    90,
		CategoryBrakeFluid: 365,
	},
	NearLimitPercent: 80,
}

// Load returns the merged defaults. An empty path or a missing file yields
// the compiled-in table untouched; a malformed file is an error.
func Load(path string) (Defaults, error) {
	merged := Defaults{
		LifespansKm:      map[Category]float64{},
		IntervalDays:     map[Category]int{},
		NearLimitPercent: builtinDefaults.NearLimitPercent,
	}
	for k, v := range builtinDefaults.LifespansKm {
		merged.LifespansKm[k] = v
	}
	for k, v := range builtinDefaults.IntervalDays {
		merged.IntervalDays[k] = v
	}
	if path == "" {
		return merged, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return merged, nil
		}
		return merged, fmt.Errorf("read defaults file: %w", err)
	}
	var override Defaults
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return merged, fmt.Errorf("parse defaults file: %w", err)
	}
	for k, v := range override.LifespansKm {
		merged.LifespansKm[k] = v
	}
	for k, v := range override.IntervalDays {
		merged.IntervalDays[k] = v
	}
	if override.NearLimitPercent > 0 {
		merged.NearLimitPercent = override.NearLimitPercent
	}
	return merged, nil
}

// DefaultLifespan answers 0 for categories with no tracked lifespan, which
// callers treat as "untracked".
func (d Defaults) DefaultLifespan(c Category) float64 {
	return d.LifespansKm[c]
}

func (d Defaults) ServiceIntervalDays(c Category) int {
	return d.IntervalDays[Canonical(c)]
}
