package fraud

import "github.com/joseph-ayodele/claims-tracker/internal/common"

// Options holds the tunable thresholds of the soft-flag rules.
type Options struct {
	// AvgCostMultiplier flags claims above this multiple of the hospital average.
	AvgCostMultiplier float64
	// HighAmount flags claims strictly above this amount.
	HighAmount int64
	// RoundAmountFloor and RoundAmountStep flag amounts above the floor that are
	// an exact multiple of the step.
	RoundAmountFloor int64
	RoundAmountStep  int64
	// MinClaimIDLength flags claim ids shorter than this many characters.
	MinClaimIDLength int
	// StrictLocation requires both region and pincode for the hospital identity check.
	StrictLocation bool
}

func DefaultOptions() Options {
	return Options{
		AvgCostMultiplier: 1.5,
		HighAmount:        100_000,
		RoundAmountFloor:  50_000,
		RoundAmountStep:   10_000,
		MinClaimIDLength:  5,
	}
}

// OptionsFromConfig maps the fraud section of the config, keeping defaults for unset values.
func OptionsFromConfig(cfg common.FraudConfig) Options {
	o := DefaultOptions()
	if cfg.AvgCostMultiplier > 0 {
		o.AvgCostMultiplier = cfg.AvgCostMultiplier
	}
	if cfg.HighAmount > 0 {
		o.HighAmount = cfg.HighAmount
	}
	if cfg.RoundAmountFloor > 0 {
		o.RoundAmountFloor = cfg.RoundAmountFloor
	}
	if cfg.RoundAmountStep > 0 {
		o.RoundAmountStep = cfg.RoundAmountStep
	}
	if cfg.MinClaimIDLength > 0 {
		o.MinClaimIDLength = cfg.MinClaimIDLength
	}
	o.StrictLocation = cfg.StrictLocation
	return o
}
