package rules

import (
	"fmt"
	"math"

	"procurerisk/types"
	"procurerisk/util"
)

const defaultCostVarianceWeight = 20

// CostVariance triggers when the award exceeds the estimate by more than
// threshold (a fraction, 0.2 = 20%). Points grow with the overrun:
// weight*overrun/threshold, never below weight and never above maxWeight.
func CostVariance(weight, maxWeight int, threshold float64) util.NamedRule {
	return util.NamedRule{
		Name:   util.Rules.CostVariance,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			variance, ok := record.CostVariance()
			if !ok {
				return types.Contribution{}, false
			}
			overrun := variance.InexactFloat64()
			if overrun <= threshold {
				return types.Contribution{}, false
			}

			// clamp before converting so a huge overrun cannot wrap
			scaled := math.Round(float64(weight) * overrun / threshold)
			points := int(math.Min(math.Max(scaled, float64(weight)), float64(maxWeight)))

			return types.Contribution{
				Rule:   util.Rules.CostVariance,
				Weight: points,
				Reason: fmt.Sprintf("Award cost exceeds estimate by %s", util.Percent(overrun)),
			}, true
		},
	}
}

func parseCostVarianceRule(raw map[string]interface{}, th Thresholds) (util.NamedRule, error) {
	var params struct {
		Weight    *int `mapstructure:"weight"`
		MaxWeight *int `mapstructure:"max_weight"`
	}
	if err := decodeParams(util.Rules.CostVariance, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(util.Rules.CostVariance, params.Weight, defaultCostVarianceWeight)
	if err != nil {
		return util.NamedRule{}, err
	}

	maxWeight := 2 * weight
	if params.MaxWeight != nil {
		maxWeight = *params.MaxWeight
	}
	if maxWeight < weight {
		return util.NamedRule{}, &types.ConfigurationError{Rule: util.Rules.CostVariance, Reason: "max_weight must be at least weight"}
	}

	return CostVariance(weight, maxWeight, th.CostVarianceThreshold), nil
}
