package rules

import (
	"fmt"

	"procurerisk/types"
	"procurerisk/util"
)

const (
	defaultUnderbidWeight    = 8
	defaultUnderbidThreshold = 0.20
)

// AggressiveUnderbid triggers when the award is more than threshold below the
// estimate, a common sign of a bid later recovered through variations.
func AggressiveUnderbid(weight int, threshold float64) util.NamedRule {
	return util.NamedRule{
		Name:   util.Rules.AggressiveUnderbid,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			variance, ok := record.CostVariance()
			if !ok {
				return types.Contribution{}, false
			}
			under := -variance.InexactFloat64()
			if under <= threshold {
				return types.Contribution{}, false
			}
			return types.Contribution{
				Rule:   util.Rules.AggressiveUnderbid,
				Weight: weight,
				Reason: fmt.Sprintf("Award cost below estimate by %s", util.Percent(under)),
			}, true
		},
	}
}

func parseAggressiveUnderbidRule(raw map[string]interface{}) (util.NamedRule, error) {
	var params struct {
		Weight    *int     `mapstructure:"weight"`
		Threshold *float64 `mapstructure:"threshold"`
	}
	if err := decodeParams(util.Rules.AggressiveUnderbid, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(util.Rules.AggressiveUnderbid, params.Weight, defaultUnderbidWeight)
	if err != nil {
		return util.NamedRule{}, err
	}

	threshold := defaultUnderbidThreshold
	if params.Threshold != nil {
		threshold = *params.Threshold
	}
	if threshold <= 0 || threshold >= 1 {
		return util.NamedRule{}, &types.ConfigurationError{Rule: util.Rules.AggressiveUnderbid, Reason: "threshold must be in (0, 1)"}
	}

	return AggressiveUnderbid(weight, threshold), nil
}
