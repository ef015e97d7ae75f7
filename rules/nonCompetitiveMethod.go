package rules

import (
	"procurerisk/types"
	"procurerisk/util"
)

const (
	defaultNonCompetitiveWeight = 20
	nonCompetitiveReason        = "Non-competitive procurement method"
)

// NonCompetitiveMethod triggers for direct and limited-competitive awards.
func NonCompetitiveMethod(weight int) util.NamedRule {
	return util.NamedRule{
		Name:   util.Rules.NonCompetitiveMethod,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			if !record.ProcurementMethod.IsNonCompetitive() {
				return types.Contribution{}, false
			}
			return types.Contribution{
				Rule:   util.Rules.NonCompetitiveMethod,
				Weight: weight,
				Reason: nonCompetitiveReason,
			}, true
		},
	}
}

func parseNonCompetitiveMethodRule(raw map[string]interface{}) (util.NamedRule, error) {
	var params struct {
		Weight *int `mapstructure:"weight"`
	}
	if err := decodeParams(util.Rules.NonCompetitiveMethod, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(util.Rules.NonCompetitiveMethod, params.Weight, defaultNonCompetitiveWeight)
	if err != nil {
		return util.NamedRule{}, err
	}
	return NonCompetitiveMethod(weight), nil
}
