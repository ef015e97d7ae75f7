package rules

import (
	"procurerisk/types"
	"procurerisk/util"
)

const (
	defaultRedFlagWeight     = 12
	defaultRedFlagColumn     = "is_red_flag_entity"
	redFlagReason            = "Awarded to a red-flagged entity"
	defaultBlacklistedWeight = 30
	defaultBlacklistedColumn = "is_blacklisted_contractor"
	blacklistedReason        = "Blacklisted contractor involved"
)

// RowFlag triggers when the source marked the record itself with a yes/no
// flag column. A missing column reads as not flagged.
func RowFlag(name string, weight int, column, reason string) util.NamedRule {
	return util.NamedRule{
		Name:   name,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			if !extraFlag(record, column) {
				return types.Contribution{}, false
			}
			return types.Contribution{Rule: name, Weight: weight, Reason: reason}, true
		},
	}
}

func parseRowFlagRule(name string, raw map[string]interface{}, defWeight int, defColumn, reason string) (util.NamedRule, error) {
	var params struct {
		Weight *int   `mapstructure:"weight"`
		Column string `mapstructure:"column"`
	}
	if err := decodeParams(name, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(name, params.Weight, defWeight)
	if err != nil {
		return util.NamedRule{}, err
	}
	return RowFlag(name, weight, columnOr(params.Column, defColumn), reason), nil
}

func parseRedFlagEntityRule(raw map[string]interface{}) (util.NamedRule, error) {
	return parseRowFlagRule(util.Rules.RedFlagEntity, raw, defaultRedFlagWeight, defaultRedFlagColumn, redFlagReason)
}

func parseBlacklistedContractorRule(raw map[string]interface{}) (util.NamedRule, error) {
	return parseRowFlagRule(util.Rules.BlacklistedVendor, raw, defaultBlacklistedWeight, defaultBlacklistedColumn, blacklistedReason)
}
