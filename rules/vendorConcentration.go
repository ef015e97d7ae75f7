package rules

import (
	"fmt"

	"procurerisk/types"
	"procurerisk/util"
)

const (
	defaultConcentrationWeight = 20
	defaultMinScopeAwards      = 3
	concentrationReason        = "Vendor holds disproportionate share of awards"
)

// VendorConcentration triggers when the vendor's share of its scope is above
// threshold. It abstains without a batch index, for undisclosed vendors or
// agencies, and for scopes with fewer than minScopeAwards awards, where any
// single vendor would look dominant.
func VendorConcentration(weight int, threshold float64, scope types.Scope, basis types.Basis, minScopeAwards int) util.NamedRule {
	return util.NamedRule{
		Name:   util.Rules.VendorConcentration,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, index *types.VendorAwardIndex) (types.Contribution, bool) {
			share, awards, ok := index.Share(record, scope, basis)
			if !ok || awards < minScopeAwards || share <= threshold {
				return types.Contribution{}, false
			}
			return types.Contribution{
				Rule:   util.Rules.VendorConcentration,
				Weight: weight,
				Reason: concentrationReason,
			}, true
		},
	}
}

func parseVendorConcentrationRule(raw map[string]interface{}, th Thresholds) (util.NamedRule, error) {
	var params struct {
		Weight         *int   `mapstructure:"weight"`
		Scope          string `mapstructure:"scope"`
		Basis          string `mapstructure:"basis"`
		MinScopeAwards *int   `mapstructure:"min_scope_awards"`
	}
	if err := decodeParams(util.Rules.VendorConcentration, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(util.Rules.VendorConcentration, params.Weight, defaultConcentrationWeight)
	if err != nil {
		return util.NamedRule{}, err
	}

	scope := types.ScopeAgency
	switch types.Scope(params.Scope) {
	case "", types.ScopeAgency:
	case types.ScopeDataset:
		scope = types.ScopeDataset
	default:
		return util.NamedRule{}, &types.ConfigurationError{Rule: util.Rules.VendorConcentration, Reason: fmt.Sprintf("invalid scope %q", params.Scope)}
	}

	basis := types.BasisCount
	switch types.Basis(params.Basis) {
	case "", types.BasisCount:
	case types.BasisValue:
		basis = types.BasisValue
	default:
		return util.NamedRule{}, &types.ConfigurationError{Rule: util.Rules.VendorConcentration, Reason: fmt.Sprintf("invalid basis %q", params.Basis)}
	}

	minAwards := defaultMinScopeAwards
	if params.MinScopeAwards != nil {
		minAwards = *params.MinScopeAwards
	}
	if minAwards < 2 {
		return util.NamedRule{}, &types.ConfigurationError{Rule: util.Rules.VendorConcentration, Reason: "min_scope_awards must be at least 2"}
	}

	return VendorConcentration(weight, th.ConcentrationThreshold, scope, basis, minAwards), nil
}
