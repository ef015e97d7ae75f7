package rules

import (
	"procurerisk/types"
	"procurerisk/util"
)

const (
	defaultLowCompetitionWeight = 25
	lowCompetitionReason        = "Single/low bidder award"
)

// LowCompetition triggers when the bidder count is known and below
// minBidders. An undisclosed bidder count abstains.
func LowCompetition(weight, minBidders int) util.NamedRule {
	return util.NamedRule{
		Name:   util.Rules.LowCompetition,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			if record.BidderCount == nil || *record.BidderCount >= minBidders {
				return types.Contribution{}, false
			}
			return types.Contribution{
				Rule:   util.Rules.LowCompetition,
				Weight: weight,
				Reason: lowCompetitionReason,
			}, true
		},
	}
}

func parseLowCompetitionRule(raw map[string]interface{}, th Thresholds) (util.NamedRule, error) {
	var params struct {
		Weight *int `mapstructure:"weight"`
	}
	if err := decodeParams(util.Rules.LowCompetition, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(util.Rules.LowCompetition, params.Weight, defaultLowCompetitionWeight)
	if err != nil {
		return util.NamedRule{}, err
	}
	return LowCompetition(weight, th.LowBidderThreshold), nil
}
