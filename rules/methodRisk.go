package rules

import (
	"github.com/shopspring/decimal"

	"procurerisk/types"
	"procurerisk/util"
)

const (
	defaultHighValueWeight   = 12
	defaultHighValueMin      = 10_000_000
	highValueReason          = "High-value contract via limited competition method"
	defaultShortFormWeight   = 6
	defaultShortFormMinDays  = 180
	defaultDurationColumn    = "contract_duration_days"
	shortFormReason          = "Short-form method used for long-duration contract"
	defaultLimitedWeight     = 10
	defaultLimitedMaxBidders = 4
	limitedReason            = "Limited bidder competition"
)

// HighValueMethod triggers when a non-competitive method awarded at least
// minValue.
func HighValueMethod(weight int, minValue decimal.Decimal) util.NamedRule {
	return util.NamedRule{
		Name:   util.Rules.HighValueMethod,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			if !record.ProcurementMethod.IsNonCompetitive() || record.AwardedCost.LessThan(minValue) {
				return types.Contribution{}, false
			}
			return types.Contribution{Rule: util.Rules.HighValueMethod, Weight: weight, Reason: highValueReason}, true
		},
	}
}

func parseHighValueMethodRule(raw map[string]interface{}) (util.NamedRule, error) {
	var params struct {
		Weight   *int     `mapstructure:"weight"`
		MinValue *float64 `mapstructure:"min_value"`
	}
	if err := decodeParams(util.Rules.HighValueMethod, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(util.Rules.HighValueMethod, params.Weight, defaultHighValueWeight)
	if err != nil {
		return util.NamedRule{}, err
	}

	minValue := decimal.NewFromInt(defaultHighValueMin)
	if params.MinValue != nil {
		if *params.MinValue <= 0 {
			return util.NamedRule{}, &types.ConfigurationError{Rule: util.Rules.HighValueMethod, Reason: "min_value must be positive"}
		}
		minValue = decimal.NewFromFloat(*params.MinValue)
	}
	return HighValueMethod(weight, minValue), nil
}

// ShortFormDuration triggers when a limited-competition method, meant for
// small quick purchases, covers a contract of at least minDays. The duration
// comes from a passthrough column.
func ShortFormDuration(weight, minDays int, column string) util.NamedRule {
	minimum := decimal.NewFromInt(int64(minDays))
	return util.NamedRule{
		Name:   util.Rules.ShortFormDuration,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			if record.ProcurementMethod != types.MethodLimited {
				return types.Contribution{}, false
			}
			days, ok := extraNumber(record, column)
			if !ok || days.LessThan(minimum) {
				return types.Contribution{}, false
			}
			return types.Contribution{Rule: util.Rules.ShortFormDuration, Weight: weight, Reason: shortFormReason}, true
		},
	}
}

func parseShortFormDurationRule(raw map[string]interface{}) (util.NamedRule, error) {
	var params struct {
		Weight  *int   `mapstructure:"weight"`
		MinDays *int   `mapstructure:"min_days"`
		Column  string `mapstructure:"column"`
	}
	if err := decodeParams(util.Rules.ShortFormDuration, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(util.Rules.ShortFormDuration, params.Weight, defaultShortFormWeight)
	if err != nil {
		return util.NamedRule{}, err
	}

	minDays := defaultShortFormMinDays
	if params.MinDays != nil {
		minDays = *params.MinDays
	}
	if minDays <= 0 {
		return util.NamedRule{}, &types.ConfigurationError{Rule: util.Rules.ShortFormDuration, Reason: "min_days must be positive"}
	}
	return ShortFormDuration(weight, minDays, columnOr(params.Column, defaultDurationColumn)), nil
}

// LimitedCompetition is the milder step above lowCompetition: a known bidder
// count of at least minBidders and at most maxBidders.
func LimitedCompetition(weight, minBidders, maxBidders int) util.NamedRule {
	return util.NamedRule{
		Name:   util.Rules.LimitedCompetition,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			if record.BidderCount == nil {
				return types.Contribution{}, false
			}
			if n := *record.BidderCount; n < minBidders || n > maxBidders {
				return types.Contribution{}, false
			}
			return types.Contribution{Rule: util.Rules.LimitedCompetition, Weight: weight, Reason: limitedReason}, true
		},
	}
}

func parseLimitedCompetitionRule(raw map[string]interface{}, th Thresholds) (util.NamedRule, error) {
	var params struct {
		Weight     *int `mapstructure:"weight"`
		MaxBidders *int `mapstructure:"max_bidders"`
	}
	if err := decodeParams(util.Rules.LimitedCompetition, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(util.Rules.LimitedCompetition, params.Weight, defaultLimitedWeight)
	if err != nil {
		return util.NamedRule{}, err
	}

	maxBidders := defaultLimitedMaxBidders
	if params.MaxBidders != nil {
		maxBidders = *params.MaxBidders
	}
	if maxBidders < th.LowBidderThreshold {
		return util.NamedRule{}, &types.ConfigurationError{Rule: util.Rules.LimitedCompetition, Reason: "max_bidders must be at least low_bidder_threshold"}
	}
	return LimitedCompetition(weight, th.LowBidderThreshold, maxBidders), nil
}
