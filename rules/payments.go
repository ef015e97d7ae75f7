package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"procurerisk/types"
	"procurerisk/util"
)

const (
	defaultDiscrepancyWeight      = 20
	defaultDiscrepancyMinorWeight = 12
	defaultDiscrepancyThreshold   = 1_000_000
	defaultDiscrepancyMinor       = 500_000
	defaultDiscrepancyColumn      = "payment_discrepancy"
	defaultOverpayWeight          = 15
	defaultLagWeight              = 8
	defaultOverpayThreshold       = 0.10
	defaultLagThreshold           = 0.20
	defaultPaymentColumn          = "actual_payment_made"
)

// PaymentDiscrepancy grades the absolute gap the source reports between
// scheduled and made payments: weight at threshold or more, minorWeight at
// minorThreshold or more.
func PaymentDiscrepancy(weight, minorWeight int, threshold, minorThreshold decimal.Decimal, column string) util.NamedRule {
	return util.NamedRule{
		Name:   util.Rules.PaymentDiscrepancy,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			gap, ok := extraNumber(record, column)
			if !ok {
				return types.Contribution{}, false
			}
			gap = gap.Abs()
			switch {
			case gap.GreaterThanOrEqual(threshold):
				return types.Contribution{
					Rule:   util.Rules.PaymentDiscrepancy,
					Weight: weight,
					Reason: fmt.Sprintf("Payment discrepancy of %s or more", threshold),
				}, true
			case gap.GreaterThanOrEqual(minorThreshold):
				return types.Contribution{
					Rule:   util.Rules.PaymentDiscrepancy,
					Weight: minorWeight,
					Reason: fmt.Sprintf("Payment discrepancy of %s or more", minorThreshold),
				}, true
			}
			return types.Contribution{}, false
		},
	}
}

func parsePaymentDiscrepancyRule(raw map[string]interface{}) (util.NamedRule, error) {
	var params struct {
		Weight         *int     `mapstructure:"weight"`
		MinorWeight    *int     `mapstructure:"minor_weight"`
		Threshold      *float64 `mapstructure:"threshold"`
		MinorThreshold *float64 `mapstructure:"minor_threshold"`
		Column         string   `mapstructure:"column"`
	}
	name := util.Rules.PaymentDiscrepancy
	if err := decodeParams(name, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(name, params.Weight, defaultDiscrepancyWeight)
	if err != nil {
		return util.NamedRule{}, err
	}
	minorWeight, err := weightOr(name, params.MinorWeight, defaultDiscrepancyMinorWeight)
	if err != nil {
		return util.NamedRule{}, err
	}

	threshold := decimal.NewFromInt(defaultDiscrepancyThreshold)
	if params.Threshold != nil {
		threshold = decimal.NewFromFloat(*params.Threshold)
	}
	minor := decimal.NewFromInt(defaultDiscrepancyMinor)
	if params.MinorThreshold != nil {
		minor = decimal.NewFromFloat(*params.MinorThreshold)
	}
	if !minor.IsPositive() || minor.GreaterThan(threshold) {
		return util.NamedRule{}, &types.ConfigurationError{Rule: name, Reason: "thresholds must satisfy 0 < minor_threshold <= threshold"}
	}
	if minorWeight > weight {
		return util.NamedRule{}, &types.ConfigurationError{Rule: name, Reason: "minor_weight must not exceed weight"}
	}

	return PaymentDiscrepancy(weight, minorWeight, threshold, minor, columnOr(params.Column, defaultDiscrepancyColumn)), nil
}

// PaymentVariance compares payments made, from a passthrough column, with the
// awarded cost. Paying overThreshold or more above the award adds weight;
// trailing it by lagThreshold or more adds lagWeight.
func PaymentVariance(weight, lagWeight int, overThreshold, lagThreshold float64, column string) util.NamedRule {
	return util.NamedRule{
		Name:   util.Rules.PaymentVariance,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			paid, ok := extraNumber(record, column)
			if !ok || !record.AwardedCost.IsPositive() {
				return types.Contribution{}, false
			}
			diff := paid.Sub(record.AwardedCost).Div(record.AwardedCost).InexactFloat64()
			switch {
			case diff >= overThreshold:
				return types.Contribution{
					Rule:   util.Rules.PaymentVariance,
					Weight: weight,
					Reason: fmt.Sprintf("Payments exceed contract amount by %s", util.Percent(diff)),
				}, true
			case -diff >= lagThreshold:
				return types.Contribution{
					Rule:   util.Rules.PaymentVariance,
					Weight: lagWeight,
					Reason: fmt.Sprintf("Payments lag contract amount by %s", util.Percent(-diff)),
				}, true
			}
			return types.Contribution{}, false
		},
	}
}

func parsePaymentVarianceRule(raw map[string]interface{}) (util.NamedRule, error) {
	var params struct {
		Weight        *int     `mapstructure:"weight"`
		LagWeight     *int     `mapstructure:"lag_weight"`
		OverThreshold *float64 `mapstructure:"over_threshold"`
		LagThreshold  *float64 `mapstructure:"lag_threshold"`
		Column        string   `mapstructure:"column"`
	}
	name := util.Rules.PaymentVariance
	if err := decodeParams(name, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(name, params.Weight, defaultOverpayWeight)
	if err != nil {
		return util.NamedRule{}, err
	}
	lagWeight, err := weightOr(name, params.LagWeight, defaultLagWeight)
	if err != nil {
		return util.NamedRule{}, err
	}

	over, lag := defaultOverpayThreshold, defaultLagThreshold
	if params.OverThreshold != nil {
		over = *params.OverThreshold
	}
	if params.LagThreshold != nil {
		lag = *params.LagThreshold
	}
	if over <= 0 || lag <= 0 || lag > 1 {
		return util.NamedRule{}, &types.ConfigurationError{Rule: name, Reason: "over_threshold must be positive and lag_threshold in (0, 1]"}
	}

	return PaymentVariance(weight, lagWeight, over, lag, columnOr(params.Column, defaultPaymentColumn)), nil
}
