package rules

import (
	"fmt"

	"procurerisk/normalize"
	"procurerisk/types"
	"procurerisk/util"
)

const (
	defaultDisclosureWeight = 10
	disclosureReason        = "Incomplete disclosure data"
)

// undisclosed reports, per transparency field, whether a record left it out.
var undisclosed = map[string]func(types.ContractRecord) bool{
	normalize.FieldBidderCount:       func(r types.ContractRecord) bool { return r.BidderCount == nil },
	normalize.FieldEstimatedCost:     func(r types.ContractRecord) bool { return !r.EstimatedCost.Valid },
	normalize.FieldAwardDate:         func(r types.ContractRecord) bool { return r.AwardDate == nil },
	normalize.FieldVendor:            func(r types.ContractRecord) bool { return types.VendorKey(r.Vendor) == "" },
	normalize.FieldAgency:            func(r types.ContractRecord) bool { return types.VendorKey(r.Agency) == "" },
	normalize.FieldProcurementMethod: func(r types.ContractRecord) bool { return r.ProcurementMethod == types.MethodUnknown },
}

// IncompleteDisclosure triggers once if any of fields is undisclosed. It
// flags data quality, not fraud.
func IncompleteDisclosure(weight int, fields []string) util.NamedRule {
	checks := make([]func(types.ContractRecord) bool, 0, len(fields))
	for _, f := range fields {
		if check, ok := undisclosed[f]; ok {
			checks = append(checks, check)
		}
	}

	return util.NamedRule{
		Name:   util.Rules.IncompleteDisclosure,
		Weight: weight,
		Evaluate: func(record types.ContractRecord, _ *types.VendorAwardIndex) (types.Contribution, bool) {
			for _, missing := range checks {
				if missing(record) {
					return types.Contribution{
						Rule:   util.Rules.IncompleteDisclosure,
						Weight: weight,
						Reason: disclosureReason,
					}, true
				}
			}
			return types.Contribution{}, false
		},
	}
}

func parseIncompleteDisclosureRule(raw map[string]interface{}) (util.NamedRule, error) {
	var params struct {
		Weight *int     `mapstructure:"weight"`
		Fields []string `mapstructure:"fields"`
	}
	if err := decodeParams(util.Rules.IncompleteDisclosure, raw, &params); err != nil {
		return util.NamedRule{}, err
	}
	weight, err := weightOr(util.Rules.IncompleteDisclosure, params.Weight, defaultDisclosureWeight)
	if err != nil {
		return util.NamedRule{}, err
	}

	fields := params.Fields
	if len(fields) == 0 {
		fields = []string{normalize.FieldBidderCount}
	}
	for _, f := range fields {
		if _, ok := undisclosed[f]; !ok {
			return util.NamedRule{}, &types.ConfigurationError{Rule: util.Rules.IncompleteDisclosure, Reason: fmt.Sprintf("field %q cannot be checked for disclosure", f)}
		}
	}

	return IncompleteDisclosure(weight, fields), nil
}
