package normalize

import (
	"strings"

	"procurerisk/types"
)

const (
	FieldContractID        = "contract_id"
	FieldAgency            = "agency"
	FieldVendor            = "vendor"
	FieldProcurementMethod = "procurement_method"
	FieldBidderCount       = "bidder_count"
	FieldEstimatedCost     = "estimated_cost"
	FieldAwardedCost       = "awarded_cost"
	FieldAwardDate         = "award_date"
)

// Fields lists the canonical fields in export order.
var Fields = []string{
	FieldContractID,
	FieldAgency,
	FieldVendor,
	FieldProcurementMethod,
	FieldBidderCount,
	FieldEstimatedCost,
	FieldAwardedCost,
	FieldAwardDate,
}

// Schema tells the normalizer which raw keys feed each canonical field and
// how to read loosely formatted values.
type Schema struct {
	// Aliases maps a canonical field to the raw keys checked, in order. The
	// canonical name itself is always checked first.
	Aliases map[string][]string
	// DateLayouts are tried in order for award_date.
	DateLayouts []string
	// Placeholders are raw strings that mean "not disclosed".
	Placeholders []string
}

// DefaultSchema understands the canonical names plus the column names used by
// the procurement portal export.
func DefaultSchema() Schema {
	return Schema{
		Aliases: map[string][]string{
			FieldContractID:        {"contract_code", "contractId", "id"},
			FieldAgency:            {"publicEntityName", "publicEntity", "pe_name"},
			FieldVendor:            {"contractorName1", "contractorName", "contractorName2", "contractorName3"},
			FieldProcurementMethod: {"procurementMethod", "procurement_category", "biddingProcess"},
			FieldBidderCount:       {"bidderCount", "number_of_bidders"},
			FieldEstimatedCost:     {"estimatedCost", "estimate"},
			FieldAwardedCost:       {"contract_amount", "contractAmount", "awardedCost"},
			FieldAwardDate:         {"contractDate", "awardDate"},
		},
		DateLayouts: []string{
			"2006-01-02",
			"2006-01-02T15:04:05Z07:00",
			"2006-01-02 15:04:05",
			"02/01/2006",
			"02-01-2006",
			"2006/01/02",
		},
		Placeholders: []string{"", "nan", "none", "null", "n/a", "na", "-", "--", types.Unknown},
	}
}

func (s Schema) keys(field string) []string {
	return append([]string{field}, s.Aliases[field]...)
}

func (s Schema) isPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	// the portal uses "--Select source of Fund --" style prompts for blanks
	if strings.HasPrefix(v, "--select") {
		return true
	}
	for _, p := range s.Placeholders {
		if v == p {
			return true
		}
	}
	return false
}

var methodLabels = map[string]types.ProcurementMethod{
	"open":                              types.MethodOpen,
	"open-competitive":                  types.MethodOpen,
	"open-competitive-bidding":          types.MethodOpen,
	"competitive":                       types.MethodOpen,
	"ncb":                               types.MethodOpen,
	"icb":                               types.MethodOpen,
	"national-competitive-bidding":      types.MethodOpen,
	"international-competitive-bidding": types.MethodOpen,
	"limited":                           types.MethodLimited,
	"limited-competitive":               types.MethodLimited,
	"limited-bidding":                   types.MethodLimited,
	"restricted":                        types.MethodLimited,
	"sealed-quotation":                  types.MethodLimited,
	"shopping":                          types.MethodLimited,
	"rfq":                               types.MethodLimited,
	"request-for-quotation":             types.MethodLimited,
	"direct":                            types.MethodDirect,
	"direct-procurement":                types.MethodDirect,
	"direct-purchase":                   types.MethodDirect,
	"sole-source":                       types.MethodDirect,
	"single-source":                     types.MethodDirect,
	"unknown":                           types.MethodUnknown,
}

// ParseMethod maps a free-text procurement method label onto the enum.
// Unrecognised labels are MethodUnknown.
func ParseMethod(label string) types.ProcurementMethod {
	parts := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '/'
	})
	key := strings.Join(parts, "-")
	if m, ok := methodLabels[key]; ok {
		return m
	}
	return types.MethodUnknown
}
