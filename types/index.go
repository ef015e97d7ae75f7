package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Scope string

const (
	ScopeAgency  Scope = "agency"
	ScopeDataset Scope = "dataset"
)

type Basis string

const (
	BasisCount Basis = "count"
	BasisValue Basis = "value"
)

type VendorTotals struct {
	AwardCount int             `json:"awardCount"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

func (t VendorTotals) add(c ContractRecord) VendorTotals {
	return VendorTotals{AwardCount: t.AwardCount + 1, TotalValue: t.TotalValue.Add(c.AwardedCost)}
}

type scopeTotals struct {
	all     VendorTotals
	vendors map[string]VendorTotals
}

func newScopeTotals() *scopeTotals {
	return &scopeTotals{vendors: make(map[string]VendorTotals)}
}

func (s *scopeTotals) add(c ContractRecord) {
	s.all = s.all.add(c)
	if key := VendorKey(c.Vendor); key != "" {
		s.vendors[key] = s.vendors[key].add(c)
	}
}

// VendorAwardIndex aggregates awards per vendor across one batch. It is built
// once by NewVendorAwardIndex and is safe for concurrent reads afterwards. A
// nil index means no batch context: every lookup reports not evaluable.
type VendorAwardIndex struct {
	dataset  *scopeTotals
	agencies map[string]*scopeTotals
	denylist map[string]struct{}
}

// NewVendorAwardIndex walks the full batch. denylist is the set of vendor
// names flagged for this batch; it is copied.
func NewVendorAwardIndex(records []ContractRecord, denylist []string) *VendorAwardIndex {
	idx := &VendorAwardIndex{
		dataset:  newScopeTotals(),
		agencies: make(map[string]*scopeTotals),
		denylist: make(map[string]struct{}, len(denylist)),
	}
	for _, c := range records {
		idx.dataset.add(c)
		agency := VendorKey(c.Agency)
		if agency == "" {
			continue
		}
		scope, ok := idx.agencies[agency]
		if !ok {
			scope = newScopeTotals()
			idx.agencies[agency] = scope
		}
		scope.add(c)
	}
	for _, v := range denylist {
		if key := VendorKey(v); key != "" {
			idx.denylist[key] = struct{}{}
		}
	}
	return idx
}

// Records is the number of contracts the index was built from.
func (idx *VendorAwardIndex) Records() int {
	if idx == nil {
		return 0
	}
	return idx.dataset.all.AwardCount
}

func (idx *VendorAwardIndex) Vendor(name string) (VendorTotals, bool) {
	if idx == nil {
		return VendorTotals{}, false
	}
	t, ok := idx.dataset.vendors[VendorKey(name)]
	return t, ok
}

// Share returns the vendor's fraction of awards within the scope, and the
// number of awards in that scope. ok is false when the share cannot be
// computed: no index, undisclosed vendor or agency, or an empty scope.
func (idx *VendorAwardIndex) Share(c ContractRecord, scope Scope, basis Basis) (share float64, scopeAwards int, ok bool) {
	if idx == nil {
		return 0, 0, false
	}
	vendor := VendorKey(c.Vendor)
	if vendor == "" {
		return 0, 0, false
	}

	totals := idx.dataset
	if scope == ScopeAgency {
		agency := VendorKey(c.Agency)
		if agency == "" {
			return 0, 0, false
		}
		totals, ok = idx.agencies[agency]
		if !ok {
			return 0, 0, false
		}
	}

	v := totals.vendors[vendor]
	switch basis {
	case BasisValue:
		if !totals.all.TotalValue.IsPositive() {
			return 0, totals.all.AwardCount, false
		}
		share, _ = v.TotalValue.Div(totals.all.TotalValue).Float64()
	default:
		if totals.all.AwardCount == 0 {
			return 0, 0, false
		}
		share = float64(v.AwardCount) / float64(totals.all.AwardCount)
	}
	return share, totals.all.AwardCount, true
}

func (idx *VendorAwardIndex) Denylisted(vendor string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.denylist[VendorKey(vendor)]
	return ok
}

// VendorKey folds case and whitespace so "ACME  Ltd" and "acme ltd" are the
// same vendor. The Unknown sentinel folds to "".
func VendorKey(name string) string {
	key := strings.ToLower(strings.Join(strings.Fields(name), " "))
	if key == Unknown {
		return ""
	}
	return key
}
