package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func award(agency, vendor string, cost int64) ContractRecord {
	return ContractRecord{Agency: agency, Vendor: vendor, AwardedCost: decimal.NewFromInt(cost)}
}

func TestVendorKey(t *testing.T) {
	assert.Equal(t, "acme ltd", VendorKey("  ACME   Ltd "))
	assert.Equal(t, "", VendorKey(Unknown))
	assert.Equal(t, "", VendorKey("UNKNOWN"))
	assert.Equal(t, "", VendorKey("   "))
}

func TestShareByScopeAndBasis(t *testing.T) {
	idx := NewVendorAwardIndex([]ContractRecord{
		award("Roads", "Acme", 100),
		award("roads", "ACME", 100),
		award("Roads", "Bolt", 800),
		award("Health", "Acme", 1000),
	}, nil)

	share, n, ok := idx.Share(award("Roads", "acme", 0), ScopeAgency, BasisCount)
	require.True(t, ok)
	assert.Equal(t, 3, n)
	assert.InDelta(t, 2.0/3.0, share, 1e-9)

	share, _, ok = idx.Share(award("Roads", "acme", 0), ScopeAgency, BasisValue)
	require.True(t, ok)
	assert.InDelta(t, 0.2, share, 1e-9)

	share, n, ok = idx.Share(award("Roads", "acme", 0), ScopeDataset, BasisCount)
	require.True(t, ok)
	assert.Equal(t, 4, n)
	assert.InDelta(t, 0.75, share, 1e-9)

	share, _, ok = idx.Share(award("Roads", "Newcomer", 0), ScopeAgency, BasisCount)
	require.True(t, ok)
	assert.Zero(t, share)

	assert.Equal(t, 4, idx.Records())
	totals, ok := idx.Vendor("acme")
	require.True(t, ok)
	assert.Equal(t, 3, totals.AwardCount)
	assert.True(t, totals.TotalValue.Equal(decimal.NewFromInt(1200)))
}

func TestShareNotEvaluable(t *testing.T) {
	var nilIndex *VendorAwardIndex
	_, _, ok := nilIndex.Share(award("Roads", "Acme", 1), ScopeAgency, BasisCount)
	assert.False(t, ok)
	assert.Zero(t, nilIndex.Records())
	assert.False(t, nilIndex.Denylisted("Acme"))

	idx := NewVendorAwardIndex([]ContractRecord{award("Roads", "Acme", 0)}, nil)

	_, _, ok = idx.Share(award("Roads", Unknown, 0), ScopeAgency, BasisCount)
	assert.False(t, ok, "undisclosed vendor")
	_, _, ok = idx.Share(award(Unknown, "Acme", 0), ScopeAgency, BasisCount)
	assert.False(t, ok, "undisclosed agency")
	_, _, ok = idx.Share(award("Parks", "Acme", 0), ScopeAgency, BasisCount)
	assert.False(t, ok, "agency not in batch")
	_, _, ok = idx.Share(award("Roads", "Acme", 0), ScopeAgency, BasisValue)
	assert.False(t, ok, "zero total value")
}

func TestUndisclosedVendorsStillCountTowardScope(t *testing.T) {
	idx := NewVendorAwardIndex([]ContractRecord{
		award("Roads", "Acme", 1),
		award("Roads", Unknown, 1),
	}, nil)

	share, n, ok := idx.Share(award("Roads", "Acme", 0), ScopeAgency, BasisCount)
	require.True(t, ok)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 0.5, share, 1e-9)
}

func TestTierFor(t *testing.T) {
	b := TierBoundaries{LowMax: 29, MediumMax: 60}
	assert.Equal(t, TierLow, b.TierFor(0))
	assert.Equal(t, TierLow, b.TierFor(29))
	assert.Equal(t, TierMedium, b.TierFor(30))
	assert.Equal(t, TierMedium, b.TierFor(60))
	assert.Equal(t, TierHigh, b.TierFor(61))
	assert.Less(t, TierLow.Rank(), TierMedium.Rank())
	assert.Less(t, TierMedium.Rank(), TierHigh.Rank())
}

func TestCostVariance(t *testing.T) {
	rec := award("Roads", "Acme", 150)
	_, ok := rec.CostVariance()
	assert.False(t, ok)

	rec.EstimatedCost = decimal.NewNullDecimal(decimal.Zero)
	_, ok = rec.CostVariance()
	assert.False(t, ok, "zero estimate")

	rec.EstimatedCost = decimal.NewNullDecimal(decimal.NewFromInt(100))
	v, ok := rec.CostVariance()
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.RequireFromString("0.5")))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "awarded_cost: negative value -1", (&ValidationError{Field: "awarded_cost", Reason: "negative value -1"}).Error())
	assert.Equal(t, "configuration: lowCompetition: unknown rule", (&ConfigurationError{Rule: "lowCompetition", Reason: "unknown rule"}).Error())
	assert.Equal(t, "configuration: rule set is empty", (&ConfigurationError{Reason: "rule set is empty"}).Error())
}
